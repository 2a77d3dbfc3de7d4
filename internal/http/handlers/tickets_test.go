package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Matheusaraujo007/chamados/internal/domain/ticket"
	"github.com/Matheusaraujo007/chamados/internal/http/handlers"
	"github.com/Matheusaraujo007/chamados/internal/services"
)

func TestDashboardHandler(t *testing.T) {
	var got services.ListInput
	svc := &fakeTicketService{
		listFn: func(_ context.Context, in services.ListInput) (services.ListResult, error) {
			got = in
			return services.ListResult{
				Tickets: []ticket.Ticket{{
					ID: 3, Sector: "TI", Description: "Impressora com defeito",
					Priority: ticket.PriorityHigh, Status: ticket.StatusPending,
					CreatedAt: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
				}},
				Warnings: []string{services.WarnInvalidDate},
			}, nil
		},
	}
	h := handlers.NewTicketsHandler(svc, nil)
	r := setupRouter(http.MethodGet, "/dashboard", h.Dashboard)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard?status=Pendente&start_date=2025-01-01&end_date=xx", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if got.Status != "Pendente" || got.StartDate != "2025-01-01" || got.EndDate != "xx" {
		t.Fatalf("query not forwarded: %+v", got)
	}

	var body struct {
		Items []struct {
			ID         int64  `json:"id"`
			Setor      string `json:"setor"`
			Descricao  string `json:"descricao"`
			Prioridade string `json:"prioridade"`
			Status     string `json:"status"`
		} `json:"items"`
		Count   int               `json:"count"`
		Notices []handlers.Notice `json:"notices"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Count != 1 || body.Items[0].Setor != "TI" || body.Items[0].Prioridade != "Alta" {
		t.Fatalf("unexpected items: %+v", body)
	}
	if len(body.Notices) != 1 || body.Notices[0].Message != "Formato de data inválido." {
		t.Fatalf("unexpected notices: %+v", body.Notices)
	}
}

func TestCreateTicketHandler(t *testing.T) {
	tests := []struct {
		name       string
		form       url.Values
		svcErr     error
		wantStatus int
	}{
		{"created", url.Values{"setor": {"TI"}, "descricao": {"d"}, "prioridade": {"Alta"}}, nil, http.StatusCreated},
		{"missing fields", url.Values{"setor": {"TI"}}, nil, http.StatusBadRequest},
		{"bad priority", url.Values{"setor": {"TI"}, "descricao": {"d"}, "prioridade": {"Urgente"}}, services.ErrValidation, http.StatusBadRequest},
		{"store error", url.Values{"setor": {"TI"}, "descricao": {"d"}, "prioridade": {"Alta"}}, errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeTicketService{
				createFn: func(_ context.Context, req ticket.CreateTicketRequest) (ticket.Ticket, error) {
					if tt.svcErr != nil {
						return ticket.Ticket{}, tt.svcErr
					}
					return ticket.Ticket{ID: 1, Sector: req.Sector, Description: req.Description, Priority: ticket.Priority(req.Priority), Status: ticket.StatusPending}, nil
				},
			}
			h := handlers.NewTicketsHandler(svc, nil)
			r := setupRouter(http.MethodPost, "/create_ticket", h.Create)

			req := httptest.NewRequest(http.MethodPost, "/create_ticket", strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status=%d want %d body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestResolveAndDeleteHandlers(t *testing.T) {
	svc := &fakeTicketService{
		resolveFn: func(_ context.Context, id int64) (bool, error) { return id == 1, nil },
		deleteFn:  func(_ context.Context, id int64) (bool, error) { return id == 1, nil },
	}
	h := handlers.NewTicketsHandler(svc, nil)

	resolve := setupRouter(http.MethodGet, "/mark_resolved/:id", h.Resolve)
	del := setupRouter(http.MethodGet, "/delete_ticket/:id", h.Delete)

	cases := []struct {
		name        string
		router      http.Handler
		path        string
		wantStatus  int
		wantNotices int
	}{
		{"resolve existing", resolve, "/mark_resolved/1", http.StatusOK, 1},
		{"resolve missing", resolve, "/mark_resolved/99", http.StatusOK, 0},
		{"resolve bad id", resolve, "/mark_resolved/abc", http.StatusBadRequest, 0},
		{"delete existing", del, "/delete_ticket/1", http.StatusOK, 1},
		{"delete missing", del, "/delete_ticket/99", http.StatusOK, 0},
		{"delete bad id", del, "/delete_ticket/-4", http.StatusBadRequest, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tc.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))

			if w.Code != tc.wantStatus {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.wantStatus, w.Body.String())
			}
			env := decode(t, w)
			if tc.wantStatus == http.StatusBadRequest {
				if env.Error == nil || env.Error.Code != "invalid_id" {
					t.Fatalf("expected invalid_id, got %+v", env.Error)
				}
				return
			}
			if len(env.Notices) != tc.wantNotices {
				t.Fatalf("notices=%+v want %d", env.Notices, tc.wantNotices)
			}
		})
	}
}

func TestResolveHandler_Unauthenticated(t *testing.T) {
	svc := &fakeTicketService{
		resolveFn: func(context.Context, int64) (bool, error) { return false, services.ErrUnauthenticated },
	}
	h := handlers.NewTicketsHandler(svc, nil)
	r := setupRouter(http.MethodPost, "/mark_resolved/:id", h.Resolve)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/mark_resolved/1", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", w.Code)
	}
}
