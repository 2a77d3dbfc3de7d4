package ticket

import (
	"fmt"
	"strings"
	"time"
)

// NewFromCreateRequest trims and checks the request; status defaults to Pendente.
func NewFromCreateRequest(req CreateTicketRequest, now time.Time) (Ticket, error) {
	priority := Priority(strings.TrimSpace(req.Priority))
	if !priority.IsValid() {
		return Ticket{}, fmt.Errorf("%w: %q", ErrInvalidPriority, req.Priority)
	}

	status := StatusPending
	if strings.TrimSpace(req.Status) != "" {
		s, ok := ParseStatus(req.Status)
		if !ok {
			return Ticket{}, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
		}
		status = s
	}

	return Ticket{
		Sector:      strings.TrimSpace(req.Sector),
		Description: strings.TrimSpace(req.Description),
		Priority:    priority,
		Status:      status,
		CreatedAt:   now,
	}, nil
}
