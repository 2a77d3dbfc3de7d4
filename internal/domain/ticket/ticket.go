package ticket

import (
	"errors"
	"strings"
	"time"
)

type Status string

const (
	StatusPending  Status = "Pendente"
	StatusResolved Status = "Resolvido"
)

func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusResolved
}

// ParseStatus reports ok=false for anything outside the two known statuses.
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.TrimSpace(raw))
	return s, s.IsValid()
}

type Priority string

const (
	PriorityLow    Priority = "Baixa"
	PriorityMedium Priority = "Média"
	PriorityHigh   Priority = "Alta"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Ticket struct {
	ID          int64     `json:"id"`
	Sector      string    `json:"setor"`
	Description string    `json:"descricao"`
	Priority    Priority  `json:"prioridade"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"dataHora"`
}

type Order int

const (
	NewestFirst Order = iota
	OldestFirst
)

// with pointers if optional, it will be nil
type ListFilter struct {
	Status *Status
	From   *time.Time
	To     *time.Time
	Order  Order
}

var (
	ErrNotFound        = errors.New("ticket not found")
	ErrInvalidStatus   = errors.New("invalid ticket status")
	ErrInvalidPriority = errors.New("invalid ticket priority")
)

type CreateTicketRequest struct {
	Sector      string `form:"setor" json:"setor" binding:"required,max=100"`
	Description string `form:"descricao" json:"descricao" binding:"required"`
	Priority    string `form:"prioridade" json:"prioridade" binding:"required"`
	Status      string `form:"status" json:"status"`
}
