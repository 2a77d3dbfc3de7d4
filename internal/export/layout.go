// Package export lays out ticket reports and renders them as PDF.
//
// Coordinates are measured in points from the top-left corner of the page,
// matching the text baseline convention of fpdf.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/Matheusaraujo007/chamados/internal/domain/ticket"
)

const (
	titleAll       = "Lista de Chamados"
	emptyResultMsg = "Nenhum chamado encontrado."
	timestampFmt   = "02/01/2006 15:04:05"
)

// Geometry describes the page and text metrics of a report.
type Geometry struct {
	PageWidth  float64
	PageHeight float64
	Margin     float64
	TitleGap   float64
	LineHeight float64
	FontFamily string
	FontSize   float64
}

// A4 is the geometry used for every ticket report.
var A4 = Geometry{
	PageWidth:  595.28,
	PageHeight: 841.89,
	Margin:     50,
	TitleGap:   30,
	LineHeight: 12,
	FontFamily: "Helvetica",
	FontSize:   7,
}

type Line struct {
	X, Y float64
	Text string
}

type Page struct {
	Lines []Line
}

type Report struct {
	Title    string
	Filename string
	Geometry Geometry
	Pages    []Page
}

// Text returns every drawn string in order, one per line.
func (r Report) Text() string {
	var b strings.Builder
	for _, p := range r.Pages {
		for _, l := range p.Lines {
			b.WriteString(l.Text)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func FormatTicketLine(t ticket.Ticket, loc *time.Location) string {
	return fmt.Sprintf("ID: %d | Setor: %s | Prioridade: %s | Status: %s | Descrição: %s | Data/Hora: %s",
		t.ID, t.Sector, t.Priority, t.Status, t.Description, t.CreatedAt.In(loc).Format(timestampFmt))
}

// AllTickets builds the unfiltered report. An empty list yields a page with
// the title only.
func AllTickets(tickets []ticket.Ticket, loc *time.Location) Report {
	lines := make([]string, 0, len(tickets))
	for _, t := range tickets {
		lines = append(lines, FormatTicketLine(t, loc))
	}

	return Layout(A4, titleAll, "chamados.pdf", lines)
}

// TicketsByStatus builds the report for a single status.
func TicketsByStatus(tickets []ticket.Ticket, status ticket.Status, loc *time.Location) Report {
	lines := make([]string, 0, len(tickets))
	for _, t := range tickets {
		lines = append(lines, FormatTicketLine(t, loc))
	}
	if len(lines) == 0 {
		lines = append(lines, emptyResultMsg)
	}

	title := fmt.Sprintf("%s - %s", titleAll, status)
	filename := fmt.Sprintf("chamados_%s.pdf", strings.ToLower(string(status)))

	return Layout(A4, title, filename, lines)
}

// Layout places the title and body lines on pages. A line is moved to a new
// page when its baseline would fall below the bottom margin.
func Layout(g Geometry, title, filename string, body []string) Report {
	bottom := g.PageHeight - g.Margin

	page := Page{Lines: []Line{{X: g.Margin, Y: g.Margin, Text: title}}}
	y := g.Margin + g.TitleGap

	var pages []Page
	for _, text := range body {
		if y > bottom {
			pages = append(pages, page)
			page = Page{}
			y = g.Margin
		}
		page.Lines = append(page.Lines, Line{X: g.Margin, Y: y, Text: text})
		y += g.LineHeight
	}
	pages = append(pages, page)

	return Report{Title: title, Filename: filename, Geometry: g, Pages: pages}
}
