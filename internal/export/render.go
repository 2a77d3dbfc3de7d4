package export

import (
	"bytes"
	"io"

	"github.com/go-pdf/fpdf"
)

const ContentType = "application/pdf"

// RenderPDF draws r onto w. Text is converted from UTF-8 to cp1252 for the
// core fonts; characters outside that code page are dropped by fpdf.
func RenderPDF(w io.Writer, r Report) error {
	g := r.Geometry

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: g.PageWidth, Ht: g.PageHeight},
	})
	pdf.SetTitle(r.Title, true)
	pdf.SetCreator("chamados", true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, p := range r.Pages {
		pdf.AddPage()
		pdf.SetFont(g.FontFamily, "", g.FontSize)
		for _, l := range p.Lines {
			pdf.Text(l.X, l.Y, tr(l.Text))
		}
	}

	return pdf.Output(w)
}

// RenderPDFBytes is RenderPDF into memory.
func RenderPDFBytes(r Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := RenderPDF(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
