// Package pdf genera el acta de préstamo: constancia firmada de los bienes entregados.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: ACTA DE PRÉSTAMO + código   │  QR del código       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  SOLICITANTE: nombre, DNI, tipo, contacto                   │
//	│  PRÉSTAMO: motivo, evento, lugar, fechas                    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Código | Bien | Condición | V.Unit | Subtotal│
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTAL valor patrimonial                                    │
//	│  FIRMAS: solicitante / responsable                          │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/prestamos-api/internal/application/dto"
	"github.com/jhoicas/prestamos-api/internal/application/ports"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

const dateLayout = "02/01/2006 15:04"

// ActaGenerator implementa ports.ActaGenerator con Maroto v2.
type ActaGenerator struct {
	institution string
}

// NewActaGenerator institution se imprime en el encabezado y como autor del PDF.
func NewActaGenerator(institution string) *ActaGenerator {
	return &ActaGenerator{institution: institution}
}

var _ ports.ActaGenerator = (*ActaGenerator)(nil)

// Generate arma el documento y devuelve sus bytes.
func (g *ActaGenerator) Generate(data dto.ActaData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Acta de préstamo "+data.LoanCode, true).
		WithAuthor(g.institution, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(g.institution, data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(requestorRow(data.Requestor))
	m.AddRows(loanRows(data)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableDetailRows(data.Lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalRow(data.Total))

	m.AddRows(row.New(25))
	m.AddRows(signatureRows(data.Requestor)...)
	m.AddRows(footerRow(data))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar acta: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(institution string, data dto.ActaData) core.Row {
	return row.New(26).Add(
		col.New(9).Add(
			text.New(nonEmpty(institution, "Préstamo de bienes"), props.Text{
				Style: fontstyle.Bold, Size: 12, Color: colorPrimary, Top: 1,
			}),
			text.New("ACTA DE PRÉSTAMO N° "+data.LoanCode, props.Text{
				Style: fontstyle.Bold, Size: 11, Top: 9,
			}),
			text.New("Estado: "+data.Status+"   |   Solicitado: "+data.RequestDate.Format(dateLayout), props.Text{
				Size: 8, Top: 17, Color: colorGray,
			}),
		),
		col.New(3).Add(code.NewQr(data.LoanCode, props.Rect{Percent: 90, Center: true})),
	)
}

func requestorRow(p dto.ActaPerson) core.Row {
	return row.New(18).Add(
		col.New(12).Add(
			text.New("SOLICITANTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(p.FullName, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(fmt.Sprintf("DNI: %s   |   Tipo: %s   |   Email: %s   |   Tel: %s",
				p.DNI,
				nonEmpty(p.Type, "—"),
				nonEmpty(p.Email, "—"),
				nonEmpty(p.Phone, "—"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func loanRows(data dto.ActaData) []core.Row {
	field := func(label, value string) core.Row {
		return row.New(5).Add(
			col.New(3).Add(text.New(label, props.Text{Style: fontstyle.Bold, Size: 8})),
			col.New(9).Add(text.New(value, props.Text{Size: 8})),
		)
	}
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(text.New("DATOS DEL PRÉSTAMO", props.Text{
			Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
		}))),
		field("Motivo:", data.Reason),
		field("Devolución programada:", data.ScheduledReturnDate.Format(dateLayout)),
	}
	if data.AssociatedEvent != "" {
		rows = append(rows, field("Evento:", data.AssociatedEvent))
	}
	if data.ExternalLocation != "" {
		rows = append(rows, field("Lugar externo:", data.ExternalLocation))
	}
	if data.Notes != "" {
		rows = append(rows, field("Notas:", data.Notes))
	}
	return rows
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Código", 2, align.Left),
		h("Bien", 3, align.Left),
		h("Condición", 2, align.Left),
		h("V. Unit.", 2, align.Right),
		h("Subtotal", 2, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func tableDetailRows(lines []dto.ActaLine) []core.Row {
	result := make([]core.Row, 0, len(lines)*2)
	for _, l := range lines {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(fmt.Sprint(l.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(l.Code, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(3).Add(text.New(l.Name, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(nonEmpty(l.Condition, "—"), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(formatMoney(l.UnitValue), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(formatMoney(l.Subtotal), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
		if obs := strings.TrimSpace(l.Observations); obs != "" {
			result = append(result, row.New(5).Add(
				col.New(1),
				col.New(11).Add(text.New("Obs.: "+obs, props.Text{Size: 7, Color: colorGray, Left: 1})),
			))
		}
	}
	return result
}

func totalRow(total decimal.Decimal) core.Row {
	return row.New(10).Add(
		col.New(6),
		col.New(3).Add(text.New("VALOR TOTAL:", props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 2,
		})),
		col.New(3).Add(text.New(formatMoney(total), props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 2,
		})),
	)
}

func signatureRows(p dto.ActaPerson) []core.Row {
	sign := func(title, name string) core.Col {
		return col.New(5).Add(
			text.New("________________________________", props.Text{Size: 9, Align: align.Center}),
			text.New(title, props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Center, Top: 5}),
			text.New(name, props.Text{Size: 8, Align: align.Center, Top: 9, Color: colorGray}),
		)
	}
	return []core.Row{
		row.New(16).Add(
			sign("Solicitante", p.FullName+" — DNI "+p.DNI),
			col.New(2),
			sign("Responsable de almacén", ""),
		),
	}
}

func footerRow(data dto.ActaData) core.Row {
	return row.New(10).Add(col.New(12).Add(
		text.New(
			"El solicitante declara recibir los bienes detallados en la condición indicada y se compromete "+
				"a devolverlos en la fecha programada. Generado el "+data.GeneratedAt.Format(dateLayout)+".",
			props.Text{Size: 6.5, Color: colorGray, Top: 4},
		),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney "S/ 1,250.50": separador de miles con coma y dos decimales.
func formatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-3:]
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c)
	}
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return "S/ " + sign + string(buf) + frac
}
