// Package xlsx exporta el historial de préstamos de una persona como libro de Excel.
package xlsx

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/prestamos-api/internal/application/dto"
	"github.com/jhoicas/prestamos-api/internal/application/ports"
)

const (
	sheetName  = "Historial"
	dateLayout = "2006-01-02 15:04"
)

var headers = []string{"Código", "Estado", "Solicitado", "Devolución programada", "Devuelto", "Motivo", "Ítems", "Unidades"}

// HistoryExporter implementa ports.HistoryExporter con excelize.
type HistoryExporter struct{}

func NewHistoryExporter() *HistoryExporter { return &HistoryExporter{} }

var _ ports.HistoryExporter = (*HistoryExporter)(nil)

// Export fila 1 título, fila 2 moroso/generado, fila 4 encabezados, datos desde la fila 5.
func (e *HistoryExporter) Export(data dto.HistoryExport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("xlsx: crear hoja: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("xlsx: %w", err)
	}

	widths := []float64{14, 12, 18, 22, 18, 40, 8, 10}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, col, col, w); err != nil {
			return nil, fmt.Errorf("xlsx: ancho de columna: %w", err)
		}
	}

	titleStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 13}})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#00467F"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	h := data.History
	title := "Historial de préstamos — DNI " + h.DNI
	if h.FullName != "" {
		title += " — " + h.FullName
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.SetCellValue(sheetName, "A1", title)
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	defaulter := "No"
	if h.Defaulter {
		defaulter = "Sí"
	}
	_ = f.SetCellValue(sheetName, "A2", "Moroso: "+defaulter)
	_ = f.SetCellValue(sheetName, "D2", "Generado: "+data.GeneratedAt.Format(dateLayout))

	for i, label := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 4)
		_ = f.SetCellValue(sheetName, cell, label)
	}
	_ = f.SetCellStyle(sheetName, "A4", lastCol+"4", headerStyle)

	for i, entry := range h.Entries {
		returned := ""
		if entry.ActualReturnDate != nil {
			returned = entry.ActualReturnDate.Format(dateLayout)
		}
		values := []any{
			entry.Code,
			entry.Status,
			entry.RequestDate.Format(dateLayout),
			entry.ScheduledReturnDate.Format(dateLayout),
			returned,
			entry.Reason,
			entry.Items,
			entry.Units,
		}
		cell, _ := excelize.CoordinatesToCellName(1, 5+i)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("xlsx: fila %d: %w", i+1, err)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("xlsx: escribir libro: %w", err)
	}
	return buf.Bytes(), nil
}
