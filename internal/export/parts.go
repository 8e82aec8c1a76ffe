package export

import (
	"fmt"

	"tesig/console/internal/models"

	"github.com/xuri/excelize/v2"
)

const partsSheet = "Inventario"

// ContentType is the media type of the workbooks this package builds.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var partsHeaders = []string{
	"Código", "Nombre", "Categoría", "Marca", "Modelo",
	"Stock", "Stock mínimo", "Estado de stock",
	"Precio costo", "Precio venta", "Margen (%)", "Ubicación", "Proveedor",
}

var partsWidths = []float64{14, 32, 18, 16, 16, 8, 12, 16, 12, 12, 10, 16, 22}

// PartsWorkbook lays out the inventory as one sheet. Stock status and
// margin are copied from the API as they are.
func PartsWorkbook(parts []models.Part) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", partsSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#808080", Style: 1},
		},
	})
	alertStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#C00000"},
	})

	for i, header := range partsHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := fmt.Sprintf("%s1", col)
		f.SetCellValue(partsSheet, cell, header)
		f.SetCellStyle(partsSheet, cell, cell, headerStyle)
		f.SetColWidth(partsSheet, col, col, partsWidths[i])
	}

	for i, p := range parts {
		row := i + 2
		values := []interface{}{
			p.Codigo, p.Nombre, p.Categoria, p.Marca, p.Modelo,
			p.Stock, p.StockMinimo, p.EstadoStock,
			p.PrecioCosto, p.PrecioVenta, p.MargenGanancia, p.Ubicacion, p.Proveedor,
		}
		for j, v := range values {
			col, _ := excelize.ColumnNumberToName(j + 1)
			f.SetCellValue(partsSheet, fmt.Sprintf("%s%d", col, row), v)
		}
		if p.EstadoStock == models.StockOut || p.EstadoStock == models.StockLow {
			first := fmt.Sprintf("A%d", row)
			last, _ := excelize.CoordinatesToCellName(len(values), row)
			f.SetCellStyle(partsSheet, first, last, alertStyle)
		}
	}

	if err := f.SetPanes(partsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("freeze header: %w", err)
	}
	return f, nil
}
