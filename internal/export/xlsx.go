package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"tableside/internal/models"

	"github.com/xuri/excelize/v2"
)

const ordersSheet = "Orders"

// BuildOrdersWorkbook renders the current order collection as an XLSX
// workbook: one row per order line, grouped under the reservation id.
func BuildOrdersWorkbook(orders []models.Order) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(ordersSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{"Reservation", "Item", "Category", "Quantity", "Created At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(ordersSheet, cell, h)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(ordersSheet, "A1", "E1", headerStyle)

	row := 2
	for _, order := range orders {
		for _, line := range order.Lines {
			setRow(f, row, []interface{}{
				order.ID,
				line.Name,
				line.Category,
				line.Quantity,
				order.CreatedAt.Format("2006-01-02 15:04"),
			})
			row++
		}
	}

	_ = f.SetColWidth(ordersSheet, "A", "A", 18)
	_ = f.SetColWidth(ordersSheet, "B", "C", 22)
	_ = f.SetColWidth(ordersSheet, "E", "E", 18)

	return f, nil
}

func setRow(f *excelize.File, row int, values []interface{}) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(ordersSheet, cell, v)
	}
}

// WriteOrdersFile saves the workbook under dir and returns the file path.
func WriteOrdersFile(dir string, orders []models.Order) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f, err := BuildOrdersWorkbook(orders)
	if err != nil {
		return "", err
	}
	defer f.Close()

	filePath := filepath.Join(dir, fmt.Sprintf("orders_%s.xlsx", time.Now().Format("2006-01-02_15-04-05")))
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}
	return filePath, nil
}

// StreamOrders writes the workbook to w, for HTTP downloads.
func StreamOrders(w io.Writer, orders []models.Order) error {
	f, err := BuildOrdersWorkbook(orders)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}
