package google

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"tableside/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const ordersSheetRange = "Orders!A:E"

// SheetsService mirrors submitted orders into a Google Sheet so the kitchen
// history is visible outside the app.
type SheetsService struct {
	service       *sheets.Service
	spreadsheetID string
}

func NewSheetsService(credentialsFile, spreadsheetID string) (*SheetsService, error) {
	ctx := context.Background()

	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}

	return &SheetsService{service: srv, spreadsheetID: spreadsheetID}, nil
}

// TestConnection проверяет доступ к таблице заказов
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, "Orders!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// AppendOrder adds one submitted order as a row.
func (s *SheetsService) AppendOrder(ctx context.Context, order models.Order) error {
	row := orderRow(order)
	vr := &sheets.ValueRange{Values: [][]interface{}{row}}

	_, err := s.service.Spreadsheets.Values.
		Append(s.spreadsheetID, ordersSheetRange, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append order row: %w", err)
	}
	return nil
}

// ReplaceOrdersSheet rewrites the sheet from the full collection.
func (s *SheetsService) ReplaceOrdersSheet(ctx context.Context, orders []models.Order) error {
	values := [][]interface{}{
		{"Reservation", "Items", "Total Quantity", "Created At", "Exported At"},
	}
	for _, order := range orders {
		values = append(values, orderRow(order))
	}

	if _, err := s.service.Spreadsheets.Values.
		Clear(s.spreadsheetID, ordersSheetRange, &sheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear orders sheet: %w", err)
	}

	vr := &sheets.ValueRange{Values: values}
	_, err := s.service.Spreadsheets.Values.
		Update(s.spreadsheetID, "Orders!A1", vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update orders sheet: %w", err)
	}
	return nil
}

func orderRow(order models.Order) []interface{} {
	parts := make([]string, 0, len(order.Lines))
	for _, line := range order.Lines {
		parts = append(parts, fmt.Sprintf("%s x%d (%s)", line.Name, line.Quantity, line.Category))
	}
	return []interface{}{
		order.ID,
		strings.Join(parts, ", "),
		order.TotalQuantity(),
		order.CreatedAt.Format(time.RFC3339),
		time.Now().Format(time.RFC3339),
	}
}
