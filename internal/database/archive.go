package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tableside/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// Archive records completed orders in sqlite. The kitchen's Complete action
// is destructive on the live store, so this is the only history kept.
type Archive struct {
	db     *sql.DB
	logger *zerolog.Logger
}

func NewArchive(path string, logger *zerolog.Logger) (*Archive, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to archive database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("archive database initialized")
	return &Archive{db: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	query := `CREATE TABLE IF NOT EXISTS completed_orders (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        reservation_id TEXT NOT NULL,
        lines TEXT NOT NULL,
        total_quantity INTEGER NOT NULL,
        created_at DATETIME NOT NULL,
        completed_at DATETIME DEFAULT CURRENT_TIMESTAMP
    )`
	if _, err := db.Exec(query); err != nil {
		return err
	}
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_completed_orders_reservation
        ON completed_orders(reservation_id)`)
	return err
}

// RecordCompleted appends one completed order to the history.
func (a *Archive) RecordCompleted(ctx context.Context, order models.Order) error {
	lines, err := json.Marshal(order.Lines)
	if err != nil {
		return fmt.Errorf("encode order lines: %w", err)
	}

	query := `INSERT INTO completed_orders (reservation_id, lines, total_quantity, created_at, completed_at)
              VALUES (?, ?, ?, ?, ?)`
	if _, err := a.db.ExecContext(ctx, query,
		order.ID,
		string(lines),
		order.TotalQuantity(),
		order.CreatedAt,
		time.Now(),
	); err != nil {
		return fmt.Errorf("insert completed order: %w", err)
	}
	return nil
}

// CompletedOrder is one archived row.
type CompletedOrder struct {
	ID            int64              `json:"id"`
	ReservationID string             `json:"reservation_id"`
	Lines         []models.OrderLine `json:"lines"`
	TotalQuantity int                `json:"total_quantity"`
	CreatedAt     time.Time          `json:"created_at"`
	CompletedAt   time.Time          `json:"completed_at"`
}

// ListCompleted returns the most recent archived orders, newest first.
func (a *Archive) ListCompleted(ctx context.Context, limit int) ([]CompletedOrder, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := a.db.QueryContext(ctx, `
        SELECT id, reservation_id, lines, total_quantity, created_at, completed_at
        FROM completed_orders ORDER BY completed_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query completed orders: %w", err)
	}
	defer rows.Close()

	var out []CompletedOrder
	for rows.Next() {
		var row CompletedOrder
		var lines string
		if err := rows.Scan(&row.ID, &row.ReservationID, &lines, &row.TotalQuantity, &row.CreatedAt, &row.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan completed order: %w", err)
		}
		if err := json.Unmarshal([]byte(lines), &row.Lines); err != nil {
			a.logger.Warn().Err(err).Int64("id", row.ID).Msg("corrupt archived lines, returning row without lines")
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (a *Archive) Close() error {
	return a.db.Close()
}
