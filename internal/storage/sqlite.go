package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidOrder is returned when an order cannot be archived as given
	ErrInvalidOrder = errors.New("invalid order")
)

const (
	// Fixed-width so created_at sorts lexically
	timeLayout       = "2006-01-02T15:04:05.000000000Z07:00"
	defaultListLimit = 50
	maxListLimit     = 1000
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTx) SaveOrder(ctx context.Context, order *Order) error {
	return saveOrderWithQuerier(ctx, t.tx, order)
}

func (t *sqliteTx) GetOrder(ctx context.Context, id string) (*Order, error) {
	return getOrderWithQuerier(ctx, t.tx, id)
}

// Order operations

// SaveOrder archives an order with its lines and transcript in one transaction.
// An empty ID is filled with a new UUID.
func (s *SQLiteStorage) SaveOrder(ctx context.Context, order *Order) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := tx.SaveOrder(ctx, order); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	return nil
}

// saveOrderWithQuerier is the internal implementation that uses a querier
func saveOrderWithQuerier(ctx context.Context, q querier, order *Order) error {
	if order == nil {
		return fmt.Errorf("%w: nil order", ErrInvalidOrder)
	}
	if order.SessionID == "" {
		return fmt.Errorf("%w: session id is required", ErrInvalidOrder)
	}
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO orders (id, session_id, total, completed, created_at) VALUES (?, ?, ?, ?, ?)`,
		order.ID, order.SessionID, order.Total.String(), order.Completed, order.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Lines {
		line := &order.Lines[i]
		if line.Seq == 0 {
			line.Seq = i + 1
		}
		_, err := q.ExecContext(ctx,
			`INSERT INTO order_lines (order_id, seq, item, quantity, price) VALUES (?, ?, ?, ?, ?)`,
			order.ID, line.Seq, line.Item, line.Quantity, line.Price.String())
		if err != nil {
			return fmt.Errorf("failed to insert order line %d: %w", line.Seq, err)
		}
	}

	for i := range order.Turns {
		turn := &order.Turns[i]
		if turn.Seq == 0 {
			turn.Seq = i + 1
		}
		_, err := q.ExecContext(ctx,
			`INSERT INTO order_turns (order_id, seq, role, content) VALUES (?, ?, ?, ?)`,
			order.ID, turn.Seq, turn.Role, turn.Content)
		if err != nil {
			return fmt.Errorf("failed to insert order turn %d: %w", turn.Seq, err)
		}
	}

	return nil
}

func (s *SQLiteStorage) GetOrder(ctx context.Context, id string) (*Order, error) {
	return getOrderWithQuerier(ctx, s.db, id)
}

// getOrderWithQuerier loads an order with lines and turns
func getOrderWithQuerier(ctx context.Context, q querier, id string) (*Order, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, session_id, total, completed, created_at FROM orders WHERE id = ?`, id)
	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if order.Lines, err = listLines(ctx, q, order.ID); err != nil {
		return nil, err
	}
	if order.Turns, err = listTurns(ctx, q, order.ID); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders returns the most recent orders with their lines, newest first
func (s *SQLiteStorage) ListOrders(ctx context.Context, limit int) ([]*Order, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.listOrders(ctx,
		`SELECT id, session_id, total, completed, created_at FROM orders ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
}

// ListOrdersBySession returns every order archived for a session, oldest first
func (s *SQLiteStorage) ListOrdersBySession(ctx context.Context, sessionID string) ([]*Order, error) {
	return s.listOrders(ctx,
		`SELECT id, session_id, total, completed, created_at FROM orders WHERE session_id = ? ORDER BY created_at, rowid`, sessionID)
}

func (s *SQLiteStorage) listOrders(ctx context.Context, query string, args ...interface{}) ([]*Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	var orders []*Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	// Close before issuing more queries; the pool has a single connection.
	_ = rows.Close()

	for _, order := range orders {
		if order.Lines, err = listLines(ctx, s.db, order.ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// GetStatus returns archive statistics
func (s *SQLiteStorage) GetStatus(ctx context.Context) (*Status, error) {
	status := &Status{
		Revenue:   decimal.Zero,
		BuildMode: BuildMode,
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders").Scan(&status.OrdersCount); err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM order_lines").Scan(&status.LinesCount); err != nil {
		return nil, fmt.Errorf("failed to count order lines: %w", err)
	}

	// Totals are decimal strings; sum them in Go to avoid float rounding in SQLite.
	rows, err := s.db.QueryContext(ctx, "SELECT total, created_at FROM orders")
	if err != nil {
		return nil, fmt.Errorf("failed to read totals: %w", err)
	}
	for rows.Next() {
		var total, createdAt string
		if err := rows.Scan(&total, &createdAt); err != nil {
			_ = rows.Close()
			return nil, err
		}
		d, err := decimal.NewFromString(total)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("invalid stored total %q: %w", total, err)
		}
		status.Revenue = status.Revenue.Add(d)
		if t, err := time.Parse(timeLayout, createdAt); err == nil && t.After(status.LastOrderAt) {
			status.LastOrderAt = t
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	version, err := SchemaVersion(ctx, s.db)
	if err != nil {
		return nil, err
	}
	status.SchemaVersion = version

	return status, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var order Order
	var total, createdAt string
	if err := row.Scan(&order.ID, &order.SessionID, &total, &order.Completed, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if order.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("invalid stored total %q: %w", total, err)
	}
	if order.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("invalid stored timestamp %q: %w", createdAt, err)
	}
	return &order, nil
}

func listLines(ctx context.Context, q querier, orderID string) ([]OrderLine, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT seq, item, quantity, price FROM order_lines WHERE order_id = ? ORDER BY seq`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order lines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var lines []OrderLine
	for rows.Next() {
		var line OrderLine
		var price string
		if err := rows.Scan(&line.Seq, &line.Item, &line.Quantity, &price); err != nil {
			return nil, err
		}
		if line.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("invalid stored price %q: %w", price, err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func listTurns(ctx context.Context, q querier, orderID string) ([]Turn, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT seq, role, content FROM order_turns WHERE order_id = ? ORDER BY seq`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order turns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var turns []Turn
	for rows.Next() {
		var turn Turn
		if err := rows.Scan(&turn.Seq, &turn.Role, &turn.Content); err != nil {
			return nil, err
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}
