package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nopgate/twocheckout/provider"
)

// Store persists orders and their notes
type Store struct {
	db *sql.DB
}

// NewStore creates an order store backed by the given database
func NewStore(db *sql.DB) (*Store, error) {
	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize order schema: %w", err)
	}

	return store, nil
}

// initSchema creates the necessary tables
func (s *Store) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		custom_order_number TEXT NOT NULL UNIQUE,
		total REAL NOT NULL,
		currency_code TEXT NOT NULL DEFAULT 'USD',
		payment_status TEXT NOT NULL DEFAULT 'pending',
		cancelled BOOLEAN NOT NULL DEFAULT 0,
		billing_data TEXT NOT NULL DEFAULT '{}',
		items_data TEXT NOT NULL DEFAULT '[]',
		paid_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_custom_order_number ON orders(custom_order_number);

	CREATE TABLE IF NOT EXISTS order_notes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id INTEGER NOT NULL,
		note TEXT NOT NULL,
		display_to_customer BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(order_id) REFERENCES orders(id)
	);

	CREATE INDEX IF NOT EXISTS idx_order_notes_order_id ON order_notes(order_id);
	`

	_, err := s.db.Exec(query)
	return err
}

// Create inserts a new order. When no custom order number is provided the
// numeric id is used, matching how stores assign order numbers by default.
func (s *Store) Create(ctx context.Context, o *Order) error {
	billingJSON, err := json.Marshal(o.Billing)
	if err != nil {
		return fmt.Errorf("failed to marshal billing address: %w", err)
	}

	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	if o.PaymentStatus == "" {
		o.PaymentStatus = provider.StatusPending
	}

	customNumber := o.CustomOrderNumber
	placeholder := false
	if customNumber == "" {
		// Temporary unique value; replaced with the row id below
		customNumber = fmt.Sprintf("pending-%d", time.Now().UnixNano())
		placeholder = true
	}

	query := `
	INSERT INTO orders (custom_order_number, total, currency_code, payment_status, cancelled, billing_data, items_data)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		customNumber, o.Total, o.CurrencyCode, string(o.PaymentStatus), o.Cancelled, string(billingJSON), string(itemsJSON))
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read order id: %w", err)
	}
	o.ID = id

	if placeholder {
		o.CustomOrderNumber = strconv.FormatInt(id, 10)
		_, err = s.db.ExecContext(ctx, "UPDATE orders SET custom_order_number = ? WHERE id = ?", o.CustomOrderNumber, id)
		if err != nil {
			return fmt.Errorf("failed to assign custom order number: %w", err)
		}
	} else {
		o.CustomOrderNumber = customNumber
	}

	o.CreatedAt = time.Now().UTC()
	return nil
}

// ByID returns the order with the given id
func (s *Store) ByID(ctx context.Context, id int64) (*Order, error) {
	return s.scanOrder(s.db.QueryRowContext(ctx,
		"SELECT id, custom_order_number, total, currency_code, payment_status, cancelled, billing_data, items_data, paid_at, created_at FROM orders WHERE id = ?", id))
}

// ByCustomOrderNumber returns the order with the given custom order number
func (s *Store) ByCustomOrderNumber(ctx context.Context, customOrderNumber string) (*Order, error) {
	return s.scanOrder(s.db.QueryRowContext(ctx,
		"SELECT id, custom_order_number, total, currency_code, payment_status, cancelled, billing_data, items_data, paid_at, created_at FROM orders WHERE custom_order_number = ?", customOrderNumber))
}

func (s *Store) scanOrder(row *sql.Row) (*Order, error) {
	var o Order
	var billingJSON, itemsJSON, status string
	var paidAt sql.NullTime

	err := row.Scan(&o.ID, &o.CustomOrderNumber, &o.Total, &o.CurrencyCode, &status, &o.Cancelled, &billingJSON, &itemsJSON, &paidAt, &o.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	o.PaymentStatus = provider.PaymentStatus(status)
	if paidAt.Valid {
		o.PaidAt = &paidAt.Time
	}

	if err := json.Unmarshal([]byte(billingJSON), &o.Billing); err != nil {
		return nil, fmt.Errorf("failed to unmarshal billing address: %w", err)
	}
	if err := json.Unmarshal([]byte(itemsJSON), &o.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order items: %w", err)
	}

	return &o, nil
}

// AddNote appends a note to an order. Notes are never updated or deleted.
func (s *Store) AddNote(ctx context.Context, note *Note) error {
	query := `
	INSERT INTO order_notes (order_id, note, display_to_customer)
	VALUES (?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query, note.OrderID, note.Note, note.DisplayToCustomer)
	if err != nil {
		return fmt.Errorf("failed to add order note: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read note id: %w", err)
	}

	note.ID = id
	note.CreatedAt = time.Now().UTC()
	return nil
}

// Notes returns all notes of an order, oldest first
func (s *Store) Notes(ctx context.Context, orderID int64) ([]Note, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, order_id, note, display_to_customer, created_at FROM order_notes WHERE order_id = ? ORDER BY id", orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.OrderID, &n.Note, &n.DisplayToCustomer, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order note: %w", err)
		}
		notes = append(notes, n)
	}

	return notes, rows.Err()
}

// markPaid flips the payment status of an order to paid
func (s *Store) markPaid(ctx context.Context, orderID int64, paidAt time.Time) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE orders SET payment_status = ?, paid_at = ? WHERE id = ?", string(provider.StatusPaid), paidAt, orderID)
	if err != nil {
		return fmt.Errorf("failed to mark order %d as paid: %w", orderID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
