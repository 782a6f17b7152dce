package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rl1809/my-basket/internal/core/domain"
	"github.com/rl1809/my-basket/internal/port"
)

var ErrOrderNotFound = errors.New("order not found")

const ordersSchema = `
CREATE TABLE IF NOT EXISTS orders (
	id                 VARCHAR(64)    NOT NULL PRIMARY KEY,
	user_id            VARCHAR(128)   NOT NULL,
	status             VARCHAR(32)    NOT NULL,
	total_amount       DECIMAL(12, 2) NOT NULL,
	items              JSON           NOT NULL,
	shipping_address   JSON           NOT NULL,
	billing_address    JSON           NOT NULL,
	payment_method     JSON           NOT NULL,
	tracking_number    VARCHAR(128)   NOT NULL DEFAULT '',
	estimated_delivery DATETIME(6)    NULL,
	actual_delivery    DATETIME(6)    NULL,
	order_date         DATETIME(6)    NOT NULL,
	created_at         DATETIME(6)    NOT NULL,
	updated_at         DATETIME(6)    NOT NULL,
	INDEX idx_orders_user_date (user_id, order_date)
)`

const orderColumns = `id, user_id, status, total_amount, items, shipping_address, billing_address,
	payment_method, tracking_number, estimated_delivery, actual_delivery, order_date, created_at, updated_at`

type MySQLOrderRepository struct {
	db *sql.DB
}

var _ port.OrderRepository = (*MySQLOrderRepository)(nil)

func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

// Migrate creates the orders table when it does not exist yet.
func (m *MySQLOrderRepository) Migrate(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, ordersSchema); err != nil {
		return fmt.Errorf("create orders table: %w", err)
	}
	return nil
}

func (m *MySQLOrderRepository) Create(ctx context.Context, order domain.Order) error {
	docs, err := encodeOrderDocs(order)
	if err != nil {
		return err
	}

	_, err = m.db.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.UserID, string(order.Status), order.TotalAmount,
		docs.items, docs.shipping, docs.billing, docs.payment,
		order.TrackingNumber, nullTime(order.EstimatedDelivery), nullTime(order.ActualDelivery),
		order.OrderDate, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (m *MySQLOrderRepository) Get(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	row := m.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders WHERE user_id = ? AND id = ?`, userID, orderID,
	)

	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	return order, nil
}

func (m *MySQLOrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders WHERE user_id = ?
		ORDER BY order_date, id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

func (m *MySQLOrderRepository) Update(ctx context.Context, order domain.Order) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE orders
		SET status = ?, tracking_number = ?, estimated_delivery = ?, actual_delivery = ?, updated_at = ?
		WHERE user_id = ? AND id = ?`,
		string(order.Status), order.TrackingNumber,
		nullTime(order.EstimatedDelivery), nullTime(order.ActualDelivery), order.UpdatedAt,
		order.UserID, order.ID,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (m *MySQLOrderRepository) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

type orderDocs struct {
	items, shipping, billing, payment []byte
}

func encodeOrderDocs(order domain.Order) (orderDocs, error) {
	var (
		docs orderDocs
		err  error
	)
	if docs.items, err = json.Marshal(order.Items); err != nil {
		return docs, fmt.Errorf("encode items: %w", err)
	}
	if docs.shipping, err = json.Marshal(order.ShippingAddress); err != nil {
		return docs, fmt.Errorf("encode shipping address: %w", err)
	}
	if docs.billing, err = json.Marshal(order.BillingAddress); err != nil {
		return docs, fmt.Errorf("encode billing address: %w", err)
	}
	if docs.payment, err = json.Marshal(order.PaymentMethod); err != nil {
		return docs, fmt.Errorf("encode payment method: %w", err)
	}
	return docs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order     domain.Order
		status    string
		docs      orderDocs
		estimated sql.NullTime
		actual    sql.NullTime
	)
	err := row.Scan(
		&order.ID, &order.UserID, &status, &order.TotalAmount,
		&docs.items, &docs.shipping, &docs.billing, &docs.payment,
		&order.TrackingNumber, &estimated, &actual,
		&order.OrderDate, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	order.Status = domain.OrderStatus(status)
	if err := json.Unmarshal(docs.items, &order.Items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if err := json.Unmarshal(docs.shipping, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decode shipping address: %w", err)
	}
	if err := json.Unmarshal(docs.billing, &order.BillingAddress); err != nil {
		return nil, fmt.Errorf("decode billing address: %w", err)
	}
	if err := json.Unmarshal(docs.payment, &order.PaymentMethod); err != nil {
		return nil, fmt.Errorf("decode payment method: %w", err)
	}
	if estimated.Valid {
		t := estimated.Time
		order.EstimatedDelivery = &t
	}
	if actual.Valid {
		t := actual.Time
		order.ActualDelivery = &t
	}
	return &order, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
