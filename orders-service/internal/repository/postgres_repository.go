package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/orders-service/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const orderColumns = `o.id, o.order_date, o.order_desc, o.order_fee, o.status, o.cart_id, c.user_id, o.created_at, o.updated_at`

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db, now: time.Now}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var status string
	if err := row.Scan(
		&o.ID,
		&o.OrderDate,
		&o.Description,
		&o.Fee,
		&status,
		&o.Cart.ID,
		&o.Cart.UserID,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	return &o, nil
}

func (r *Repository) ListOrders(ctx context.Context, f ListFilter) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + `
	          FROM orders o JOIN carts c ON c.id = o.cart_id`
	var args []any
	if f.UserID > 0 {
		args = append(args, f.UserID)
		query += ` WHERE c.user_id = $1`
	}
	query += ` ORDER BY o.id`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

func (r *Repository) GetOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	return r.getOrder(ctx, r.db, id)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *Repository) getOrder(ctx context.Context, q querier, id int64) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + `
	          FROM orders o JOIN carts c ON c.id = o.cart_id WHERE o.id = $1`

	o, err := scanOrder(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	return o, nil
}

// CreateOrder inserts the order and its OrderCreated outbox event in one
// transaction. order.ID, CreatedAt and UpdatedAt are filled on success.
func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO orders (order_date, order_desc, order_fee, status, cart_id, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	          RETURNING id, created_at, updated_at`

	err = tx.QueryRowContext(ctx, query,
		order.OrderDate,
		order.Description,
		order.Fee,
		string(order.Status),
		order.Cart.ID,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrCartNotFound
		}
		return fmt.Errorf("insert order: %w", err)
	}

	if err := r.insertEvent(ctx, tx, domain.OrderEvent{
		EventType: domain.EventOrderCreated,
		OrderID:   order.ID,
		CartID:    order.Cart.ID,
		UserID:    order.Cart.UserID,
		Status:    order.Status,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

func (r *Repository) UpdateOrder(ctx context.Context, order *domain.Order) error {
	query := `UPDATE orders
	          SET order_date = $2, order_desc = $3, order_fee = $4, cart_id = $5, updated_at = NOW()
	          WHERE id = $1
	          RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		order.ID,
		order.OrderDate,
		order.Description,
		order.Fee,
		order.Cart.ID,
	).Scan(&order.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrCartNotFound
		}
		return fmt.Errorf("update order: %w", err)
	}
	return nil
}

// UpdateOrderStatus moves the order from one status to another only if it is
// still in from. A missing order yields ErrOrderNotFound, a concurrent change
// yields ErrStatusChanged.
func (r *Repository) UpdateOrderStatus(ctx context.Context, id int64, from, to domain.OrderStatus) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		id, string(from), string(to))
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	order, err := r.getOrder(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrStatusChanged
	}

	if from != to {
		if err := r.insertEvent(ctx, tx, domain.OrderEvent{
			EventType:      domain.EventOrderStatusChanged,
			OrderID:        id,
			CartID:         order.Cart.ID,
			UserID:         order.Cart.UserID,
			Status:         to,
			PreviousStatus: from,
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order status: %w", err)
	}
	return order, nil
}

func (r *Repository) DeleteOrder(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if n == 0 {
		return ErrOrderNotFound
	}

	if err := r.insertEvent(ctx, tx, domain.OrderEvent{
		EventType: domain.EventOrderDeleted,
		OrderID:   id,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

func (r *Repository) insertEvent(ctx context.Context, tx *sql.Tx, ev domain.OrderEvent) error {
	ev.EventID = uuid.NewString()
	ev.OccurredAt = r.now().UTC()

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO order_outbox (event_id, aggregate_id, event_type, payload) VALUES ($1, $2, $3, $4)`,
		ev.EventID, strconv.FormatInt(ev.OrderID, 10), ev.EventType, payload)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func (r *Repository) ListCarts(ctx context.Context) ([]*domain.Cart, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, user_id FROM carts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query carts: %w", err)
	}
	defer rows.Close()

	carts := make([]*domain.Cart, 0)
	for rows.Next() {
		var c domain.Cart
		if err := rows.Scan(&c.ID, &c.UserID); err != nil {
			return nil, fmt.Errorf("scan cart row: %w", err)
		}
		carts = append(carts, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return carts, nil
}

func (r *Repository) GetCart(ctx context.Context, id int64) (*domain.Cart, error) {
	var c domain.Cart
	err := r.db.QueryRowContext(ctx, `SELECT id, user_id FROM carts WHERE id = $1`, id).Scan(&c.ID, &c.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}
	return &c, nil
}

// GetOrCreateCartForUser returns the user's cart, creating it on first use.
func (r *Repository) GetOrCreateCartForUser(ctx context.Context, userID int64) (*domain.Cart, error) {
	query := `INSERT INTO carts (user_id) VALUES ($1)
	          ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
	          RETURNING id, user_id`

	var c domain.Cart
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&c.ID, &c.UserID); err != nil {
		return nil, fmt.Errorf("upsert cart: %w", err)
	}
	return &c, nil
}

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `SELECT id, event_id, aggregate_id, event_type, payload, created_at
	          FROM order_outbox WHERE processed_at IS NULL ORDER BY id LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		var payload []byte
		if err := rows.Scan(&e.ID, &e.EventID, &e.AggregateID, &e.EventType, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		e.Payload = payload
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE order_outbox SET processed_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark event processed: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
