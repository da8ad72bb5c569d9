package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/skalarhq/orders-service/internal/orders/domain"
)

//go:embed schema.sql
var schema string

// orderColumns is the scan order used by scanOrder. Amounts travel as text to
// keep the NUMERIC <-> decimal mapping explicit.
const orderColumns = `id, total_amount::text, total_items, status, paid, paid_at, payment_reference, created_at, updated_at`

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

func (r *Repository) Create(ctx context.Context, o domain.Order) (domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Order{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = tx.QueryRow(ctx, `INSERT INTO orders (id, total_amount, total_items, status, paid)
			VALUES ($1,$2,$3,$4,$5)
			RETURNING created_at, updated_at`,
		o.ID, o.TotalAmount.String(), o.TotalItems, o.Status, o.Paid).
		Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return domain.Order{}, err
	}

	batch := &pgx.Batch{}
	for _, item := range o.Items {
		batch.Queue(`INSERT INTO order_items (order_id, product_id, quantity, price) VALUES ($1,$2,$3,$4)`,
			o.ID, item.ProductID, item.Quantity, item.Price.String())
	}
	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return domain.Order{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (domain.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, fmt.Errorf("order %s: %w", id, domain.ErrOrderNotFound)
		}
		return domain.Order{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT product_id, quantity, price::text FROM order_items WHERE order_id=$1 ORDER BY id`, id)
	if err != nil {
		return domain.Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var item domain.OrderItem
		var price string
		if err := rows.Scan(&item.ProductID, &item.Quantity, &price); err != nil {
			return domain.Order{}, err
		}
		if item.Price, err = decimal.NewFromString(price); err != nil {
			return domain.Order{}, err
		}
		o.Items = append(o.Items, item)
	}
	return o, rows.Err()
}

func (r *Repository) FindMany(ctx context.Context, status *domain.OrderStatus, limit, offset int) ([]domain.Order, int64, error) {
	var (
		total int64
		rows  pgx.Rows
		err   error
	)
	if status == nil {
		if err = r.pool.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&total); err != nil {
			return nil, 0, err
		}
		rows, err = r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, limit, offset)
	} else {
		if err = r.pool.QueryRow(ctx, `SELECT count(*) FROM orders WHERE status=$1`, *status).Scan(&total); err != nil {
			return nil, 0, err
		}
		rows, err = r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE status=$1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`, *status, limit, offset)
	}
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error) {
	row := r.pool.QueryRow(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1 RETURNING `+orderColumns, id, status)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, fmt.Errorf("order %s: %w", id, domain.ErrOrderNotFound)
	}
	return o, err
}

// MarkPaid is the idempotent PAID transition: the conditional update and the
// receipt insert commit together, and a redelivered event matches zero rows
// and leaves the existing receipt untouched.
func (r *Repository) MarkPaid(ctx context.Context, id, paymentReference, receiptURL string, paidAt time.Time) (domain.Order, bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Order{}, false, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx, `UPDATE orders
			SET status=$2, paid=TRUE, paid_at=$3, payment_reference=$4, updated_at=now()
			WHERE id=$1 AND status <> $2
			RETURNING `+orderColumns,
		id, domain.StatusPaid, paidAt, paymentReference)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Missing order or already PAID; look to tell the two apart.
		row = tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
		if o, err = scanOrder(row); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.Order{}, false, fmt.Errorf("order %s: %w", id, domain.ErrOrderNotFound)
			}
			return domain.Order{}, false, err
		}
		return o, false, tx.Commit(ctx)
	}
	if err != nil {
		return domain.Order{}, false, err
	}

	_, err = tx.Exec(ctx, `INSERT INTO order_receipts (order_id, receipt_url) VALUES ($1,$2)
			ON CONFLICT (order_id) DO NOTHING`, id, receiptURL)
	if err != nil {
		return domain.Order{}, false, err
	}
	if err = tx.Commit(ctx); err != nil {
		return domain.Order{}, false, err
	}
	return o, true, nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o      domain.Order
		amount string
		ref    *string
	)
	err := row.Scan(&o.ID, &amount, &o.TotalItems, &o.Status, &o.Paid, &o.PaidAt, &ref, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return domain.Order{}, err
	}
	if o.TotalAmount, err = decimal.NewFromString(amount); err != nil {
		return domain.Order{}, err
	}
	if ref != nil {
		o.PaymentReference = *ref
	}
	return o, nil
}
