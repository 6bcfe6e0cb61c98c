package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aq2208/storefront-checkout/internal/entity"
	"github.com/aq2208/storefront-checkout/internal/usecase"
)

type MySQLOrderRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewMySQLOrderRepo(db *sql.DB) *MySQLOrderRepo {
	return &MySQLOrderRepo{db: db, now: time.Now}
}

const orderColumns = `id,user_id,status,payment_method,promo_code,subtotal,shipping_fee,estimated_tax,loyalty_discount,promo_discount,total,items_json,address_json,created_at,estimated_delivery`

func (r *MySQLOrderRepo) Create(ctx context.Context, o *entity.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	addr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("encode address: %w", err)
	}
	s := o.Summary
	_, err = r.db.ExecContext(ctx, `
INSERT INTO orders (`+orderColumns+`,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
`, o.ID, o.UserID, string(o.Status), string(o.PaymentMethod), o.PromoCode,
		s.Subtotal, s.ShippingFee, s.EstimatedTax, s.LoyaltyDiscount, s.PromoDiscount, s.Total,
		items, addr, o.CreatedAt.UTC(), o.EstimatedDelivery.UTC(), r.now().UTC())
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*entity.Order, error) {
	var (
		o                 entity.Order
		status, method    string
		itemsRaw, addrRaw []byte
	)
	s := &o.Summary
	if err := row.Scan(&o.ID, &o.UserID, &status, &method, &o.PromoCode,
		&s.Subtotal, &s.ShippingFee, &s.EstimatedTax, &s.LoyaltyDiscount, &s.PromoDiscount, &s.Total,
		&itemsRaw, &addrRaw, &o.CreatedAt, &o.EstimatedDelivery); err != nil {
		return nil, err
	}
	o.Status = entity.Status(status)
	o.PaymentMethod = entity.PaymentMethod(method)
	if err := json.Unmarshal(itemsRaw, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items of %s: %w", o.ID, err)
	}
	if err := json.Unmarshal(addrRaw, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decode address of %s: %w", o.ID, err)
	}
	return &o, nil
}

func (r *MySQLOrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=?`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usecase.ErrOrderNotFound
	}
	return o, err
}

// ListByUser returns the user's orders, newest first.
func (r *MySQLOrderRepo) ListByUser(ctx context.Context, userID string) ([]entity.Order, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id=? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *MySQLOrderRepo) UpdateStatusIf(ctx context.Context, id string, from, to entity.Status) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
        UPDATE orders
        SET status = ?, updated_at = ?
        WHERE id = ? AND status = ?`,
		string(to), r.now().UTC(), id, string(from),
	)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	// rows == 0 → nothing matched (either not found or status mismatch)
	return rows > 0, nil
}

var _ usecase.OrderRepo = (*MySQLOrderRepo)(nil)
