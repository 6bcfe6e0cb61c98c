package repo

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aq2208/storefront-checkout/internal/entity"
	"github.com/aq2208/storefront-checkout/internal/usecase"
)

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newMockRepo(t *testing.T) (*MySQLOrderRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	r := NewMySQLOrderRepo(db)
	r.now = func() time.Time { return fixedNow }
	return r, mock
}

func sampleOrder() *entity.Order {
	d := decimal.RequireFromString
	return &entity.Order{
		ID:     "ORD-1",
		UserID: "u1",
		Items: []entity.LineItem{
			{ProductID: "5", Name: "Chair", UnitPrice: d("549.99"), Quantity: 2},
		},
		ShippingAddress: entity.Address{FirstName: "Asha", City: "Bengaluru", Country: "India"},
		PaymentMethod:   entity.PaymentUPI,
		Summary: entity.OrderSummary{
			Subtotal: d("1099.98"), ShippingFee: d("500"), EstimatedTax: d("88"),
			LoyaltyDiscount: d("55"), PromoDiscount: d("100"), Total: d("1532.98"),
		},
		PromoCode:         "SAVE100",
		CreatedAt:         fixedNow,
		EstimatedDelivery: fixedNow.AddDate(0, 0, 5),
		Status:            entity.StatusConfirmed,
	}
}

var selectCols = []string{"id", "user_id", "status", "payment_method", "promo_code", "subtotal", "shipping_fee",
	"estimated_tax", "loyalty_discount", "promo_discount", "total", "items_json", "address_json", "created_at", "estimated_delivery"}

func addOrderRow(rows *sqlmock.Rows, id, userID string, created time.Time) *sqlmock.Rows {
	return rows.AddRow(id, userID, "confirmed", "upi", "SAVE100",
		"1099.98", "500.00", "88.00", "55.00", "100.00", "1532.98",
		[]byte(`[{"productId":"5","name":"Chair","unitPrice":"549.99","originalUnitPrice":null,"quantity":2}]`),
		[]byte(`{"firstName":"Asha","city":"Bengaluru","country":"India"}`),
		created, created.AddDate(0, 0, 5))
}

func TestRepositoryCreate_Success(t *testing.T) {
	repo, mock := newMockRepo(t)
	o := sampleOrder()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO orders (` + orderColumns + `,updated_at)`)).
		WithArgs(o.ID, o.UserID, "confirmed", "upi", "SAVE100",
			"1099.98", "500", "88", "55", "100", "1532.98",
			sqlmock.AnyArg(), sqlmock.AnyArg(), o.CreatedAt, o.EstimatedDelivery, fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), o))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreate_Error(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("INSERT INTO orders").WillReturnError(errors.New("duplicate entry"))

	err := repo.Create(context.Background(), sampleOrder())
	assert.EqualError(t, err, "duplicate entry")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + orderColumns + ` FROM orders WHERE id=?`)).
		WithArgs("ORD-1").
		WillReturnRows(addOrderRow(sqlmock.NewRows(selectCols), "ORD-1", "u1", fixedNow))

	o, err := repo.GetByID(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusConfirmed, o.Status)
	assert.Equal(t, entity.PaymentUPI, o.PaymentMethod)
	assert.Equal(t, "1532.98", o.Summary.Total.StringFixed(2))
	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.Equal(t, "Bengaluru", o.ShippingAddress.City)
	assert.Equal(t, fixedNow.AddDate(0, 0, 5), o.EstimatedDelivery)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT").WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, usecase.ErrOrderNotFound)
}

func TestRepositoryGetByID_CorruptItems(t *testing.T) {
	repo, mock := newMockRepo(t)
	rows := sqlmock.NewRows(selectCols).AddRow("ORD-1", "u1", "confirmed", "upi", "",
		"1", "0", "0", "0", "0", "1", []byte(`{bad`), []byte(`{}`), fixedNow, fixedNow)
	mock.ExpectQuery("SELECT").WithArgs("ORD-1").WillReturnRows(rows)

	_, err := repo.GetByID(context.Background(), "ORD-1")
	assert.ErrorContains(t, err, "decode items of ORD-1")
}

func TestRepositoryListByUser(t *testing.T) {
	repo, mock := newMockRepo(t)
	rows := sqlmock.NewRows(selectCols)
	addOrderRow(rows, "ORD-2", "u1", fixedNow.Add(time.Hour))
	addOrderRow(rows, "ORD-1", "u1", fixedNow)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE user_id=? ORDER BY created_at DESC`)).
		WithArgs("u1").
		WillReturnRows(rows)

	got, err := repo.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ORD-2", got[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryUpdateStatusIf(t *testing.T) {
	repo, mock := newMockRepo(t)
	q := regexp.QuoteMeta(`UPDATE orders`)
	mock.ExpectExec(q).WithArgs("delivered", fixedNow, "ORD-1", "confirmed").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("delivered", fixedNow, "ORD-1", "confirmed").WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := repo.UpdateStatusIf(context.Background(), "ORD-1", entity.StatusConfirmed, entity.StatusDelivered)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.UpdateStatusIf(context.Background(), "ORD-1", entity.StatusConfirmed, entity.StatusDelivered)
	require.NoError(t, err)
	assert.False(t, changed)
	require.NoError(t, mock.ExpectationsWereMet())
}
