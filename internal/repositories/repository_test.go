package repositories

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos_tracker_backend/internal/models"
)

func TestWithinTxCommitsOnSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE customers SET total_visits`)).
		WithArgs(sqlmock.AnyArg(), int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewCustomerRepository(db)
	err = NewTxManager(db).WithinTx(context.Background(), func(exec SQLExecutor) error {
		return repo.RecordVisit(context.Background(), exec, 4, time.Now())
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err = NewTxManager(db).WithinTx(context.Background(), func(SQLExecutor) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCustomerDefaultsAndDuplicates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewCustomerRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO customers`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	c := &models.Customer{Code: "CUSTABCDEF12", FullName: "Jane Doe", Phone: "0712345678", CustomerType: models.CustomerTypePersonal}
	id, err := repo.CreateCustomer(context.Background(), db, c)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, models.CustomerStatusArrived, c.CurrentStatus)
	assert.NotNil(t, c.ArrivalTime)
	assert.False(t, c.RegistrationDate.IsZero())

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO customers`)).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key", Constraint: "customers_code_key"})
	_, err = repo.CreateCustomer(context.Background(), db, c)
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.Contains(t, err.Error(), "customers_code_key")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCustomerByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM customers WHERE id = $1`)).
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = NewCustomerRepository(db).GetCustomerByID(context.Background(), nil, 8)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMapWriteErrorForeignKey(t *testing.T) {
	err := mapWriteError(&pq.Error{Code: "23503", Message: "still referenced"}, "deleting brand")
	assert.ErrorIs(t, err, ErrForeignKeyViolation)

	err = mapWriteError(errors.New("conn reset"), "deleting brand")
	assert.ErrorIs(t, err, ErrDatabaseError)
	assert.Contains(t, err.Error(), "deleting brand")
}

func TestDashboardSummary(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dayStart := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`AS total_customers`)).
		WithArgs(dayStart).
		WillReturnRows(sqlmock.NewRows([]string{
			"total_customers", "customers_today", "orders_today", "active_orders",
			"completed_today", "low_stock_items", "inventory_value",
		}).AddRow(40, 3, 5, 7, 2, 4, 1250.5))
	mock.ExpectQuery(regexp.QuoteMeta(`GROUP BY status`)).
		WillReturnRows(sqlmock.NewRows([]string{"key", "count"}).AddRow("created", 4).AddRow("completed", 9))
	mock.ExpectQuery(regexp.QuoteMeta(`GROUP BY type`)).
		WillReturnRows(sqlmock.NewRows([]string{"key", "count"}).AddRow("sales", 13))

	summary, err := NewReportRepository(db).GetDashboardSummary(context.Background(), dayStart)
	require.NoError(t, err)
	assert.Equal(t, 40, summary.TotalCustomers)
	assert.Equal(t, 7, summary.ActiveOrders)
	assert.InDelta(t, 1250.5, summary.InventoryValue, 0.001)
	assert.Equal(t, []models.StatusCount{{Key: "created", Count: 4}, {Key: "completed", Count: 9}}, summary.OrdersByStatus)
	assert.Len(t, summary.OrdersByType, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
