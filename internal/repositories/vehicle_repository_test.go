package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos_tracker_backend/internal/models"
)

func TestVehicleStatements(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewVehicleRepository(db)
	vehicleMake := "Toyota"

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO vehicles`)).
		WithArgs(int64(7), "T 123 ABC", "Toyota", nil, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	id, err := repo.CreateVehicle(context.Background(), db, &models.Vehicle{CustomerID: 7, PlateNumber: "T 123 ABC", Make: &vehicleMake})
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)

	created := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM vehicles WHERE customer_id = $1 ORDER BY id`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "plate_number", "make", "model", "vehicle_type", "created_at"}).
			AddRow(int64(3), int64(7), "T 123 ABC", "Toyota", nil, nil, created))
	vehicles, err := repo.GetVehiclesByCustomer(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, "Toyota", *vehicles[0].Make)
	assert.Nil(t, vehicles[0].Model)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE vehicles SET plate_number = $1`)).
		WithArgs("T 999", nil, nil, nil, int64(30)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.UpdateVehicle(context.Background(), db, &models.Vehicle{ID: 30, PlateNumber: "T 999"})
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM vehicles WHERE id = $1`)).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.DeleteVehicle(context.Background(), db, 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}
