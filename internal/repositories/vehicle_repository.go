package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pos_tracker_backend/internal/models"
)

// VehicleRepository defines the interface for vehicle-related database operations.
type VehicleRepository interface {
	CreateVehicle(ctx context.Context, exec SQLExecutor, vehicle *models.Vehicle) (int64, error)
	GetVehicleByID(ctx context.Context, id int64) (*models.Vehicle, error)
	GetVehiclesByCustomer(ctx context.Context, customerID int64) ([]models.Vehicle, error)
	UpdateVehicle(ctx context.Context, exec SQLExecutor, vehicle *models.Vehicle) error
	DeleteVehicle(ctx context.Context, exec SQLExecutor, id int64) error
}

type vehicleRepository struct {
	db *sql.DB
}

func NewVehicleRepository(db *sql.DB) VehicleRepository {
	return &vehicleRepository{db: db}
}

func scanVehicle(s scanner) (*models.Vehicle, error) {
	v := &models.Vehicle{}
	if err := s.Scan(&v.ID, &v.CustomerID, &v.PlateNumber, &v.Make, &v.Model, &v.VehicleType, &v.CreatedAt); err != nil {
		return nil, err
	}
	return v, nil
}

func (r *vehicleRepository) CreateVehicle(ctx context.Context, exec SQLExecutor, vehicle *models.Vehicle) (int64, error) {
	query := `INSERT INTO vehicles (customer_id, plate_number, make, model, vehicle_type, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if vehicle.CreatedAt.IsZero() {
		vehicle.CreatedAt = time.Now()
	}
	err := exec.QueryRowContext(ctx, query,
		vehicle.CustomerID, vehicle.PlateNumber, vehicle.Make, vehicle.Model, vehicle.VehicleType, vehicle.CreatedAt,
	).Scan(&vehicle.ID)
	if err != nil {
		return 0, mapWriteError(err, "creating vehicle")
	}
	return vehicle.ID, nil
}

func (r *vehicleRepository) GetVehicleByID(ctx context.Context, id int64) (*models.Vehicle, error) {
	query := `SELECT id, customer_id, plate_number, make, model, vehicle_type, created_at FROM vehicles WHERE id = $1`
	v, err := scanVehicle(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapReadError(err, fmt.Sprintf("getting vehicle by ID %d", id))
	}
	return v, nil
}

func (r *vehicleRepository) GetVehiclesByCustomer(ctx context.Context, customerID int64) ([]models.Vehicle, error) {
	query := `SELECT id, customer_id, plate_number, make, model, vehicle_type, created_at
	          FROM vehicles WHERE customer_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying vehicles for customer %d: %v", ErrDatabaseError, customerID, err)
	}
	defer rows.Close()

	vehicles := []models.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning vehicle: %v", ErrDatabaseError, err)
		}
		vehicles = append(vehicles, *v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating vehicle rows: %v", ErrDatabaseError, err)
	}
	return vehicles, nil
}

func (r *vehicleRepository) UpdateVehicle(ctx context.Context, exec SQLExecutor, vehicle *models.Vehicle) error {
	result, err := exec.ExecContext(ctx,
		`UPDATE vehicles SET plate_number = $1, make = $2, model = $3, vehicle_type = $4 WHERE id = $5`,
		vehicle.PlateNumber, vehicle.Make, vehicle.Model, vehicle.VehicleType, vehicle.ID)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("updating vehicle ID %d", vehicle.ID))
	}
	return expectAffected(result, fmt.Sprintf("updating vehicle ID %d", vehicle.ID))
}

func (r *vehicleRepository) DeleteVehicle(ctx context.Context, exec SQLExecutor, id int64) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("deleting vehicle ID %d", id))
	}
	return expectAffected(result, fmt.Sprintf("deleting vehicle ID %d", id))
}
