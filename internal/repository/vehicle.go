package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dawitk/fleettrack/internal/models"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("not found")

// VehicleRepository 车辆数据仓库
type VehicleRepository struct {
	db *DB
}

// NewVehicleRepository 创建车辆仓库
func NewVehicleRepository(db *DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// Create 创建车辆
func (r *VehicleRepository) Create(ctx context.Context, v *models.Vehicle) error {
	query := `
		INSERT INTO vehicles (imei, license_plate, make, model, year, vehicle_type, driver_name, department, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	now := time.Now().UTC()
	if v.Status == "" {
		v.Status = "active"
	}
	err := r.db.Pool.QueryRow(ctx, query,
		v.IMEI,
		v.LicensePlate,
		v.Make,
		v.Model,
		v.Year,
		v.VehicleType,
		v.DriverName,
		v.Department,
		v.Status,
		now,
	).Scan(&v.ID)

	if err != nil {
		return fmt.Errorf("insert vehicle: %w", err)
	}

	v.CreatedAt = now
	return nil
}

// GetByIMEI 通过 IMEI 获取车辆
func (r *VehicleRepository) GetByIMEI(ctx context.Context, imei string) (*models.Vehicle, error) {
	return r.getOne(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE imei = $1`, imei)
}

// GetByID 通过 ID 获取车辆
func (r *VehicleRepository) GetByID(ctx context.Context, id int64) (*models.Vehicle, error) {
	return r.getOne(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id)
}

const vehicleColumns = `id, imei, license_plate, make, model, year, vehicle_type, driver_name, department, status, created_at`

func (r *VehicleRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.Vehicle, error) {
	v := &models.Vehicle{}
	err := r.db.Pool.QueryRow(ctx, query, arg).Scan(
		&v.ID,
		&v.IMEI,
		&v.LicensePlate,
		&v.Make,
		&v.Model,
		&v.Year,
		&v.VehicleType,
		&v.DriverName,
		&v.Department,
		&v.Status,
		&v.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get vehicle: %w", err)
	}
	return v, nil
}

// List 获取所有车辆
func (r *VehicleRepository) List(ctx context.Context) ([]*models.Vehicle, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+vehicleColumns+` FROM vehicles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []*models.Vehicle
	for rows.Next() {
		v := &models.Vehicle{}
		err := rows.Scan(
			&v.ID,
			&v.IMEI,
			&v.LicensePlate,
			&v.Make,
			&v.Model,
			&v.Year,
			&v.VehicleType,
			&v.DriverName,
			&v.Department,
			&v.Status,
			&v.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}

	return vehicles, nil
}

// Update 更新车辆可变字段（字段列表固定，不接受调用方自拼列名）
func (r *VehicleRepository) Update(ctx context.Context, v *models.Vehicle) error {
	query := `
		UPDATE vehicles SET license_plate = $1, make = $2, model = $3, year = $4, vehicle_type = $5, driver_name = $6, department = $7, status = $8
		WHERE id = $9
	`
	_, err := r.db.Pool.Exec(ctx, query,
		v.LicensePlate,
		v.Make,
		v.Model,
		v.Year,
		v.VehicleType,
		v.DriverName,
		v.Department,
		v.Status,
		v.ID,
	)
	if err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}
	return nil
}
