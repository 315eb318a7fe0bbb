package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dawitk/fleettrack/internal/models"
)

// PositionRepository 位置数据仓库
type PositionRepository struct {
	db *DB
}

// NewPositionRepository 创建位置仓库
func NewPositionRepository(db *DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// Create 追加位置记录
func (r *PositionRepository) Create(ctx context.Context, pos *models.Position) error {
	query := `
		INSERT INTO gps_data (vehicle_id, timestamp, latitude, longitude, speed)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.Pool.QueryRow(ctx, query,
		pos.VehicleID,
		pos.Timestamp,
		pos.Latitude,
		pos.Longitude,
		pos.SpeedKmh,
	).Scan(&pos.ID)

	if err != nil {
		return fmt.Errorf("insert position: %w", err)
	}
	return nil
}

// ListByVehicle 按时间窗口获取车辆位置序列（时间升序，同刻按插入顺序）
// 分段算法只需要带坐标的样本，这里直接过滤掉坐标为空的记录。
func (r *PositionRepository) ListByVehicle(ctx context.Context, vehicleID int64, start, end *time.Time) ([]*models.Position, error) {
	query := `
		SELECT id, vehicle_id, timestamp, latitude, longitude, speed
		FROM gps_data
		WHERE vehicle_id = $1
		  AND latitude IS NOT NULL AND longitude IS NOT NULL
		  AND ($2::timestamptz IS NULL OR timestamp >= $2)
		  AND ($3::timestamptz IS NULL OR timestamp <= $3)
		ORDER BY timestamp, id
	`
	rows, err := r.db.Pool.Query(ctx, query, vehicleID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		pos := &models.Position{}
		err := rows.Scan(
			&pos.ID,
			&pos.VehicleID,
			&pos.Timestamp,
			&pos.Latitude,
			&pos.Longitude,
			&pos.SpeedKmh,
		)
		if err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		positions = append(positions, pos)
	}

	return positions, nil
}

// GetLatestByVehicle 获取车辆最新位置
func (r *PositionRepository) GetLatestByVehicle(ctx context.Context, vehicleID int64) (*models.Position, error) {
	query := `
		SELECT id, vehicle_id, timestamp, latitude, longitude, speed
		FROM gps_data WHERE vehicle_id = $1 ORDER BY timestamp DESC, id DESC LIMIT 1
	`
	pos := &models.Position{}
	err := r.db.Pool.QueryRow(ctx, query, vehicleID).Scan(
		&pos.ID,
		&pos.VehicleID,
		&pos.Timestamp,
		&pos.Latitude,
		&pos.Longitude,
		&pos.SpeedKmh,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get latest position: %w", err)
	}
	return pos, nil
}

// ListLatest 获取每辆车的最新位置（仪表盘轮询用）
func (r *PositionRepository) ListLatest(ctx context.Context) ([]*models.Position, error) {
	query := `
		SELECT DISTINCT ON (vehicle_id) id, vehicle_id, timestamp, latitude, longitude, speed
		FROM gps_data ORDER BY vehicle_id, timestamp DESC, id DESC
	`
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list latest positions: %w", err)
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		pos := &models.Position{}
		err := rows.Scan(
			&pos.ID,
			&pos.VehicleID,
			&pos.Timestamp,
			&pos.Latitude,
			&pos.Longitude,
			&pos.SpeedKmh,
		)
		if err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		positions = append(positions, pos)
	}

	return positions, nil
}
