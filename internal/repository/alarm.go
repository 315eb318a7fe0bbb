package repository

import (
	"context"
	"fmt"

	"github.com/dawitk/fleettrack/internal/models"
)

// AlarmRepository 告警仓库
type AlarmRepository struct {
	db *DB
}

// NewAlarmRepository 创建告警仓库
func NewAlarmRepository(db *DB) *AlarmRepository {
	return &AlarmRepository{db: db}
}

// Create 写入告警记录
func (r *AlarmRepository) Create(ctx context.Context, a *models.Alarm) error {
	query := `
		INSERT INTO alarm_logs (vehicle_id, alarm_type, message, timestamp, severity, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.Pool.QueryRow(ctx, query,
		a.VehicleID,
		a.AlarmType,
		a.Message,
		a.Timestamp,
		a.Severity,
		a.Category,
	).Scan(&a.ID)

	if err != nil {
		return fmt.Errorf("insert alarm: %w", err)
	}
	return nil
}

// ListByVehicle 获取车辆告警记录（新到旧）
func (r *AlarmRepository) ListByVehicle(ctx context.Context, vehicleID int64, limit int) ([]*models.Alarm, error) {
	query := `
		SELECT id, vehicle_id, alarm_type, message, timestamp, severity, category
		FROM alarm_logs WHERE vehicle_id = $1 ORDER BY timestamp DESC LIMIT $2
	`
	rows, err := r.db.Pool.Query(ctx, query, vehicleID, limit)
	if err != nil {
		return nil, fmt.Errorf("list alarms: %w", err)
	}
	defer rows.Close()

	var alarms []*models.Alarm
	for rows.Next() {
		a := &models.Alarm{}
		err := rows.Scan(
			&a.ID,
			&a.VehicleID,
			&a.AlarmType,
			&a.Message,
			&a.Timestamp,
			&a.Severity,
			&a.Category,
		)
		if err != nil {
			return nil, fmt.Errorf("scan alarm: %w", err)
		}
		alarms = append(alarms, a)
	}

	return alarms, nil
}
