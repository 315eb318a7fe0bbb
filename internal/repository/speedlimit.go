package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dawitk/fleettrack/internal/models"
)

// SpeedLimitRepository 限速仓库
type SpeedLimitRepository struct {
	db *DB
}

// NewSpeedLimitRepository 创建限速仓库
func NewSpeedLimitRepository(db *DB) *SpeedLimitRepository {
	return &SpeedLimitRepository{db: db}
}

// Set 设置新限速：先停用该车所有 active 记录再插入新记录，
// 整体放在一个事务里，避免并发写入时出现两条 active。
func (r *SpeedLimitRepository) Set(ctx context.Context, limit *models.SpeedLimit) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin speed limit tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE speed_limits SET is_active = false WHERE vehicle_id = $1 AND is_active`,
		limit.VehicleID,
	)
	if err != nil {
		return fmt.Errorf("deactivate speed limits: %w", err)
	}

	limit.IsActive = true
	err = tx.QueryRow(ctx,
		`INSERT INTO speed_limits (vehicle_id, speed_limit_kmh, set_by, set_at, is_active)
		 VALUES ($1, $2, $3, $4, true) RETURNING id`,
		limit.VehicleID,
		limit.LimitKmh,
		limit.SetBy,
		limit.SetAt,
	).Scan(&limit.ID)
	if err != nil {
		return fmt.Errorf("insert speed limit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit speed limit tx: %w", err)
	}
	return nil
}

// GetActive 获取车辆当前生效的限速（最近设置的 active 记录）
func (r *SpeedLimitRepository) GetActive(ctx context.Context, vehicleID int64) (*models.SpeedLimit, error) {
	query := `
		SELECT id, vehicle_id, speed_limit_kmh, set_by, set_at, is_active
		FROM speed_limits
		WHERE vehicle_id = $1 AND is_active
		ORDER BY set_at DESC, id DESC LIMIT 1
	`
	limit := &models.SpeedLimit{}
	err := r.db.Pool.QueryRow(ctx, query, vehicleID).Scan(
		&limit.ID,
		&limit.VehicleID,
		&limit.LimitKmh,
		&limit.SetBy,
		&limit.SetAt,
		&limit.IsActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get active speed limit: %w", err)
	}
	return limit, nil
}
