package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dawitk/fleettrack/internal/models"
)

// CommandRepository 引擎指令仓库
type CommandRepository struct {
	db *DB
}

// NewCommandRepository 创建指令仓库
func NewCommandRepository(db *DB) *CommandRepository {
	return &CommandRepository{db: db}
}

// Create 插入 pending 指令
func (r *CommandRepository) Create(ctx context.Context, cmd *models.EngineCommand) error {
	query := `
		INSERT INTO engine_control (vehicle_id, command, timestamp, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.Pool.QueryRow(ctx, query,
		cmd.VehicleID,
		cmd.Command,
		cmd.IssuedAt,
		cmd.Status,
	).Scan(&cmd.ID)

	if err != nil {
		return fmt.Errorf("insert command: %w", err)
	}
	return nil
}

// Complete 将指令写入终态（executed 或 failed），只允许从 pending 迁移一次
func (r *CommandRepository) Complete(ctx context.Context, id int64, status, response string, executedAt time.Time) error {
	query := `
		UPDATE engine_control SET status = $1, response = $2, executed_at = $3
		WHERE id = $4 AND status = 'pending'
	`
	tag, err := r.db.Pool.Exec(ctx, query, status, response, executedAt, id)
	if err != nil {
		return fmt.Errorf("complete command: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("complete command %d: not pending", id)
	}
	return nil
}

// GetByID 获取指令
func (r *CommandRepository) GetByID(ctx context.Context, id int64) (*models.EngineCommand, error) {
	query := `
		SELECT id, vehicle_id, command, timestamp, status, response, executed_at
		FROM engine_control WHERE id = $1
	`
	return r.scanOne(r.db.Pool.QueryRow(ctx, query, id))
}

// GetLatestByVehicle 获取车辆最近一条指令（决定当前引擎状态）
func (r *CommandRepository) GetLatestByVehicle(ctx context.Context, vehicleID int64) (*models.EngineCommand, error) {
	query := `
		SELECT id, vehicle_id, command, timestamp, status, response, executed_at
		FROM engine_control WHERE vehicle_id = $1 ORDER BY timestamp DESC, id DESC LIMIT 1
	`
	return r.scanOne(r.db.Pool.QueryRow(ctx, query, vehicleID))
}

func (r *CommandRepository) scanOne(row pgx.Row) (*models.EngineCommand, error) {
	cmd := &models.EngineCommand{}
	err := row.Scan(
		&cmd.ID,
		&cmd.VehicleID,
		&cmd.Command,
		&cmd.IssuedAt,
		&cmd.Status,
		&cmd.Response,
		&cmd.ExecutedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get command: %w", err)
	}
	return cmd, nil
}
