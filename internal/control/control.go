package control

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/dawitk/fleettrack/internal/models"
	"github.com/dawitk/fleettrack/internal/repository"
)

// 指令生命周期事件
const (
	EventExecute = "execute"
	EventFail    = "fail"
)

// CommandStore 指令持久化接口
type CommandStore interface {
	Create(ctx context.Context, cmd *models.EngineCommand) error
	Complete(ctx context.Context, id int64, status, response string, executedAt time.Time) error
	GetByID(ctx context.Context, id int64) (*models.EngineCommand, error)
	GetLatestByVehicle(ctx context.Context, vehicleID int64) (*models.EngineCommand, error)
}

// LimitStore 限速持久化接口
type LimitStore interface {
	Set(ctx context.Context, limit *models.SpeedLimit) error
	GetActive(ctx context.Context, vehicleID int64) (*models.SpeedLimit, error)
}

// Controller 引擎指令与限速控制器。
// 设备往返是模拟的：下发路径立即返回 pending 记录，
// 状态迁移由独立的定时任务在固定延迟后完成，不阻塞调用方。
type Controller struct {
	logger    *zap.Logger
	commands  CommandStore
	limits    LimitStore
	execDelay time.Duration
}

// NewController 创建控制器
func NewController(logger *zap.Logger, commands CommandStore, limits LimitStore, execDelay time.Duration) *Controller {
	return &Controller{
		logger:    logger,
		commands:  commands,
		limits:    limits,
		execDelay: execDelay,
	}
}

// newCommandFSM 单条指令的状态机：pending → executed / failed，终态不再迁移
func newCommandFSM() *fsm.FSM {
	return fsm.NewFSM(
		models.CommandStatusPending,
		fsm.Events{
			{Name: EventExecute, Src: []string{models.CommandStatusPending}, Dst: models.CommandStatusExecuted},
			{Name: EventFail, Src: []string{models.CommandStatusPending}, Dst: models.CommandStatusFailed},
		},
		fsm.Callbacks{},
	)
}

// IssueCommand 下发引擎指令，立即返回 pending 记录
func (c *Controller) IssueCommand(ctx context.Context, vehicleID int64, command string) (*models.EngineCommand, error) {
	if command != models.CommandCut && command != models.CommandStart {
		return nil, fmt.Errorf("unknown command: %s", command)
	}

	cmd := &models.EngineCommand{
		VehicleID: vehicleID,
		Command:   command,
		IssuedAt:  time.Now().UTC(),
		Status:    models.CommandStatusPending,
	}
	if err := c.commands.Create(ctx, cmd); err != nil {
		return nil, err
	}

	c.logger.Info("Engine command issued",
		zap.Int64("command_id", cmd.ID),
		zap.Int64("vehicle_id", vehicleID),
		zap.String("command", command))

	machine := newCommandFSM()
	id := cmd.ID
	time.AfterFunc(c.execDelay, func() {
		c.execute(id, command, machine)
	})

	return cmd, nil
}

// execute 模拟设备响应：固定延迟后把指令迁移到 executed
func (c *Controller) execute(id int64, command string, machine *fsm.FSM) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := machine.Event(ctx, EventExecute); err != nil {
		c.logger.Error("Command transition rejected",
			zap.Int64("command_id", id),
			zap.Error(err))
		return
	}

	response := fmt.Sprintf("engine %s acknowledged", command)
	executedAt := time.Now().UTC()

	if err := c.commands.Complete(ctx, id, machine.Current(), response, executedAt); err != nil {
		c.logger.Error("Failed to complete command",
			zap.Int64("command_id", id),
			zap.Error(err))
		return
	}

	c.logger.Info("Engine command executed",
		zap.Int64("command_id", id),
		zap.String("command", command))
}

// GetCommand 查询单条指令
func (c *Controller) GetCommand(ctx context.Context, id int64) (*models.EngineCommand, error) {
	return c.commands.GetByID(ctx, id)
}

// EngineStatus 车辆当前引擎状态的人类可读描述。
// 只由最近一条指令决定。
func (c *Controller) EngineStatus(ctx context.Context, vehicleID int64) (string, error) {
	cmd, err := c.commands.GetLatestByVehicle(ctx, vehicleID)
	if errors.Is(err, repository.ErrNotFound) {
		return "unknown", nil
	}
	if err != nil {
		return "", err
	}
	return StatusText(cmd), nil
}

// StatusText 指令 → 状态描述
func StatusText(cmd *models.EngineCommand) string {
	switch {
	case cmd.Command == models.CommandCut && cmd.Status == models.CommandStatusExecuted:
		return "engine is off"
	case cmd.Command == models.CommandStart && cmd.Status == models.CommandStatusExecuted:
		return "engine is on"
	case cmd.Status == models.CommandStatusPending:
		return fmt.Sprintf("processing %s", cmd.Command)
	case cmd.Status == models.CommandStatusFailed:
		return fmt.Sprintf("failed (%s)", cmd.Command)
	default:
		return "unknown"
	}
}

// SetSpeedLimit 设置新限速，停用旧记录（最后写入者生效）
func (c *Controller) SetSpeedLimit(ctx context.Context, vehicleID int64, limitKmh float64, setBy string) (*models.SpeedLimit, error) {
	if limitKmh <= 0 {
		return nil, fmt.Errorf("invalid speed limit: %.1f", limitKmh)
	}

	limit := &models.SpeedLimit{
		VehicleID: vehicleID,
		LimitKmh:  limitKmh,
		SetBy:     setBy,
		SetAt:     time.Now().UTC(),
	}
	if err := c.limits.Set(ctx, limit); err != nil {
		return nil, err
	}

	c.logger.Info("Speed limit set",
		zap.Int64("vehicle_id", vehicleID),
		zap.Float64("limit_kmh", limitKmh),
		zap.String("set_by", setBy))

	return limit, nil
}

// GetSpeedLimit 查询当前生效限速；未设置返回 repository.ErrNotFound
func (c *Controller) GetSpeedLimit(ctx context.Context, vehicleID int64) (*models.SpeedLimit, error) {
	return c.limits.GetActive(ctx, vehicleID)
}
