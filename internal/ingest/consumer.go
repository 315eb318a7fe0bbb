package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dawitk/fleettrack/internal/alarm"
	"github.com/dawitk/fleettrack/internal/models"
	"github.com/dawitk/fleettrack/internal/queue"
	"github.com/dawitk/fleettrack/internal/repository"
)

// PositionWriter 持久化消费者需要的最小存储接口
type PositionWriter interface {
	Create(ctx context.Context, pos *models.Position) error
}

// LimitReader 限速检查需要的最小存储接口
type LimitReader interface {
	GetActive(ctx context.Context, vehicleID int64) (*models.SpeedLimit, error)
}

// Broadcaster 实时位置推送
type Broadcaster interface {
	BroadcastPosition(pos *models.Position)
}

// Consumer 队列消费者：单协程从队列阻塞弹出样本并落库，
// 把存储 I/O 和网络线程解耦。落库后顺带做限速检查和实时推送。
type Consumer struct {
	logger    *zap.Logger
	queue     *queue.Queue
	positions PositionWriter
	limits    LimitReader
	notifier  *alarm.Notifier
	hub       Broadcaster
	popWait   time.Duration
}

// NewConsumer 创建消费者。hub 可以为 nil（不做实时推送）。
func NewConsumer(
	logger *zap.Logger,
	q *queue.Queue,
	positions PositionWriter,
	limits LimitReader,
	notifier *alarm.Notifier,
	hub Broadcaster,
	popWait time.Duration,
) *Consumer {
	return &Consumer{
		logger:    logger,
		queue:     q,
		positions: positions,
		limits:    limits,
		notifier:  notifier,
		hub:       hub,
		popWait:   popWait,
	}
}

// Run 消费循环。弹出带超时，每轮都有机会检查 ctx 退出。
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("Queue consumer started")

	for {
		if ctx.Err() != nil {
			return nil
		}

		packet, err := c.queue.Pop(ctx, c.popWait)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Failed to pop packet", zap.Error(err))
			continue
		}
		if packet == nil {
			continue
		}

		c.persist(ctx, packet)
	}
}

// persist 落库一条样本。存储失败只记日志丢样本（尽力而为，不重试）。
func (c *Consumer) persist(ctx context.Context, packet *models.Packet) {
	ts, err := time.Parse(time.RFC3339Nano, packet.Timestamp)
	if err != nil {
		ts = time.Now().UTC()
	}

	pos := &models.Position{
		VehicleID: packet.VehicleID,
		Timestamp: ts,
		Latitude:  packet.Lat,
		Longitude: packet.Lon,
		SpeedKmh:  packet.Speed,
	}

	if err := c.positions.Create(ctx, pos); err != nil {
		c.logger.Error("Failed to persist position",
			zap.Int64("vehicle_id", packet.VehicleID),
			zap.Error(err))
		return
	}

	if c.hub != nil {
		c.hub.BroadcastPosition(pos)
	}

	c.checkSpeedLimit(ctx, pos)
}

// checkSpeedLimit 样本超过当前生效限速时触发超速告警
func (c *Consumer) checkSpeedLimit(ctx context.Context, pos *models.Position) {
	limit, err := c.limits.GetActive(ctx, pos.VehicleID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			c.logger.Error("Failed to read speed limit", zap.Error(err))
		}
		return
	}

	if pos.SpeedKmh > limit.LimitKmh {
		c.notifier.Notify(ctx, pos.VehicleID, alarm.TypeSpeedViolation,
			fmt.Sprintf("speed %.1f km/h exceeds limit %.1f km/h", pos.SpeedKmh, limit.LimitKmh))
	}
}
