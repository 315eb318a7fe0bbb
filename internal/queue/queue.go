package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dawitk/fleettrack/internal/models"
)

// Queue Redis FIFO 队列封装：网络线程 LPUSH，持久化消费者 BRPOP。
// 启动时 Redis 不可达则进入降级模式：Push 变成记日志的空操作，
// 宁可丢样本也不阻塞网络线程。
type Queue struct {
	logger *zap.Logger
	client *redis.Client // 降级模式下为 nil
	name   string
}

// New 连接 Redis 并创建队列。连接失败不返回错误，只降级。
func New(ctx context.Context, logger *zap.Logger, addr string, db int, name string) *Queue {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, queue pushes will be dropped",
			zap.String("addr", addr),
			zap.Error(err))
		_ = client.Close()
		return &Queue{logger: logger, name: name}
	}

	logger.Info("Connected to Redis", zap.String("addr", addr), zap.String("queue", name))
	return &Queue{logger: logger, client: client, name: name}
}

// Available 队列后端是否可用
func (q *Queue) Available() bool {
	return q.client != nil
}

// Push 序列化样本并入队。后端不可用或入队失败时返回 false（已记日志）。
func (q *Queue) Push(ctx context.Context, packet *models.Packet) bool {
	if q.client == nil {
		q.logger.Debug("Queue unavailable, dropping packet", zap.String("imei", packet.IMEI))
		return false
	}

	data, err := json.Marshal(packet)
	if err != nil {
		q.logger.Error("Failed to marshal packet", zap.Error(err))
		return false
	}

	if err := q.client.LPush(ctx, q.name, data).Err(); err != nil {
		q.logger.Error("Failed to push packet", zap.Error(err))
		return false
	}
	return true
}

// Pop 阻塞出队，最多等待 wait；队列为空或后端不可用返回 (nil, nil)。
func (q *Queue) Pop(ctx context.Context, wait time.Duration) (*models.Packet, error) {
	if q.client == nil {
		// 降级模式下模拟空队列的等待节奏，让消费循环能检查退出
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
			return nil, nil
		}
	}

	result, err := q.client.BRPop(ctx, wait, q.name).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("brpop %s: %w", q.name, err)
	}

	// BRPOP 返回 [key, value]
	packet := &models.Packet{}
	if err := json.Unmarshal([]byte(result[1]), packet); err != nil {
		return nil, fmt.Errorf("unmarshal packet: %w", err)
	}
	return packet, nil
}

// Len 当前队列深度
func (q *Queue) Len(ctx context.Context) int64 {
	if q.client == nil {
		return 0
	}
	n, err := q.client.LLen(ctx, q.name).Result()
	if err != nil {
		q.logger.Error("Failed to read queue length", zap.Error(err))
		return 0
	}
	return n
}

// Close 关闭 Redis 连接
func (q *Queue) Close() error {
	if q.client == nil {
		return nil
	}
	return q.client.Close()
}
