package ingest

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dawitk/fleettrack/internal/models"
	"github.com/dawitk/fleettrack/internal/protocol"
	"github.com/dawitk/fleettrack/internal/queue"
)

// Listener GPS 设备 TCP 入口：每个连接一个 goroutine，
// 解码成功且身份可解析的样本入队交给持久化消费者。
type Listener struct {
	logger   *zap.Logger
	resolver *Resolver
	queue    *queue.Queue
	addr     string
}

// NewListener 创建 TCP 监听器
func NewListener(logger *zap.Logger, resolver *Resolver, q *queue.Queue, addr string) *Listener {
	return &Listener{
		logger:   logger,
		resolver: resolver,
		queue:    q,
		addr:     addr,
	}
}

// Run 启动监听循环，直到 ctx 取消
func (l *Listener) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", l.addr)
	if err != nil {
		return err
	}

	l.logger.Info("GPS listener started", zap.String("addr", l.addr))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})

	g.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				l.logger.Error("Accept failed", zap.Error(err))
				continue
			}
			go l.handleConn(ctx, conn)
		}
	})

	return g.Wait()
}

// handleConn 单连接工作循环。帧重组缓冲区只归本 goroutine 所有。
// 解码和身份解析的失败都在这里就地吸收，循环继续，连接不断开。
func (l *Listener) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	remote := conn.RemoteAddr().String()
	l.logger.Info("Device connected", zap.String("remote", remote))

	reassembler := protocol.NewReassembler()

	// 二进制帧解不出设备身份；记住本连接最近一次文本路径解析出的
	// 身份作为侧信道，连接上从未出现过身份则只能丢弃。
	var lastVehicleID int64
	var lastIMEI string

	buf := make([]byte, 1024)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			l.logger.Info("Device disconnected", zap.String("remote", remote))
			return
		}
		chunk := buf[:n]

		// 文本路径：对原始块独立解码（与二进制扫描并行，
		// 兼容混发两种格式的固件）
		for _, rec := range protocol.DecodeChunk(chunk) {
			id, ok := l.resolver.Resolve(ctx, rec.Identifier)
			if !ok {
				continue
			}
			lastVehicleID, lastIMEI = id, rec.Identifier
			l.enqueue(ctx, rec, rec.Identifier, id)
		}

		// 二进制路径：帧重组后解码
		for _, frame := range reassembler.Feed(chunk) {
			rec, ok := protocol.DecodeFrame(frame)
			if !ok {
				l.logger.Debug("Undecodable frame",
					zap.String("remote", remote),
					zap.Int("len", len(frame)))
				continue
			}
			if lastVehicleID == 0 {
				l.logger.Warn("Binary frame with no resolvable identity, dropping",
					zap.String("remote", remote))
				continue
			}
			l.enqueue(ctx, rec, lastIMEI, lastVehicleID)
		}
	}
}

// enqueue 构造队列消息并入队；入队失败（队列降级）只丢样本不报错
func (l *Listener) enqueue(ctx context.Context, rec *protocol.Record, imei string, vehicleID int64) {
	packet := &models.Packet{
		IMEI:      imei,
		VehicleID: vehicleID,
		Lat:       rec.Latitude,
		Lon:       rec.Longitude,
		Speed:     rec.SpeedKmh,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	l.queue.Push(ctx, packet)
}
