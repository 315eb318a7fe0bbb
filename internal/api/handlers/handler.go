package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dawitk/fleettrack/internal/control"
	"github.com/dawitk/fleettrack/internal/queue"
	"github.com/dawitk/fleettrack/internal/repository"
	"github.com/dawitk/fleettrack/pkg/ws"
)

// Handler HTTP 处理器
type Handler struct {
	logger      *zap.Logger
	vehicleRepo *repository.VehicleRepository
	posRepo     *repository.PositionRepository
	alarmRepo   *repository.AlarmRepository
	controller  *control.Controller
	queue       *queue.Queue
	wsHub       *ws.Hub
	upgrader    websocket.Upgrader
}

// NewHandler 创建处理器
func NewHandler(
	logger *zap.Logger,
	vehicleRepo *repository.VehicleRepository,
	posRepo *repository.PositionRepository,
	alarmRepo *repository.AlarmRepository,
	controller *control.Controller,
	q *queue.Queue,
	wsHub *ws.Hub,
) *Handler {
	return &Handler{
		logger:      logger,
		vehicleRepo: vehicleRepo,
		posRepo:     posRepo,
		alarmRepo:   alarmRepo,
		controller:  controller,
		queue:       q,
		wsHub:       wsHub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 开发环境允许所有来源
			},
		},
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		// 车辆
		api.GET("/vehicles", h.ListVehicles)
		api.POST("/vehicles", h.CreateVehicle)
		api.GET("/vehicles/:id", h.GetVehicle)

		// 实时位置
		api.GET("/latest", h.ListLatestPositions)
		api.GET("/vehicles/:id/positions", h.ListPositions)

		// 派生报表
		api.GET("/vehicles/:id/trips", h.ListTrips)
		api.GET("/vehicles/:id/parking", h.ListParkingEvents)
		api.GET("/vehicles/:id/mileage", h.ListDailyMileage)

		// 引擎控制与限速
		api.POST("/vehicles/:id/engine", h.IssueEngineCommand)
		api.GET("/vehicles/:id/engine", h.GetEngineStatus)
		api.POST("/vehicles/:id/speed_limit", h.SetSpeedLimit)
		api.GET("/vehicles/:id/speed_limit", h.GetSpeedLimit)

		// 告警
		api.GET("/vehicles/:id/alarms", h.ListAlarms)
	}

	// WebSocket
	r.GET("/ws", h.HandleWebSocket)

	// 健康检查
	r.GET("/health", h.HealthCheck)
}

// HandleWebSocket WebSocket 处理
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	client.Register()

	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"queue_depth": h.queue.Len(c.Request.Context()),
		"ws_clients":  h.wsHub.ClientCount(),
	})
}

// vehicleID 解析路径中的车辆 ID
func vehicleID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle ID"})
		return 0, false
	}
	return id, true
}

// timeWindow 解析可选的 start/end 查询参数（RFC3339）
func timeWindow(c *gin.Context) (*time.Time, *time.Time, bool) {
	var start, end *time.Time

	if s := c.Query("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start time"})
			return nil, nil, false
		}
		start = &t
	}
	if s := c.Query("end"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end time"})
			return nil, nil, false
		}
		end = &t
	}

	return start, end, true
}
