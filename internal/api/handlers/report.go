package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dawitk/fleettrack/internal/models"
	"github.com/dawitk/fleettrack/internal/segment"
)

// ListLatestPositions 各车最新位置（仪表盘轮询接口）
func (h *Handler) ListLatestPositions(c *gin.Context) {
	positions, err := h.posRepo.ListLatest(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list latest positions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list positions"})
		return
	}

	c.JSON(http.StatusOK, positions)
}

// ListPositions 车辆位置序列（可选时间窗口）
func (h *Handler) ListPositions(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}
	start, end, ok := timeWindow(c)
	if !ok {
		return
	}

	positions, err := h.posRepo.ListByVehicle(c.Request.Context(), id, start, end)
	if err != nil {
		h.logger.Error("Failed to list positions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list positions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": positions})
}

// ListTrips 行程报表：每次请求从位置序列现算，无车或无样本返回空列表
func (h *Handler) ListTrips(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}
	start, end, ok := timeWindow(c)
	if !ok {
		return
	}

	positions, err := h.posRepo.ListByVehicle(c.Request.Context(), id, start, end)
	if err != nil {
		h.logger.Error("Failed to list positions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute trips"})
		return
	}

	trips := segment.DetectTrips(positions)
	if trips == nil {
		trips = []*models.Trip{}
	}

	c.JSON(http.StatusOK, gin.H{"trips": trips})
}

// ListParkingEvents 停车/怠速报表
func (h *Handler) ListParkingEvents(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}
	start, end, ok := timeWindow(c)
	if !ok {
		return
	}

	positions, err := h.posRepo.ListByVehicle(c.Request.Context(), id, start, end)
	if err != nil {
		h.logger.Error("Failed to list positions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute parking events"})
		return
	}

	events := segment.DetectParkingEvents(positions)
	if events == nil {
		events = []*models.ParkingEvent{}
	}

	c.JSON(http.StatusOK, gin.H{"parking_events": events})
}

// ListDailyMileage 按日里程报表
func (h *Handler) ListDailyMileage(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}
	start, end, ok := timeWindow(c)
	if !ok {
		return
	}

	positions, err := h.posRepo.ListByVehicle(c.Request.Context(), id, start, end)
	if err != nil {
		h.logger.Error("Failed to list positions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute mileage"})
		return
	}

	mileage := segment.DailyMileage(positions)
	if mileage == nil {
		mileage = []*models.DailyMileage{}
	}

	c.JSON(http.StatusOK, gin.H{"mileage": mileage})
}
