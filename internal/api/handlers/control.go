package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dawitk/fleettrack/internal/repository"
)

// IssueEngineCommand 下发引擎熄火/启动指令，立即返回 pending 记录
func (h *Handler) IssueEngineCommand(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}

	var req struct {
		Command string `json:"command" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	cmd, err := h.controller.IssueCommand(c.Request.Context(), id, req.Command)
	if err != nil {
		h.logger.Error("Failed to issue command", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"data": cmd})
}

// GetEngineStatus 查询车辆当前引擎状态
func (h *Handler) GetEngineStatus(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}

	status, err := h.controller.EngineStatus(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get engine status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get engine status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"vehicle_id": id, "status": status})
}

// SetSpeedLimit 设置车辆限速
func (h *Handler) SetSpeedLimit(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}

	var req struct {
		SpeedLimitKmh float64 `json:"speed_limit_kmh" binding:"required"`
		SetBy         string  `json:"set_by"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	limit, err := h.controller.SetSpeedLimit(c.Request.Context(), id, req.SpeedLimitKmh, req.SetBy)
	if err != nil {
		h.logger.Error("Failed to set speed limit", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": limit})
}

// GetSpeedLimit 查询当前生效限速
func (h *Handler) GetSpeedLimit(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}

	limit, err := h.controller.GetSpeedLimit(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusOK, gin.H{"vehicle_id": id, "speed_limit": nil, "message": "no limit set"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get speed limit", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get speed limit"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"vehicle_id": id, "speed_limit": limit})
}
