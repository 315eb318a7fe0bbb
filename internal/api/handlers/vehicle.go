package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dawitk/fleettrack/internal/models"
	"github.com/dawitk/fleettrack/internal/repository"
)

// ListVehicles 获取车辆列表
func (h *Handler) ListVehicles(c *gin.Context) {
	vehicles, err := h.vehicleRepo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list vehicles", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list vehicles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"vehicles": vehicles})
}

// GetVehicle 获取车辆详情
func (h *Handler) GetVehicle(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}

	vehicle, err := h.vehicleRepo.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get vehicle", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get vehicle"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": vehicle})
}

// CreateVehicle 创建车辆
func (h *Handler) CreateVehicle(c *gin.Context) {
	var req struct {
		IMEI         string `json:"imei" binding:"required"`
		LicensePlate string `json:"license_plate"`
		Make         string `json:"make"`
		Model        string `json:"model"`
		Year         int    `json:"year"`
		VehicleType  string `json:"vehicle_type"`
		DriverName   string `json:"driver_name"`
		Department   string `json:"department"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	vehicle := &models.Vehicle{
		IMEI:         req.IMEI,
		LicensePlate: req.LicensePlate,
		Make:         req.Make,
		Model:        req.Model,
		Year:         req.Year,
		VehicleType:  req.VehicleType,
		DriverName:   req.DriverName,
		Department:   req.Department,
	}

	if err := h.vehicleRepo.Create(c.Request.Context(), vehicle); err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Vehicle with this IMEI already exists"})
			return
		}
		h.logger.Error("Failed to create vehicle", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create vehicle"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": vehicle})
}

// ListAlarms 获取车辆告警记录
func (h *Handler) ListAlarms(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}

	alarms, err := h.alarmRepo.ListByVehicle(c.Request.Context(), id, 100)
	if err != nil {
		h.logger.Error("Failed to list alarms", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list alarms"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"alarms": alarms})
}
