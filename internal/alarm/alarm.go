package alarm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dawitk/fleettrack/internal/models"
)

// 告警类型
const (
	TypeSpeedViolation       = "speed_violation"
	TypeExcessiveIdling      = "excessive_idling"
	TypeUnauthorizedMovement = "unauthorized_movement"
	TypeGeofenceViolation    = "geofence_violation"
	TypeMaintenanceDue       = "maintenance_due"
	TypeEmergency            = "emergency"
)

type classification struct {
	Severity string
	Category string
}

// 告警类型 → 级别/分类
var alarmTypes = map[string]classification{
	TypeSpeedViolation:       {Severity: "warning", Category: "safety"},
	TypeExcessiveIdling:      {Severity: "info", Category: "efficiency"},
	TypeUnauthorizedMovement: {Severity: "critical", Category: "security"},
	TypeGeofenceViolation:    {Severity: "warning", Category: "compliance"},
	TypeMaintenanceDue:       {Severity: "info", Category: "maintenance"},
	TypeEmergency:            {Severity: "critical", Category: "emergency"},
}

// AlarmStore 告警落库接口
type AlarmStore interface {
	Create(ctx context.Context, a *models.Alarm) error
}

// Notifier 告警通知钩子：按类型定级并落库。
// 告警的展示和处置流程在别的系统里，这里只负责记录。
type Notifier struct {
	logger *zap.Logger
	store  AlarmStore
}

// NewNotifier 创建告警通知器
func NewNotifier(logger *zap.Logger, store AlarmStore) *Notifier {
	return &Notifier{logger: logger, store: store}
}

// Notify 记录一条告警。未知类型落为 info/general。
func (n *Notifier) Notify(ctx context.Context, vehicleID int64, alarmType, message string) {
	class, ok := alarmTypes[alarmType]
	if !ok {
		class = classification{Severity: "info", Category: "general"}
	}

	a := &models.Alarm{
		VehicleID: vehicleID,
		AlarmType: alarmType,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Severity:  class.Severity,
		Category:  class.Category,
	}

	n.logger.Warn("Alarm raised",
		zap.Int64("vehicle_id", vehicleID),
		zap.String("type", alarmType),
		zap.String("severity", class.Severity),
		zap.String("message", message))

	if err := n.store.Create(ctx, a); err != nil {
		n.logger.Error("Failed to store alarm", zap.Error(err))
	}
}
