package ingest

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/dawitk/fleettrack/internal/models"
)

// VehicleLookup 身份解析需要的最小存储接口
type VehicleLookup interface {
	GetByIMEI(ctx context.Context, imei string) (*models.Vehicle, error)
}

// Resolver 设备身份解析器。老款固件上报数字车辆 ID，新款上报硬件 IMEI，
// 两种都要认。
type Resolver struct {
	logger   *zap.Logger
	vehicles VehicleLookup
}

// NewResolver 创建身份解析器
func NewResolver(logger *zap.Logger, vehicles VehicleLookup) *Resolver {
	return &Resolver{logger: logger, vehicles: vehicles}
}

// Resolve 把标识符解析为车辆 ID。正整数直接当车辆 ID 放行
// （存在性由存储层把关，这里不查库）；其余按 IMEI 查表。
// 查不到的样本丢弃，只记 warning，摄取继续。
func (r *Resolver) Resolve(ctx context.Context, identifier string) (int64, bool) {
	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil && id > 0 {
		return id, true
	}

	v, err := r.vehicles.GetByIMEI(ctx, identifier)
	if err != nil {
		r.logger.Warn("Unknown device identifier, dropping sample",
			zap.String("identifier", identifier))
		return 0, false
	}
	return v.ID, true
}
