package segment

import (
	"github.com/dawitk/fleettrack/internal/models"
)

// DetectParkingEvents 与行程检测对称：静止区间 = 连续不移动样本的极大序列
// （移动判定与行程共用同一个 1.0 km/h 阈值，两者恰好把序列划分成
// 互不重叠的区间）。不足 5 分钟的静止区间丢弃；30 分钟以内算怠速，
// 达到 30 分钟算停车。事件位置取区间第一个样本的坐标。
func DetectParkingEvents(positions []*models.Position) []*models.ParkingEvent {
	var events []*models.ParkingEvent

	i := 0
	for i < len(positions) {
		if moving(positions[i]) {
			i++
			continue
		}

		start := i
		j := start
		for j < len(positions) && !moving(positions[j]) {
			j++
		}

		// 结束时刻：第一个恢复移动的样本，序列走完则取最后一个静止样本
		endIdx := j - 1
		if j < len(positions) {
			endIdx = j
		}

		startPos := positions[start]
		endPos := positions[endIdx]
		durationMin := int(endPos.Timestamp.Sub(startPos.Timestamp).Minutes())

		if durationMin >= minEventMinutes {
			kind := models.ParkingKindIdling
			if durationMin >= parkedMinutes {
				kind = models.ParkingKindParked
			}

			events = append(events, &models.ParkingEvent{
				VehicleID:   startPos.VehicleID,
				StartTime:   startPos.Timestamp,
				EndTime:     endPos.Timestamp,
				Latitude:    startPos.Latitude,
				Longitude:   startPos.Longitude,
				DurationMin: durationMin,
				Kind:        kind,
			})
		}

		i = j
	}

	return events
}
