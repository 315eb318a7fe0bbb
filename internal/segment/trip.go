package segment

import (
	"github.com/dawitk/fleettrack/internal/models"
)

// DetectTrips 对一辆车按时间排好序、已过滤空坐标的位置序列做单遍扫描，
// 切出所有行程。行程 = 速度持续高于 1.0 km/h 的极大区间，
// 不足 5 分钟的移动区间整体丢弃，不并入相邻行程。
//
// 距离统计覆盖进入第一个移动样本的那一段（存在前驱时）以及
// 进入终止低速样本的那一段；平均/最高速度只取移动样本。
func DetectTrips(positions []*models.Position) []*models.Trip {
	var trips []*models.Trip

	i := 0
	for i < len(positions) {
		if !moving(positions[i]) {
			i++
			continue
		}

		// 行程从第一个移动样本开始
		start := i
		distanceKm := 0.0
		maxSpeed := 0.0
		speedSum := 0.0

		if start > 0 {
			distanceKm += legKm(positions[start-1], positions[start])
		}

		j := start
		for j < len(positions) && moving(positions[j]) {
			if j > start {
				distanceKm += legKm(positions[j-1], positions[j])
			}
			if positions[j].SpeedKmh > maxSpeed {
				maxSpeed = positions[j].SpeedKmh
			}
			speedSum += positions[j].SpeedKmh
			j++
		}

		// 结束时刻：第一个低于阈值的样本，序列走完则取最后一个移动样本
		endIdx := j - 1
		if j < len(positions) {
			distanceKm += legKm(positions[j-1], positions[j])
			endIdx = j
		}

		startPos := positions[start]
		endPos := positions[endIdx]
		durationMin := int(endPos.Timestamp.Sub(startPos.Timestamp).Minutes())

		if durationMin >= minEventMinutes {
			movingCount := float64(j - start)
			trips = append(trips, &models.Trip{
				VehicleID:      startPos.VehicleID,
				StartTime:      startPos.Timestamp,
				EndTime:        endPos.Timestamp,
				StartLatitude:  startPos.Latitude,
				StartLongitude: startPos.Longitude,
				EndLatitude:    endPos.Latitude,
				EndLongitude:   endPos.Longitude,
				DistanceKm:     round2(distanceKm),
				DistanceMiles:  round2(distanceKm * kmToMiles),
				AvgSpeedKmh:    round2(speedSum / movingCount),
				MaxSpeedKmh:    round2(maxSpeed),
				DurationMin:    durationMin,
			})
		}

		// 从终止样本继续扫描（它属于下一个静止区间的开头）
		i = j
	}

	return trips
}

func moving(p *models.Position) bool {
	return p.SpeedKmh > movingThresholdKmh
}

func legKm(a, b *models.Position) float64 {
	return haversineKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}
