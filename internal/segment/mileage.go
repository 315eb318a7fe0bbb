package segment

import (
	"sort"

	"github.com/dawitk/fleettrack/internal/models"
)

// DailyMileage 按样本时间戳的日历日期分桶累计里程。
// 只有当前样本速度高于 1.0 km/h 时，它与同日期前驱之间的那段距离
// 才计入当日（静止时的 GPS 抖动不应累积成里程）；每个日期桶的
// 第一个样本没有同桶前驱，不贡献距离，跨日期的相邻样本也不贡献。
func DailyMileage(positions []*models.Position) []*models.DailyMileage {
	if len(positions) == 0 {
		return nil
	}

	totals := make(map[string]float64)

	for i, pos := range positions {
		date := pos.Timestamp.Format("2006-01-02")
		if _, ok := totals[date]; !ok {
			totals[date] = 0
		}

		if i == 0 {
			continue
		}
		prev := positions[i-1]
		if prev.Timestamp.Format("2006-01-02") != date {
			continue
		}
		if pos.SpeedKmh > movingThresholdKmh {
			totals[date] += legKm(prev, pos)
		}
	}

	dates := make([]string, 0, len(totals))
	for date := range totals {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	result := make([]*models.DailyMileage, 0, len(dates))
	for _, date := range dates {
		result = append(result, &models.DailyMileage{
			VehicleID:     positions[0].VehicleID,
			Date:          date,
			DistanceMiles: round2(totals[date] * kmToMiles),
		})
	}

	return result
}
