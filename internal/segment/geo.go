package segment

import "math"

// 移动/静止判定阈值与事件最短时长
const (
	movingThresholdKmh = 1.0
	minEventMinutes    = 5
	parkedMinutes      = 30
)

const (
	earthRadiusKm = 6371.0
	kmToMiles     = 0.621371
)

// haversineKm 大圆距离（公里）
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// round2 保留两位小数
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
