package models

import "time"

// Vehicle 车辆信息
type Vehicle struct {
	ID           int64     `json:"id" db:"id"`
	IMEI         string    `json:"imei" db:"imei"`
	LicensePlate string    `json:"license_plate" db:"license_plate"`
	Make         string    `json:"make" db:"make"`
	Model        string    `json:"model" db:"model"`
	Year         int       `json:"year" db:"year"`
	VehicleType  string    `json:"vehicle_type" db:"vehicle_type"`
	DriverName   string    `json:"driver_name" db:"driver_name"`
	Department   string    `json:"department" db:"department"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Position GPS 位置记录（gps_data 表，只追加不修改）
type Position struct {
	ID        int64     `json:"id" db:"id"`
	VehicleID int64     `json:"vehicle_id" db:"vehicle_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
	SpeedKmh  float64   `json:"speed" db:"speed"` // km/h
}

// Trip 行程（按需从位置序列计算，不落库）
type Trip struct {
	VehicleID      int64     `json:"vehicle_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	StartLatitude  float64   `json:"start_latitude"`
	StartLongitude float64   `json:"start_longitude"`
	EndLatitude    float64   `json:"end_latitude"`
	EndLongitude   float64   `json:"end_longitude"`
	DistanceKm     float64   `json:"distance_km"`
	DistanceMiles  float64   `json:"distance_miles"`
	AvgSpeedKmh    float64   `json:"avg_speed"`
	MaxSpeedKmh    float64   `json:"max_speed"`
	DurationMin    int       `json:"duration_minutes"`
}

// 停车事件类型
const (
	ParkingKindIdling = "idling" // < 30 分钟
	ParkingKindParked = "parked" // >= 30 分钟
)

// ParkingEvent 停车/怠速事件（按需计算）
type ParkingEvent struct {
	VehicleID   int64     `json:"vehicle_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	DurationMin int       `json:"duration_minutes"`
	Kind        string    `json:"kind"`
}

// DailyMileage 按日里程（按需计算）
type DailyMileage struct {
	VehicleID     int64   `json:"vehicle_id"`
	Date          string  `json:"date"` // YYYY-MM-DD
	DistanceMiles float64 `json:"distance_miles"`
}

// 引擎指令
const (
	CommandCut   = "cut"
	CommandStart = "start"
)

// 指令状态
const (
	CommandStatusPending  = "pending"
	CommandStatusExecuted = "executed"
	CommandStatusFailed   = "failed"
)

// EngineCommand 引擎控制指令（engine_control 表）
type EngineCommand struct {
	ID         int64      `json:"id" db:"id"`
	VehicleID  int64      `json:"vehicle_id" db:"vehicle_id"`
	Command    string     `json:"command" db:"command"`
	IssuedAt   time.Time  `json:"issued_at" db:"timestamp"`
	Status     string     `json:"status" db:"status"`
	Response   *string    `json:"response,omitempty" db:"response"`
	ExecutedAt *time.Time `json:"executed_at,omitempty" db:"executed_at"`
}

// SpeedLimit 限速记录（speed_limits 表，每车至多一条 active）
type SpeedLimit struct {
	ID        int64     `json:"id" db:"id"`
	VehicleID int64     `json:"vehicle_id" db:"vehicle_id"`
	LimitKmh  float64   `json:"speed_limit_kmh" db:"speed_limit_kmh"`
	SetBy     string    `json:"set_by" db:"set_by"`
	SetAt     time.Time `json:"set_at" db:"set_at"`
	IsActive  bool      `json:"is_active" db:"is_active"`
}

// Alarm 告警记录（alarm_logs 表）
type Alarm struct {
	ID        int64     `json:"id" db:"id"`
	VehicleID int64     `json:"vehicle_id" db:"vehicle_id"`
	AlarmType string    `json:"alarm_type" db:"alarm_type"`
	Message   string    `json:"message" db:"message"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	Severity  string    `json:"severity" db:"severity"`
	Category  string    `json:"category" db:"category"`
}

// Packet 队列消息（网络线程与持久化消费者之间的交接格式）
type Packet struct {
	IMEI      string  `json:"imei"`
	VehicleID int64   `json:"vehicle_id"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Speed     float64 `json:"speed"`
	Heading   float64 `json:"heading"`
	Timestamp string  `json:"timestamp"` // 入队时生成的 ISO-8601 UTC 字符串
}
