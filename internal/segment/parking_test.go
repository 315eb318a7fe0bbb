package segment

import (
	"testing"
	"time"

	"github.com/dawitk/fleettrack/internal/models"
)

func TestDetectParkingEventsIdlingVsParked(t *testing.T) {
	positions := []*models.Position{
		// 10 分钟静止 → 怠速
		pos(0, 9.0300, 38.7300, 0),
		pos(5*time.Minute, 9.0300, 38.7300, 0.5),
		pos(10*time.Minute, 9.0310, 38.7310, 25),
		// 45 分钟静止 → 停车
		pos(15*time.Minute, 9.0400, 38.7400, 0),
		pos(40*time.Minute, 9.0400, 38.7400, 0),
		pos(60*time.Minute, 9.0400, 38.7400, 0.8),
		pos(61*time.Minute, 9.0410, 38.7410, 30),
	}

	events := DetectParkingEvents(positions)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	if events[0].Kind != models.ParkingKindIdling {
		t.Errorf("10-minute stop kind = %q, want idling", events[0].Kind)
	}
	if events[0].DurationMin != 10 {
		t.Errorf("first event duration = %d, want 10", events[0].DurationMin)
	}

	if events[1].Kind != models.ParkingKindParked {
		t.Errorf("46-minute stop kind = %q, want parked", events[1].Kind)
	}
	if !events[1].StartTime.Equal(t0.Add(15 * time.Minute)) {
		t.Errorf("second event start = %v, want T0+15m", events[1].StartTime)
	}
	if events[1].Latitude != 9.0400 || events[1].Longitude != 38.7400 {
		t.Errorf("event position must be the first stationary sample")
	}
}

func TestDetectParkingEventsFiveMinuteFloor(t *testing.T) {
	short := []*models.Position{
		pos(0, 9.0300, 38.7300, 0),
		pos(2*time.Minute, 9.0300, 38.7300, 0),
		pos(4*time.Minute, 9.0310, 38.7310, 25),
	}
	if events := DetectParkingEvents(short); len(events) != 0 {
		t.Errorf("4-minute stop must be discarded, got %d events", len(events))
	}

	exact := []*models.Position{
		pos(0, 9.0300, 38.7300, 0.9),
		pos(3*time.Minute, 9.0300, 38.7300, 0.9),
		pos(5*time.Minute, 9.0300, 38.7300, 0.9),
	}
	events := DetectParkingEvents(exact)
	if len(events) != 1 {
		t.Fatalf("5-minute stop must be emitted, got %d events", len(events))
	}
	if events[0].Kind != models.ParkingKindIdling {
		t.Errorf("5-minute stop kind = %q, want idling", events[0].Kind)
	}
}

func TestDetectParkingEventsThirtyMinuteBoundary(t *testing.T) {
	positions := []*models.Position{
		pos(0, 9.0300, 38.7300, 0),
		pos(30*time.Minute, 9.0300, 38.7300, 0),
	}

	events := DetectParkingEvents(positions)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Kind != models.ParkingKindParked {
		t.Errorf("exactly 30 minutes is parked, got %q", events[0].Kind)
	}
}

func TestTripsAndStopsPartitionSequence(t *testing.T) {
	// 移动判定统一用同一阈值：每个样本要么属于移动区间要么属于静止区间
	positions := []*models.Position{
		pos(0, 9.0300, 38.7300, 0),
		pos(10*time.Minute, 9.0300, 38.7300, 1.0),
		pos(12*time.Minute, 9.0320, 38.7320, 28),
		pos(20*time.Minute, 9.0380, 38.7380, 35),
		pos(22*time.Minute, 9.0390, 38.7390, 0.4),
		pos(60*time.Minute, 9.0390, 38.7390, 0),
	}

	trips := DetectTrips(positions)
	stops := DetectParkingEvents(positions)

	if len(trips) != 1 || len(stops) != 2 {
		t.Fatalf("expected 1 trip and 2 stops, got %d and %d", len(trips), len(stops))
	}

	// 相邻区间共享边界样本：前一区间的结束时刻是后一区间的开始时刻
	if !stops[0].EndTime.Equal(trips[0].StartTime) {
		t.Errorf("first stop ends %v, trip starts %v", stops[0].EndTime, trips[0].StartTime)
	}
	if !trips[0].EndTime.Equal(stops[1].StartTime) {
		t.Errorf("trip ends %v, second stop starts %v", trips[0].EndTime, stops[1].StartTime)
	}
}
