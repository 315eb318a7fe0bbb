package ingest

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dawitk/fleettrack/internal/alarm"
	"github.com/dawitk/fleettrack/internal/models"
	"github.com/dawitk/fleettrack/internal/repository"
)

type fakePositionWriter struct {
	created []*models.Position
	err     error
}

func (f *fakePositionWriter) Create(_ context.Context, pos *models.Position) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, pos)
	return nil
}

type fakeLimitReader struct {
	limit *models.SpeedLimit
}

func (f *fakeLimitReader) GetActive(_ context.Context, _ int64) (*models.SpeedLimit, error) {
	if f.limit == nil {
		return nil, repository.ErrNotFound
	}
	return f.limit, nil
}

type fakeAlarmStore struct {
	alarms []*models.Alarm
}

func (f *fakeAlarmStore) Create(_ context.Context, a *models.Alarm) error {
	f.alarms = append(f.alarms, a)
	return nil
}

type fakeBroadcaster struct {
	sent []*models.Position
}

func (f *fakeBroadcaster) BroadcastPosition(pos *models.Position) {
	f.sent = append(f.sent, pos)
}

func newTestConsumer(positions *fakePositionWriter, limits *fakeLimitReader, alarms *fakeAlarmStore, hub Broadcaster) *Consumer {
	logger := zap.NewNop()
	return NewConsumer(logger, nil, positions, limits, alarm.NewNotifier(logger, alarms), hub, time.Second)
}

func TestPersistWritesPositionAndBroadcasts(t *testing.T) {
	positions := &fakePositionWriter{}
	hub := &fakeBroadcaster{}
	c := newTestConsumer(positions, &fakeLimitReader{}, &fakeAlarmStore{}, hub)

	ts := time.Date(2024, 6, 15, 8, 30, 45, 0, time.UTC)
	c.persist(context.Background(), &models.Packet{
		IMEI:      "862123456789012",
		VehicleID: 7,
		Lat:       9.0341,
		Lon:       38.7379,
		Speed:     42.5,
		Timestamp: ts.Format(time.RFC3339Nano),
	})

	if len(positions.created) != 1 {
		t.Fatalf("expected 1 position, got %d", len(positions.created))
	}
	pos := positions.created[0]
	if pos.VehicleID != 7 || pos.SpeedKmh != 42.5 {
		t.Errorf("position = %+v", pos)
	}
	if !pos.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", pos.Timestamp, ts)
	}
	if len(hub.sent) != 1 {
		t.Errorf("expected 1 broadcast, got %d", len(hub.sent))
	}
}

func TestPersistBadTimestampFallsBackToNow(t *testing.T) {
	positions := &fakePositionWriter{}
	c := newTestConsumer(positions, &fakeLimitReader{}, &fakeAlarmStore{}, nil)

	before := time.Now().UTC()
	c.persist(context.Background(), &models.Packet{VehicleID: 7, Timestamp: "not-a-time"})
	after := time.Now().UTC()

	if len(positions.created) != 1 {
		t.Fatalf("expected 1 position, got %d", len(positions.created))
	}
	ts := positions.created[0].Timestamp
	if ts.Before(before) || ts.After(after) {
		t.Errorf("fallback timestamp %v outside [%v, %v]", ts, before, after)
	}
}

func TestPersistSpeedLimitViolationRaisesAlarm(t *testing.T) {
	alarms := &fakeAlarmStore{}
	limits := &fakeLimitReader{limit: &models.SpeedLimit{VehicleID: 7, LimitKmh: 60, IsActive: true}}
	c := newTestConsumer(&fakePositionWriter{}, limits, alarms, nil)

	c.persist(context.Background(), &models.Packet{
		VehicleID: 7,
		Speed:     85,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})

	if len(alarms.alarms) != 1 {
		t.Fatalf("expected 1 alarm, got %d", len(alarms.alarms))
	}
	a := alarms.alarms[0]
	if a.AlarmType != alarm.TypeSpeedViolation {
		t.Errorf("alarm type = %q, want %q", a.AlarmType, alarm.TypeSpeedViolation)
	}
	if a.Severity != "warning" || a.Category != "safety" {
		t.Errorf("classification = %s/%s, want warning/safety", a.Severity, a.Category)
	}
}

func TestPersistWithinLimitNoAlarm(t *testing.T) {
	alarms := &fakeAlarmStore{}
	limits := &fakeLimitReader{limit: &models.SpeedLimit{VehicleID: 7, LimitKmh: 60, IsActive: true}}
	c := newTestConsumer(&fakePositionWriter{}, limits, alarms, nil)

	c.persist(context.Background(), &models.Packet{
		VehicleID: 7,
		Speed:     60,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})

	if len(alarms.alarms) != 0 {
		t.Errorf("speed at the limit must not alarm, got %d", len(alarms.alarms))
	}
}

func TestPersistNoActiveLimitIsQuiet(t *testing.T) {
	alarms := &fakeAlarmStore{}
	c := newTestConsumer(&fakePositionWriter{}, &fakeLimitReader{}, alarms, nil)

	c.persist(context.Background(), &models.Packet{
		VehicleID: 7,
		Speed:     140,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})

	if len(alarms.alarms) != 0 {
		t.Errorf("no active limit means no alarm, got %d", len(alarms.alarms))
	}
}

func TestPersistStorageFailureSkipsBroadcast(t *testing.T) {
	positions := &fakePositionWriter{err: context.DeadlineExceeded}
	hub := &fakeBroadcaster{}
	c := newTestConsumer(positions, &fakeLimitReader{}, &fakeAlarmStore{}, hub)

	c.persist(context.Background(), &models.Packet{
		VehicleID: 7,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})

	if len(hub.sent) != 0 {
		t.Errorf("failed write must not broadcast, got %d", len(hub.sent))
	}
}
