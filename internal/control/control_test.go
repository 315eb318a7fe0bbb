package control

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dawitk/fleettrack/internal/models"
	"github.com/dawitk/fleettrack/internal/repository"
)

type fakeCommandStore struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.EngineCommand
	latest map[int64]*models.EngineCommand
}

func newFakeCommandStore() *fakeCommandStore {
	return &fakeCommandStore{
		byID:   make(map[int64]*models.EngineCommand),
		latest: make(map[int64]*models.EngineCommand),
	}
}

func (f *fakeCommandStore) Create(_ context.Context, cmd *models.EngineCommand) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	cmd.ID = f.nextID
	clone := *cmd
	f.byID[cmd.ID] = &clone
	f.latest[cmd.VehicleID] = &clone
	return nil
}

func (f *fakeCommandStore) Complete(_ context.Context, id int64, status, response string, executedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd, ok := f.byID[id]
	if !ok || cmd.Status != models.CommandStatusPending {
		return repository.ErrNotFound
	}
	cmd.Status = status
	cmd.Response = &response
	cmd.ExecutedAt = &executedAt
	return nil
}

func (f *fakeCommandStore) GetByID(_ context.Context, id int64) (*models.EngineCommand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *cmd
	return &clone, nil
}

func (f *fakeCommandStore) GetLatestByVehicle(_ context.Context, vehicleID int64) (*models.EngineCommand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd, ok := f.latest[vehicleID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *cmd
	return &clone, nil
}

type fakeLimitStore struct {
	mu     sync.Mutex
	active map[int64]*models.SpeedLimit
}

func newFakeLimitStore() *fakeLimitStore {
	return &fakeLimitStore{active: make(map[int64]*models.SpeedLimit)}
}

func (f *fakeLimitStore) Set(_ context.Context, limit *models.SpeedLimit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	limit.IsActive = true
	clone := *limit
	f.active[limit.VehicleID] = &clone
	return nil
}

func (f *fakeLimitStore) GetActive(_ context.Context, vehicleID int64) (*models.SpeedLimit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	limit, ok := f.active[vehicleID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *limit
	return &clone, nil
}

func waitForStatus(t *testing.T, store *fakeCommandStore, id int64, status string) *models.EngineCommand {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		cmd, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if cmd.Status == status {
			return cmd
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("command %d never reached status %q", id, status)
	return nil
}

func TestIssueCommandReturnsPendingImmediately(t *testing.T) {
	store := newFakeCommandStore()
	c := NewController(zap.NewNop(), store, newFakeLimitStore(), 50*time.Millisecond)

	cmd, err := c.IssueCommand(context.Background(), 7, models.CommandCut)
	if err != nil {
		t.Fatalf("IssueCommand: %v", err)
	}
	if cmd.Status != models.CommandStatusPending {
		t.Errorf("status = %q, want pending", cmd.Status)
	}
	if cmd.ID == 0 {
		t.Error("issued command must carry a persisted id")
	}

	// 模拟的设备响应在延迟后把指令迁移到 executed
	done := waitForStatus(t, store, cmd.ID, models.CommandStatusExecuted)
	if done.Response == nil || *done.Response != "engine cut acknowledged" {
		t.Errorf("response = %v", done.Response)
	}
	if done.ExecutedAt == nil {
		t.Error("executed command must record executed_at")
	}
}

func TestIssueCommandRejectsUnknown(t *testing.T) {
	c := NewController(zap.NewNop(), newFakeCommandStore(), newFakeLimitStore(), time.Millisecond)

	if _, err := c.IssueCommand(context.Background(), 7, "explode"); err == nil {
		t.Fatal("unknown command must be rejected")
	}
}

func TestEngineStatus(t *testing.T) {
	store := newFakeCommandStore()
	c := NewController(zap.NewNop(), store, newFakeLimitStore(), 10*time.Millisecond)

	status, err := c.EngineStatus(context.Background(), 7)
	if err != nil {
		t.Fatalf("EngineStatus: %v", err)
	}
	if status != "unknown" {
		t.Errorf("no command history: status = %q, want unknown", status)
	}

	cmd, err := c.IssueCommand(context.Background(), 7, models.CommandStart)
	if err != nil {
		t.Fatalf("IssueCommand: %v", err)
	}
	waitForStatus(t, store, cmd.ID, models.CommandStatusExecuted)

	// latest 条目与 byID 共享同一记录，此时应已是 executed
	status, err = c.EngineStatus(context.Background(), 7)
	if err != nil {
		t.Fatalf("EngineStatus: %v", err)
	}
	if status != "engine is on" {
		t.Errorf("status = %q, want \"engine is on\"", status)
	}
}

func TestStatusText(t *testing.T) {
	tests := []struct {
		command string
		status  string
		want    string
	}{
		{models.CommandCut, models.CommandStatusExecuted, "engine is off"},
		{models.CommandStart, models.CommandStatusExecuted, "engine is on"},
		{models.CommandCut, models.CommandStatusPending, "processing cut"},
		{models.CommandStart, models.CommandStatusFailed, "failed (start)"},
	}
	for _, tt := range tests {
		got := StatusText(&models.EngineCommand{Command: tt.command, Status: tt.status})
		if got != tt.want {
			t.Errorf("StatusText(%s/%s) = %q, want %q", tt.command, tt.status, got, tt.want)
		}
	}
}

func TestSetSpeedLimit(t *testing.T) {
	limits := newFakeLimitStore()
	c := NewController(zap.NewNop(), newFakeCommandStore(), limits, time.Millisecond)

	if _, err := c.SetSpeedLimit(context.Background(), 7, 0, "admin"); err == nil {
		t.Fatal("non-positive limit must be rejected")
	}
	if _, err := c.SetSpeedLimit(context.Background(), 7, -30, "admin"); err == nil {
		t.Fatal("negative limit must be rejected")
	}

	first, err := c.SetSpeedLimit(context.Background(), 7, 60, "admin")
	if err != nil {
		t.Fatalf("SetSpeedLimit: %v", err)
	}
	if !first.IsActive {
		t.Error("new limit must be active")
	}

	// 再次设置覆盖旧值，查询只返回最新一条
	if _, err := c.SetSpeedLimit(context.Background(), 7, 80, "dispatcher"); err != nil {
		t.Fatalf("SetSpeedLimit: %v", err)
	}

	active, err := c.GetSpeedLimit(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetSpeedLimit: %v", err)
	}
	if active.LimitKmh != 80 || active.SetBy != "dispatcher" {
		t.Errorf("active limit = %+v, want the newest record", active)
	}
}
