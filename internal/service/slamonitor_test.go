package service

import (
	"testing"
	"time"
)

func TestSLAMonitorWarnThrottle(t *testing.T) {
	m := &SLAMonitor{}
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	if !m.shouldWarn(7, now) {
		t.Fatal("first sighting must warn")
	}
	m.markWarned(7, now)

	if m.shouldWarn(7, now.Add(time.Hour)) {
		t.Fatal("re-warned inside the throttle window")
	}
	if !m.shouldWarn(7, now.Add(rewarnAfter)) {
		t.Fatal("persistent breach must warn again after the throttle window")
	}
	if !m.shouldWarn(8, now) {
		t.Fatal("throttle must be per ticket")
	}
}

func TestSLAMonitorPrune(t *testing.T) {
	m := &SLAMonitor{}
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	m.markWarned(1, now.Add(-warnedRetention-time.Minute))
	m.markWarned(2, now.Add(-time.Hour))

	m.prune(now)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.warned[1]; ok {
		t.Fatal("stale entry survived prune")
	}
	if _, ok := m.warned[2]; !ok {
		t.Fatal("fresh entry dropped by prune")
	}
}
