package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func healthyProbe(ctx context.Context) Result {
	return Healthy("ok")
}

func degradedProbe(ctx context.Context) Result {
	return Degraded("slow")
}

func unhealthyProbe(ctx context.Context) Result {
	return Unhealthy("down", errors.New("connection refused"))
}

func TestAggregator_AllHealthy(t *testing.T) {
	agg := NewAggregator()
	agg.RegisterCheck("cache", healthyProbe, true, 0)
	agg.RegisterCheck("limiter", healthyProbe, false, 0)

	result := agg.CheckAll(context.Background())

	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want healthy", result.Status)
	}
	if !result.Healthy {
		t.Error("Healthy should be true")
	}
	if result.Summary.Total != 2 || result.Summary.Healthy != 2 {
		t.Errorf("Summary = %+v, want 2 total, 2 healthy", result.Summary)
	}
}

func TestAggregator_CriticalUnhealthy(t *testing.T) {
	agg := NewAggregator()
	agg.RegisterCheck("cache", unhealthyProbe, true, 0)
	agg.RegisterCheck("limiter", healthyProbe, false, 0)

	result := agg.CheckAll(context.Background())

	if result.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy (critical check down)", result.Status)
	}
	if result.Healthy {
		t.Error("Healthy should be false")
	}
	if result.Summary.Unhealthy != 1 {
		t.Errorf("Summary.Unhealthy = %d, want 1", result.Summary.Unhealthy)
	}
}

func TestAggregator_NonCriticalUnhealthyDegrades(t *testing.T) {
	agg := NewAggregator()
	agg.RegisterCheck("cache", healthyProbe, true, 0)
	agg.RegisterCheck("metrics", unhealthyProbe, false, 0)

	result := agg.CheckAll(context.Background())

	if result.Status != StatusDegraded {
		t.Errorf("Status = %v, want degraded (only a non-critical check is down)", result.Status)
	}
}

func TestAggregator_DegradedCheckDegrades(t *testing.T) {
	agg := NewAggregator()
	agg.RegisterCheck("cache", healthyProbe, true, 0)
	agg.RegisterCheck("breakers", degradedProbe, true, 0)

	result := agg.CheckAll(context.Background())

	if result.Status != StatusDegraded {
		t.Errorf("Status = %v, want degraded", result.Status)
	}
	if result.Summary.Degraded != 1 {
		t.Errorf("Summary.Degraded = %d, want 1", result.Summary.Degraded)
	}
}

func TestAggregator_ProbeTimeout(t *testing.T) {
	agg := NewAggregator()
	agg.RegisterCheck("stuck", func(ctx context.Context) Result {
		time.Sleep(time.Second)
		return Healthy("too late")
	}, true, 20*time.Millisecond)

	result := agg.CheckAll(context.Background())

	if result.Status != StatusUnhealthy {
		t.Fatalf("Status = %v, want unhealthy (probe overran its timeout)", result.Status)
	}
	if len(result.Checks) != 1 {
		t.Fatalf("Checks = %d, want 1", len(result.Checks))
	}
	if !errors.Is(result.Checks[0].Error, ErrCheckTimeout) {
		t.Errorf("check Error = %v, want ErrCheckTimeout", result.Checks[0].Error)
	}
}

func TestAggregator_CheckSingle(t *testing.T) {
	agg := NewAggregator()
	agg.RegisterCheck("cache", healthyProbe, true, 0)

	result, err := agg.Check(context.Background(), "cache")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if result.Name != "cache" || result.Status != StatusHealthy {
		t.Errorf("result = %+v, want healthy cache check", result)
	}
	if !result.Critical {
		t.Error("Critical should carry through to the result")
	}

	if _, err := agg.Check(context.Background(), "missing"); !errors.Is(err, ErrCheckNotFound) {
		t.Errorf("error = %v, want ErrCheckNotFound", err)
	}
}

func TestAggregator_RegistrationOrderAndReplace(t *testing.T) {
	agg := NewAggregator()
	agg.RegisterCheck("b", healthyProbe, false, 0)
	agg.RegisterCheck("a", healthyProbe, false, 0)
	agg.RegisterCheck("b", degradedProbe, false, 0) // replace, keeps position

	names := agg.CheckNames()
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Errorf("CheckNames = %v, want [b a]", names)
	}

	result, _ := agg.Check(context.Background(), "b")
	if result.Status != StatusDegraded {
		t.Errorf("replaced probe Status = %v, want degraded", result.Status)
	}

	agg.Unregister("b")
	if names := agg.CheckNames(); len(names) != 1 || names[0] != "a" {
		t.Errorf("CheckNames after Unregister = %v, want [a]", names)
	}
}

func TestAggregator_LivenessAndReadiness(t *testing.T) {
	agg := NewAggregator()

	if !agg.LivenessCheck() {
		t.Error("LivenessCheck should always be true")
	}
	if !agg.ReadinessCheck(context.Background()) {
		t.Error("ReadinessCheck should be true with no checks registered")
	}

	agg.RegisterCheck("dep", degradedProbe, true, 0)
	if !agg.ReadinessCheck(context.Background()) {
		t.Error("ReadinessCheck should be true while merely degraded")
	}

	agg.RegisterCheck("dep", unhealthyProbe, true, 0)
	if agg.ReadinessCheck(context.Background()) {
		t.Error("ReadinessCheck should be false when a critical check is unhealthy")
	}
	if !agg.LivenessCheck() {
		t.Error("LivenessCheck stays true regardless of dependencies")
	}
}
