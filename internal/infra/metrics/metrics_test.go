package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersAreNormalised(t *testing.T) {
	before := testutil.ToFloat64(postsForwardedTotal.WithLabelValues("alice"))
	IncPostForwarded("  Alice ")
	if got := testutil.ToFloat64(postsForwardedTotal.WithLabelValues("alice")); got != before+1 {
		t.Fatalf("expected counter to grow by 1, got %v -> %v", before, got)
	}
}

func TestMustRegisterIsIdempotent(t *testing.T) {
	MustRegister()
	MustRegister()
	if len(collectors) == 0 {
		t.Fatal("expected collectors to be enqueued by init")
	}
}

func TestSetMonitoredAccounts(t *testing.T) {
	SetMonitoredAccounts(3, 1)
	if got := testutil.ToFloat64(monitoredAccounts.WithLabelValues("resolved")); got != 3 {
		t.Errorf("resolved gauge = %v, want 3", got)
	}
	if got := testutil.ToFloat64(monitoredAccounts.WithLabelValues("skipped")); got != 1 {
		t.Errorf("skipped gauge = %v, want 1", got)
	}
}

func TestRegisterWithPrivateRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := RegisterWith(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{"relay_cycles_total", "relay_cycle_duration_seconds", "relay_rate_limit_cooldowns_total"} {
		if !names[want] {
			t.Errorf("expected %s to be exported, got %v", want, names)
		}
	}
	if err := RegisterWith(reg); err == nil {
		t.Error("registering twice on one registry should report a conflict")
	}
}
