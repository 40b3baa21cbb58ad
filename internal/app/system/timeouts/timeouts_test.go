package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigureKeepsZeroFields(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{PageLoad: 7 * time.Second, Job: -1})

	if got := PageLoad(); got != 7*time.Second {
		t.Errorf("PageLoad() = %v, want 7s", got)
	}
	if got := Ping(); got != DefaultPing {
		t.Errorf("Ping() = %v, want default %v", got, DefaultPing)
	}
	if got := Job(); got != DefaultJob {
		t.Errorf("Job() = %v, want default for a negative value", got)
	}

	Reset()
	if got := Current(); got != defaults() {
		t.Errorf("Current() after Reset = %+v", got)
	}
}

func TestWithTimeoutLogsDeadline(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, log, "site settings")
	<-ctx.Done()
	cancel()

	if logs.Len() != 1 {
		t.Fatalf("got %d log entries, want 1", logs.Len())
	}
	if got := logs.All()[0].ContextMap()["operation"]; got != "site settings" {
		t.Errorf("operation = %v", got)
	}
}

func TestWithTimeoutQuietOnEarlyCancel(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	_, cancel := WithTimeout(context.Background(), time.Minute, zap.New(core), "quick")
	cancel()

	if logs.Len() != 0 {
		t.Errorf("got %d log entries, want none", logs.Len())
	}
}
