package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Output()
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(prev) })
	return &buf
}

func TestLogrusIntegration(t *testing.T) {
	buf := captureOutput(t)

	Info("reconciling interface %s", "eth1")
	Warn("labels ignored with allowed_networks=%s", "all")
	Error("remote call failed")

	output := buf.String()
	for _, want := range []string{"reconciling interface eth1", "labels ignored with allowed_networks=all", "remote call failed"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got %q", want, output)
		}
	}
}

func TestStructuredLogging(t *testing.T) {
	buf := captureOutput(t)

	WithField("interface", "eth1").Info("interface found")
	WithFields(log.Fields{
		"host":       "host1.example.com",
		"network_id": "a0e60ec0",
	}).Info("network added")

	output := buf.String()
	if !strings.Contains(output, "interface=eth1") {
		t.Error("interface field not found in structured log")
	}
	if !strings.Contains(output, "host=host1.example.com") {
		t.Error("host field not found in structured log")
	}
}

func TestLogLevels(t *testing.T) {
	defer SetLogLevel(LogLevelInfo)

	if err := SetLogLevelFromString("debug"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !IsDebugEnabled() {
		t.Error("debug level should be enabled")
	}

	if err := SetLogLevelFromString("warn"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if IsDebugEnabled() {
		t.Error("debug level should be disabled")
	}

	if err := SetLogLevelFromString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestSetFormat(t *testing.T) {
	buf := captureOutput(t)
	defer SetFormat("text")

	if err := SetFormat("json"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	WithField("interface", "eth1").Info("json entry")
	if !strings.Contains(buf.String(), `"interface":"eth1"`) {
		t.Errorf("expected JSON output, got %q", buf.String())
	}

	if err := SetFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestContextEntry(t *testing.T) {
	buf := captureOutput(t)

	ctx := NewContext(context.Background(), WithField("request_id", "req-1"))
	FromContext(ctx).Info("scoped entry")
	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Errorf("expected request_id field, got %q", buf.String())
	}

	if FromContext(context.Background()) == nil {
		t.Error("expected fallback entry")
	}
}

func TestErrorLogging(t *testing.T) {
	buf := captureOutput(t)

	err := &testError{message: "host not reachable"}
	WithError(err).Error("operation failed")

	if !strings.Contains(buf.String(), "host not reachable") {
		t.Error("error message not found in log output")
	}
}

type testError struct {
	message string
}

func (e *testError) Error() string {
	return e.message
}
