package logging

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

func testLogger(level string) (*bolt.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := New(Config{
		Level:  level,
		Format: "json",
		Output: buf,
	})
	return logger, buf
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	if config.Level != "info" || config.Format != "console" {
		t.Errorf("unexpected config %+v", config)
	}
	if config.Output != os.Stderr {
		t.Errorf("Output = %v, want os.Stderr", config.Output)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected bolt.Level
	}{
		{"trace", bolt.TRACE},
		{"debug", bolt.DEBUG},
		{"info", bolt.INFO},
		{"warn", bolt.WARN},
		{"error", bolt.ERROR},
		{"verbose", bolt.INFO},
		{"", bolt.INFO},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%s) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		field Field
		want  string
	}{
		{name: "instance", field: Instance("abc"), want: `"instance":"abc"`},
		{name: "target", field: Target("trend"), want: `"target":"trend"`},
		{name: "chart", field: Chart("line"), want: `"chart":"line"`},
		{name: "transition", field: Transition("laying_out", "rendered"), want: `"to_state":"rendered"`},
		{name: "dataset", field: Dataset("Crime_Data.csv"), want: `"dataset":"Crime_Data.csv"`},
		{name: "rows", field: Rows(42), want: `"rows":42`},
		{name: "duration", field: Duration(150 * time.Millisecond), want: `"duration_ms":150`},
		{name: "int", field: Int("regions", 33), want: `"regions":33`},
		{name: "error", field: ErrorField(errors.New("broken")), want: `broken`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			logger, buf := testLogger("debug")
			NewEvent(logger.Info()).Add(tt.field).Msg("test")
			if !bytes.Contains(buf.Bytes(), []byte(tt.want)) {
				t.Errorf("expected %s in output: %s", tt.want, buf.String())
			}
		})
	}
}

func TestLevelFilter(t *testing.T) {
	t.Parallel()

	logger, buf := testLogger("warn")
	NewEvent(logger.Info()).Add(Target("trend")).Msg("ignored")
	if buf.Len() != 0 {
		t.Fatalf("info event should be dropped: %s", buf.String())
	}
	NewEvent(logger.Warn()).Add(ErrorField(nil)).Msg("kept")
	if !bytes.Contains(buf.Bytes(), []byte("kept")) {
		t.Fatalf("warn event should be written: %s", buf.String())
	}
}
