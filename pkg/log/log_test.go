package log

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit(t *testing.T) {
	t.Cleanup(func() {
		if err := Init("info", EncodingConsole); err != nil {
			t.Fatalf("restore logger: %v", err)
		}
	})

	tests := []struct {
		name      string
		level     string
		encoding  string
		wantLevel zapcore.Level
		wantErr   bool
	}{
		{name: "debug json", level: "debug", encoding: EncodingJSON, wantLevel: zapcore.DebugLevel},
		{name: "warn console", level: "warn", encoding: EncodingConsole, wantLevel: zapcore.WarnLevel},
		{name: "unknown level", level: "loud", encoding: EncodingConsole, wantErr: true},
		{name: "unknown encoding", level: "info", encoding: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Init(tt.level, tt.encoding)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Init() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := Level(); got != tt.wantLevel {
				t.Errorf("Level() = %v, want %v", got, tt.wantLevel)
			}
		})
	}
}

func TestGetCallerTrimsPath(t *testing.T) {
	_, file, line := getCaller(1)
	if file != "log/log_test.go" {
		t.Errorf("getCaller() file = %q, want %q", file, "log/log_test.go")
	}
	if line == 0 {
		t.Error("getCaller() line = 0")
	}
}

func TestReplace(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	restore := Replace(zap.New(core))

	Info("dropped")
	Warn("kept", zap.String("k", "v"))

	if got := Level(); got != zapcore.WarnLevel {
		t.Errorf("Level() = %v, want %v", got, zapcore.WarnLevel)
	}

	restore()
	Warn("after restore")

	entries := logs.All()
	if len(entries) != 1 || entries[0].Message != "kept" {
		t.Fatalf("observed %+v, want one %q entry", entries, "kept")
	}
	if entries[0].ContextMap()["k"] != "v" {
		t.Errorf("fields = %v", entries[0].ContextMap())
	}
}
