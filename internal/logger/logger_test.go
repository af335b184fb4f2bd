package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/kdmesh/pkg/math"
)

func TestLogLevels(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{
			level:    "error",
			expected: []string{"ERROR"},
			excluded: []string{"WARN", "INFO", "DEBUG"},
		},
		{
			level:    "warn",
			expected: []string{"ERROR", "WARN"},
			excluded: []string{"INFO", "DEBUG"},
		},
		{
			level:    "info",
			expected: []string{"ERROR", "WARN", "INFO"},
			excluded: []string{"DEBUG"},
		},
		{
			level:    "debug",
			expected: []string{"ERROR", "WARN", "INFO", "DEBUG"},
		},
		{
			level:    "bogus",
			expected: []string{"ERROR", "WARN", "INFO"},
			excluded: []string{"DEBUG"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logFile := filepath.Join(tempDir, tt.level+".log")

			cfg := FileConfig{
				Path:       logFile,
				MaxSizeMB:  10,
				MaxBackups: 1,
				MaxAgeDays: 1,
			}
			if err := InitWithFileConfig(tt.level, cfg, false); err != nil {
				t.Fatalf("failed to init logger: %v", err)
			}

			Debug("debug message")
			Info("info message")
			Warn("warn message")
			Error("error message")
			Sync()

			content, err := os.ReadFile(logFile)
			if err != nil {
				t.Fatalf("failed to read log file: %v", err)
			}
			logContent := string(content)

			for _, exp := range tt.expected {
				if !strings.Contains(logContent, exp) {
					t.Errorf("expected %s in log output", exp)
				}
			}
			for _, exc := range tt.excluded {
				if strings.Contains(logContent, exc) {
					t.Errorf("unexpected %s in log output for level %s", exc, tt.level)
				}
			}
		})
	}
}

func TestJSONFileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "mesh.log")
	cfg := DefaultFileConfig(logFile)
	cfg.Compress = false
	cfg.JSON = true

	if err := InitWithFileConfig("info", cfg, false); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	Named("meshindex").Info("HIT", Vec3("point", math.Vec3{X: 1, Y: 2, Z: 3}))
	Sync()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	var entry struct {
		Level  string    `json:"level"`
		Logger string    `json:"logger"`
		Msg    string    `json:"msg"`
		Point  []float32 `json:"point"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, content)
	}
	if entry.Level != "INFO" || entry.Logger != "meshindex" || entry.Msg != "HIT" {
		t.Errorf("unexpected entry %+v", entry)
	}
	if len(entry.Point) != 3 || entry.Point[2] != 3 {
		t.Errorf("unexpected point %v", entry.Point)
	}
}

func TestFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	ray := math.NewRay(math.Vec3{Y: 10}, math.Vec3{Y: -2})
	log.Info("cast", Vec3("point", math.Vec3{X: 1}), Ray("ray", ray))

	fields := logs.All()[0].ContextMap()

	point, ok := fields["point"].([]interface{})
	if !ok || len(point) != 3 || point[0] != float32(1) {
		t.Errorf("unexpected point field %#v", fields["point"])
	}

	r, ok := fields["ray"].(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected ray field %#v", fields["ray"])
	}
	dir, ok := r["direction"].([]interface{})
	if !ok || len(dir) != 3 || dir[1] != float32(-1) {
		t.Errorf("direction should be normalized, got %#v", r["direction"])
	}
}

func TestLogIsUsableBeforeInit(t *testing.T) {
	saved := Log
	defer func() { Log, Sugar = saved, saved.Sugar() }()

	Log = zap.NewNop()
	Sugar = Log.Sugar()

	Info("dropped")
	Named("x").Debug("dropped")
	Sync()
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("/tmp/test.log")

	if cfg.Path != "/tmp/test.log" {
		t.Errorf("expected path /tmp/test.log, got %s", cfg.Path)
	}
	if cfg.MaxSizeMB != 50 {
		t.Errorf("expected MaxSizeMB 50, got %d", cfg.MaxSizeMB)
	}
	if cfg.MaxBackups != 3 {
		t.Errorf("expected MaxBackups 3, got %d", cfg.MaxBackups)
	}
	if cfg.MaxAgeDays != 7 {
		t.Errorf("expected MaxAgeDays 7, got %d", cfg.MaxAgeDays)
	}
	if !cfg.Compress {
		t.Error("expected Compress to be true")
	}
	if cfg.JSON {
		t.Error("expected console encoding by default")
	}
}
