package app

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/teslashibe/posetempo/pkg/pose"
	"github.com/teslashibe/posetempo/pkg/pose/detection"
	"github.com/teslashibe/posetempo/pkg/tempo"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig() invalid: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantField string
	}{
		{"default", func(c *Config) {}, ""},
		{"no port", func(c *Config) { c.Web.Port = "" }, "Web.Port"},
		{"no upload dir", func(c *Config) { c.Web.UploadDir = "" }, "Web.UploadDir"},
		{"bad camera", func(c *Config) { c.Camera.Width = 1 }, "Camera"},
		{"bad camera ignored without camera", func(c *Config) { c.Camera.Width = 1; c.NoCamera = true }, ""},
		{"bad delegate", func(c *Config) { c.Detector.Delegate = "TPU" }, "Detector"},
		{"no poses", func(c *Config) { c.Detector.NumPoses = 0 }, "Detector"},
		{"same landmarks", func(c *Config) { c.Tempo.Mapper.To = c.Tempo.Mapper.From }, "Tempo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()

			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() error = %v, want *ConfigError", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.wantField)
			}
		})
	}
}

func TestConfig_ValidateWrapsMapperError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tempo.Mapper.Scale = 0
	if err := cfg.Validate(); !errors.Is(err, pose.ErrInvalidMapper) {
		t.Errorf("Validate() error = %v, want wrapped ErrInvalidMapper", err)
	}
}

func TestConfig_LoadEnvConfig(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CAMERA_DEVICE", "rtsp://cam/stream")
	t.Setenv("CAMERA_MIRROR", "true")
	t.Setenv("POSE_MODEL", "/models/full.onnx")
	t.Setenv("NUM_POSES", "4")
	t.Setenv("POSE_DELEGATE", "cpu")
	t.Setenv("FRAME_INTERVAL", "50ms")
	t.Setenv("ANGLE_MODE", "XZPlane")
	t.Setenv("LANDMARK_FROM", "11")
	t.Setenv("LANDMARK_TO", "13")
	t.Setenv("MIN_RATE", "not-a-number")

	cfg := DefaultConfig()
	cfg.LoadEnvConfig()

	if cfg.Web.Port != "9090" {
		t.Errorf("Port = %q", cfg.Web.Port)
	}
	if cfg.Camera.Device != "rtsp://cam/stream" || !cfg.Camera.Mirror {
		t.Errorf("Camera = %+v", cfg.Camera)
	}
	if cfg.Detector.ModelPath != "/models/full.onnx" || cfg.Detector.NumPoses != 4 {
		t.Errorf("Detector = %+v", cfg.Detector)
	}
	if cfg.Detector.Delegate != detection.DelegateCPU {
		t.Errorf("Delegate = %q, want CPU", cfg.Detector.Delegate)
	}
	if cfg.Tempo.FrameInterval != 50*time.Millisecond {
		t.Errorf("FrameInterval = %v", cfg.Tempo.FrameInterval)
	}
	if cfg.Tempo.Mapper.Mode != pose.ModeXZPlane {
		t.Errorf("Mode = %q", cfg.Tempo.Mapper.Mode)
	}
	if cfg.Tempo.Mapper.From != pose.LeftShoulder || cfg.Tempo.Mapper.To != pose.LeftElbow {
		t.Errorf("landmarks = %d -> %d", cfg.Tempo.Mapper.From, cfg.Tempo.Mapper.To)
	}
	if cfg.Tempo.Mapper.MinRate != 0.2 {
		t.Errorf("malformed MIN_RATE should keep default, got %v", cfg.Tempo.Mapper.MinRate)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()

	cfg := DefaultConfig()
	cfg.NoCamera = true
	cfg.Web.StaticDir = ""
	cfg.Web.UploadDir = t.TempDir()
	cfg.Detector.ModelPath = filepath.Join(t.TempDir(), "missing.onnx")

	a, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := a.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(a.Shutdown)
	return a
}

func TestApp_MissingModelLeavesSessionUninitialized(t *testing.T) {
	a := newTestApp(t)

	err := a.loadDetector()
	if !errors.Is(err, detection.ErrModelNotFound) {
		t.Fatalf("loadDetector() error = %v, want ErrModelNotFound", err)
	}

	if a.Session().State() != tempo.StateUninitialized {
		t.Errorf("state = %v, want uninitialized", a.Session().State())
	}
	if err := a.Session().Enable(); !errors.Is(err, tempo.ErrNotReady) {
		t.Errorf("Enable() error = %v, want ErrNotReady", err)
	}
}

func TestApp_NoCameraStillServesAudio(t *testing.T) {
	a := newTestApp(t)

	if a.webcam != nil || a.cameraManager != nil {
		t.Error("camera should not be opened with NoCamera")
	}
	if a.webServer == nil || a.player == nil {
		t.Fatal("web server and player should be initialized")
	}
	if st := a.Session().Status(); st.HasCamera {
		t.Errorf("status = %+v", st)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Web.Port = ""
	if _, err := New(cfg, nil); err == nil {
		t.Error("New() should reject invalid config")
	}
}
