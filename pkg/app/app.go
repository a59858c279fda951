package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/xerrors"

	"github.com/teslashibe/posetempo/pkg/audio"
	"github.com/teslashibe/posetempo/pkg/camera"
	"github.com/teslashibe/posetempo/pkg/camera/webcam"
	"github.com/teslashibe/posetempo/pkg/pose/detection"
	"github.com/teslashibe/posetempo/pkg/pose/detection/dnn"
	"github.com/teslashibe/posetempo/pkg/tempo"
	"github.com/teslashibe/posetempo/pkg/web"
)

// App is the main posetempo application.
// It manages all components and their lifecycle.
type App struct {
	config Config
	logger *slog.Logger

	player  *audio.Player
	session *tempo.Session

	// Camera, nil when unavailable
	webcam        *webcam.Webcam
	cameraManager *camera.Manager

	// Loaded in the background by Run
	mu         sync.Mutex
	landmarker *dnn.Landmarker

	webServer *web.Server
}

// New creates a new application with the given configuration.
func New(cfg Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &App{config: cfg, logger: logger}, nil
}

// Init initializes all components.
// Call this after New() and before Run().
func (a *App) Init() error {
	a.player = audio.NewPlayer(a.logger)

	session, err := tempo.New(a.config.Tempo, a.player, a.logger)
	if err != nil {
		return xerrors.Errorf("frame loop: %w", err)
	}
	a.session = session

	a.initCamera()

	a.webServer = web.NewServer(a.config.Web, a.session, a.player, a.cameraManager, a.logger)
	a.player.OnChange = a.webServer.PublishPlayer
	a.session.OnStatus = a.webServer.PublishStatus

	if a.webcam != nil {
		a.session.SetOverlay(dnn.NewOverlay(), a.webServer.CameraHub())
	}
	return nil
}

// initCamera opens the webcam. Failure disables tracking but is not fatal.
func (a *App) initCamera() {
	if a.config.NoCamera {
		a.logger.Info("camera disabled by configuration")
		return
	}

	wc, err := webcam.Open(a.config.Camera, a.logger)
	if err != nil {
		a.logger.Warn("webcam unavailable, pose tracking disabled", "device", a.config.Camera.Device, "error", err)
		return
	}

	a.webcam = wc
	a.cameraManager = camera.NewManager(a.config.Camera)
	a.cameraManager.OnConfigChange = wc.Reopen
	a.session.SetSource(wc)
}

// loadDetector loads the pose model and attaches it to the session.
// Until it returns the session stays uninitialized.
func (a *App) loadDetector() error {
	l, err := dnn.NewLandmarker(a.config.Detector, a.logger)
	if err != nil {
		if errors.Is(err, detection.ErrModelNotFound) {
			a.logger.Warn("pose model not found, pose tracking disabled",
				"model", a.config.Detector.ModelPath,
				"hint", "export a BlazePose landmark model to ONNX and set POSE_MODEL")
		}
		return xerrors.Errorf("load pose model: %w", err)
	}

	a.mu.Lock()
	a.landmarker = l
	a.mu.Unlock()

	a.session.AttachDetector(l)
	a.webServer.AddLog("info", fmt.Sprintf("Pose model loaded (%s)", a.config.Detector.Delegate))
	return nil
}

// Run starts the dashboard, model loading and frame loop.
// Blocks until context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.webServer.StartAsync(ctx)

	go func() {
		if err := a.loadDetector(); err != nil {
			a.logger.Warn("pose detector unavailable", "error", err)
			a.webServer.AddLog("error", err.Error())
		}
	}()

	go a.session.Run(ctx)

	a.webServer.AddLog("info", "posetempo started")
	a.logger.Info("ready", "session", a.session.ID(), "camera", a.webcam != nil)

	<-ctx.Done()
	return nil
}

// Session returns the frame loop session.
func (a *App) Session() *tempo.Session {
	return a.session
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown() {
	a.logger.Info("shutting down")

	if a.session != nil {
		a.session.Disable()
	}
	if a.webServer != nil {
		if err := a.webServer.Shutdown(); err != nil {
			a.logger.Warn("web server shutdown", "error", err)
		}
	}
	if a.session != nil {
		if err := a.session.Close(); err != nil {
			a.logger.Warn("close journal", "error", err)
		}
	}
	if a.webcam != nil {
		a.webcam.Close()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.landmarker != nil {
		a.landmarker.Close()
	}
}
