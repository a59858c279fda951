// Package web serves the posetempo dashboard and its JSON API.
package web

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/posetempo/pkg/audio"
	"github.com/teslashibe/posetempo/pkg/camera"
	"github.com/teslashibe/posetempo/pkg/hub"
	"github.com/teslashibe/posetempo/pkg/tempo"
)

// Tracker controls the frame loop
type Tracker interface {
	Enable() error
	Disable()
	Toggle() (tempo.State, error)
	Status() tempo.Status
}

// Player owns playback state
type Player interface {
	SetRate(rate float64, origin audio.RateOrigin) error
	Load(src audio.Source)
	Play() error
	Pause()
	Snapshot() audio.State
}

// Config holds server settings.
type Config struct {
	Port        string
	StaticDir   string // Dashboard files; empty disables static serving
	UploadDir   string // Where uploaded audio is stored
	MaxUploadMB int
}

// DefaultConfig serves ./web on :8080 and stores uploads in ./uploads.
func DefaultConfig() Config {
	return Config{
		Port:        "8080",
		StaticDir:   "./web",
		UploadDir:   "./uploads",
		MaxUploadMB: 64,
	}
}

// LogEntry represents a log line for the dashboard
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // info, tracking, rate, audio, error
	Message string `json:"message"`
}

const maxLogs = 500

// Server is the web dashboard server
type Server struct {
	app    *fiber.App
	config Config
	logger *slog.Logger

	tracker Tracker
	player  Player
	camera  *camera.Manager // nil when no webcam is available

	// Log buffer (last maxLogs entries)
	logs   []LogEntry
	logsMu sync.RWMutex

	// Hubs for websocket broadcast
	statusHub *hub.Hub
	logHub    *hub.Hub
	cameraHub *hub.Hub
}

// NewServer creates the dashboard server. cam may be nil.
func NewServer(cfg Config, tracker Tracker, player Player, cam *camera.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "web")

	s := &Server{
		config:    cfg,
		logger:    logger,
		tracker:   tracker,
		player:    player,
		camera:    cam,
		logs:      make([]LogEntry, 0, maxLogs),
		statusHub: hub.New("status", logger).ReplayLast(),
		logHub:    hub.New("logs", logger),
		cameraHub: hub.New("camera", logger),
	}

	bodyLimit := cfg.MaxUploadMB * 1024 * 1024
	if bodyLimit <= 0 {
		bodyLimit = fiber.DefaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		AppName:               "posetempo",
		DisableStartupMessage: true,
		BodyLimit:             bodyLimit,
		ErrorHandler:          s.handleError,
	})

	// CORS for local development
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/logs", s.handleGetLogs)

	tracking := api.Group("/tracking")
	tracking.Post("/toggle", s.handleToggle)
	tracking.Post("/enable", s.handleEnable)
	tracking.Post("/disable", s.handleDisable)

	api.Post("/playback/rate", s.handleSetRate)

	api.Post("/audio", s.handleUpload)
	api.Post("/audio/play", s.handlePlay)
	api.Post("/audio/pause", s.handlePause)

	api.Get("/camera", s.handleGetCamera)
	api.Post("/camera", s.handleUpdateCamera)
	api.Get("/camera/presets", s.handleCameraPresets)

	app.Get("/media/:name", s.handleMedia)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	// Static files
	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hubs and blocks serving HTTP until Shutdown.
func (s *Server) Start(ctx context.Context) error {
	if err := os.MkdirAll(s.config.UploadDir, 0o755); err != nil {
		return err
	}

	go s.statusHub.Run(ctx)
	go s.logHub.Run(ctx)
	go s.cameraHub.Run(ctx)

	s.logger.Info("web dashboard", "url", "http://localhost:"+s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			s.logger.Error("web server error", "error", err)
		}
	}()
}

// PublishStatus pushes a session snapshot to status clients.
func (s *Server) PublishStatus(st tempo.Status) {
	if err := s.statusHub.BroadcastEvent("status", st); err != nil {
		s.logger.Warn("publish status", "error", err)
	}
}

// PublishPlayer pushes the player state to status clients.
func (s *Server) PublishPlayer(st audio.State) {
	if err := s.statusHub.BroadcastEvent("player", st); err != nil {
		s.logger.Warn("publish player", "error", err)
	}
}

// AddLog adds a log entry and broadcasts to clients
func (s *Server) AddLog(logType, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    logType,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogs {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}

// CameraHub receives annotated frames for /ws/camera.
func (s *Server) CameraHub() *hub.Hub {
	return s.cameraHub
}

// StatusHub returns the status hub for external use
func (s *Server) StatusHub() *hub.Hub {
	return s.statusHub
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
