package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/posetempo/pkg/audio"
	"github.com/teslashibe/posetempo/pkg/camera"
	"github.com/teslashibe/posetempo/pkg/hub"
	"github.com/teslashibe/posetempo/pkg/tempo"
)

// StatusResponse is the body of GET /api/status
type StatusResponse struct {
	Session tempo.Status `json:"session"`
	Player  audio.State  `json:"player"`
}

// TrackingResponse is returned by the tracking endpoints
type TrackingResponse struct {
	State   tempo.State `json:"state"`
	Label   string      `json:"label"`
	Enabled bool        `json:"enabled"`
	Error   string      `json:"error,omitempty"`
}

// RateRequest is the body of POST /api/playback/rate. Rate may be a
// number or a numeric string, as sent by a plain number input.
type RateRequest struct {
	Rate json.RawMessage `json:"rate"`
}

// handleError renders errors as JSON
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// handleStatus returns the session and player snapshots
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(StatusResponse{
		Session: s.tracker.Status(),
		Player:  s.player.Snapshot(),
	})
}

// handleGetLogs returns recent log entries
func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return c.JSON(s.logs)
}

func (s *Server) trackingResponse(c *fiber.Ctx, state tempo.State, err error) error {
	resp := TrackingResponse{
		State:   state,
		Label:   state.Label(),
		Enabled: state == tempo.StateRunning,
	}
	if err == nil {
		s.AddLog("tracking", "Predictions "+string(state))
		return c.JSON(resp)
	}

	resp.Error = err.Error()
	if errors.Is(err, tempo.ErrNotReady) {
		// Soft failure: the page keeps working, the button just does nothing
		return c.Status(fiber.StatusConflict).JSON(resp)
	}
	s.logger.Error("tracking change failed", "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(resp)
}

// handleToggle flips predictions on or off, like the page button
func (s *Server) handleToggle(c *fiber.Ctx) error {
	state, err := s.tracker.Toggle()
	return s.trackingResponse(c, state, err)
}

func (s *Server) handleEnable(c *fiber.Ctx) error {
	err := s.tracker.Enable()
	return s.trackingResponse(c, s.tracker.Status().State, err)
}

func (s *Server) handleDisable(c *fiber.Ctx) error {
	s.tracker.Disable()
	return s.trackingResponse(c, s.tracker.Status().State, nil)
}

// parseRate reads the rate from a JSON body or a form field.
func parseRate(c *fiber.Ctx) (float64, error) {
	raw := c.FormValue("rate")
	if raw == "" {
		var req RateRequest
		if err := c.BodyParser(&req); err != nil {
			return 0, fmt.Errorf("%w: %v", audio.ErrInvalidRate, err)
		}
		raw = strings.Trim(strings.TrimSpace(string(req.Rate)), `"`)
	}
	if raw == "" {
		return 0, fmt.Errorf("%w: missing rate", audio.ErrInvalidRate)
	}

	rate, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", audio.ErrInvalidRate, raw)
	}
	return rate, nil
}

// handleSetRate applies a manually entered playback rate
func (s *Server) handleSetRate(c *fiber.Ctx) error {
	rate, err := parseRate(c)
	if err == nil {
		err = s.player.SetRate(rate, audio.OriginManual)
	}
	if errors.Is(err, audio.ErrInvalidRate) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return err
	}

	s.AddLog("rate", fmt.Sprintf("Manual rate %.2f", rate))
	return c.JSON(s.player.Snapshot())
}

func (s *Server) handlePlay(c *fiber.Ctx) error {
	if err := s.player.Play(); err != nil {
		if errors.Is(err, audio.ErrNoSource) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return err
	}
	return c.JSON(s.player.Snapshot())
}

func (s *Server) handlePause(c *fiber.Ctx) error {
	s.player.Pause()
	return c.JSON(s.player.Snapshot())
}

func (s *Server) cameraUnavailable(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": camera.ErrUnsupported.Error()})
}

// handleGetCamera returns the current camera settings
func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.camera == nil {
		return s.cameraUnavailable(c)
	}
	return c.JSON(s.camera.GetConfigJSON())
}

// handleUpdateCamera changes camera settings, reopening the device
func (s *Server) handleUpdateCamera(c *fiber.Ctx) error {
	if s.camera == nil {
		return s.cameraUnavailable(c)
	}

	var params map[string]interface{}
	if err := json.Unmarshal(c.Body(), &params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if err := s.camera.UpdateConfig(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	s.AddLog("info", "Camera settings updated")
	return c.JSON(s.camera.GetConfigJSON())
}

func (s *Server) handleCameraPresets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"presets": camera.PresetNames(),
	})
}

// handleStatusWS streams status and player events
func (s *Server) handleStatusWS(c *websocket.Conn) {
	hub.NewClient(s.statusHub, c).Run()
}

// handleLogsWS sends the recent log buffer, then streams new entries
func (s *Server) handleLogsWS(c *websocket.Conn) {
	s.logsMu.RLock()
	for _, entry := range s.logs {
		if err := c.WriteJSON(entry); err != nil {
			s.logsMu.RUnlock()
			return
		}
	}
	s.logsMu.RUnlock()

	hub.NewClient(s.logHub, c).Run()
}

// handleCameraWS streams annotated JPEG frames
func (s *Server) handleCameraWS(c *websocket.Conn) {
	hub.NewClient(s.cameraHub, c).Run()
}
