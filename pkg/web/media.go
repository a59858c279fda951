package web

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/posetempo/pkg/audio"
)

// Stored upload extensions and the content type they are served with
var audioExtensions = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".webm": "audio/webm",
	".opus": "audio/opus",
}

// Extension picked for uploads whose name carries no audio extension
var audioTypes = map[string]string{
	"audio/mpeg":   ".mp3",
	"audio/mp3":    ".mp3",
	"audio/wav":    ".wav",
	"audio/wave":   ".wav",
	"audio/x-wav":  ".wav",
	"audio/ogg":    ".ogg",
	"audio/mp4":    ".m4a",
	"audio/x-m4a":  ".m4a",
	"audio/aac":    ".aac",
	"audio/flac":   ".flac",
	"audio/x-flac": ".flac",
	"audio/webm":   ".webm",
	"audio/opus":   ".opus",
}

// audioExtension returns the extension an upload is stored under. The
// file name wins when it has an audio extension; otherwise a known audio
// content type picks one. Anything else is not audio.
func audioExtension(filename, contentType string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := audioExtensions[ext]; ok {
		return ext, true
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if ext, ok := audioTypes[mt]; ok {
			return ext, true
		}
	}
	return "", false
}

// handleUpload stores an uploaded audio file and loads it into the player
func (s *Server) handleUpload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "multipart field \"file\" is required"})
	}

	ext, ok := audioExtension(fh.Filename, fh.Header.Get("Content-Type"))
	if !ok {
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
			"error": fmt.Sprintf("%s is not an audio file", fh.Filename),
		})
	}
	contentType := audioExtensions[ext]

	name := uuid.NewString() + ext
	if err := c.SaveFile(fh, filepath.Join(s.config.UploadDir, name)); err != nil {
		return fmt.Errorf("save upload: %w", err)
	}

	s.player.Load(audio.Source{
		Name:        filepath.Base(fh.Filename),
		URL:         "/media/" + name,
		ContentType: contentType,
		Size:        fh.Size,
	})

	s.logger.Info("audio uploaded", "file", fh.Filename, "stored", name, "size", fh.Size)
	s.AddLog("audio", "Loaded "+filepath.Base(fh.Filename))

	return c.Status(fiber.StatusCreated).JSON(s.player.Snapshot())
}

// handleMedia serves a stored upload. Only names this server generated
// are accepted.
func (s *Server) handleMedia(c *fiber.Ctx) error {
	name := c.Params("name")
	ext := filepath.Ext(name)
	contentType, ok := audioExtensions[ext]
	if !ok || filepath.Base(name) != name {
		return fiber.ErrNotFound
	}
	if _, err := uuid.Parse(strings.TrimSuffix(name, ext)); err != nil {
		return fiber.ErrNotFound
	}
	if err := c.SendFile(filepath.Join(s.config.UploadDir, name)); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	return nil
}
