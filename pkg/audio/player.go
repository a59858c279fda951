// Package audio tracks the playback state of the dashboard's audio element.
//
// Decoding and output happen in the browser. The server owns the
// authoritative state (which file, what rate, playing or paused) and
// pushes every change to connected clients.
package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"
)

// Sentinel errors.
var (
	// ErrInvalidRate is returned for NaN, infinite or non-positive rates.
	ErrInvalidRate = errors.New("audio: playback rate must be a finite number greater than zero")

	// ErrNoSource is returned by Play before any file has been loaded.
	ErrNoSource = errors.New("audio: no audio source loaded")
)

// DefaultRate is normal speed.
const DefaultRate = 1.0

// RateOrigin records who set the current rate.
type RateOrigin string

const (
	OriginDefault RateOrigin = "default"
	OriginPose    RateOrigin = "pose"
	OriginManual  RateOrigin = "manual"
)

// Source describes the loaded audio file.
type Source struct {
	Name        string    `json:"name"` // Original file name
	URL         string    `json:"url"`  // Where the dashboard fetches it
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// State is a snapshot of the player.
type State struct {
	Source     *Source    `json:"source,omitempty"`
	Rate       float64    `json:"rate"`
	RateOrigin RateOrigin `json:"rate_origin"`
	Playing    bool       `json:"playing"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Player holds the playback state.
type Player struct {
	logger *slog.Logger

	mu      sync.Mutex
	source  *Source
	rate    float64
	origin  RateOrigin
	playing bool
	updated time.Time

	// Callbacks
	OnChange        func(State)
	OnPlaybackStart func()
	OnPlaybackEnd   func()
}

// NewPlayer creates a player at normal speed with nothing loaded.
func NewPlayer(logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		logger:  logger,
		rate:    DefaultRate,
		origin:  OriginDefault,
		updated: time.Now(),
	}
}

// ValidateRate rejects rates the audio element cannot apply.
func ValidateRate(rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidRate, rate)
	}
	return nil
}

// SetRate sets the playback rate. Setting the current rate again is not a
// change and does not fire OnChange.
func (p *Player) SetRate(rate float64, origin RateOrigin) error {
	if err := ValidateRate(rate); err != nil {
		return err
	}

	p.mu.Lock()
	if p.rate == rate && p.origin == origin {
		p.mu.Unlock()
		return nil
	}
	p.rate = rate
	p.origin = origin
	p.updated = time.Now()
	state := p.snapshotLocked()
	p.mu.Unlock()

	p.logger.Debug("playback rate", "rate", rate, "origin", origin)
	p.notify(state)
	return nil
}

// Rate returns the current playback rate.
func (p *Player) Rate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rate
}

// Load replaces the audio source. Playback stops; the rate is kept, the
// same way an audio element keeps playbackRate across src changes.
func (p *Player) Load(src Source) {
	if src.LoadedAt.IsZero() {
		src.LoadedAt = time.Now()
	}

	p.mu.Lock()
	wasPlaying := p.playing
	p.source = &src
	p.playing = false
	p.updated = time.Now()
	state := p.snapshotLocked()
	p.mu.Unlock()

	p.logger.Info("audio loaded", "name", src.Name, "url", src.URL, "size", src.Size)
	if wasPlaying && p.OnPlaybackEnd != nil {
		p.OnPlaybackEnd()
	}
	p.notify(state)
}

// Play starts playback of the loaded source.
func (p *Player) Play() error {
	p.mu.Lock()
	if p.source == nil {
		p.mu.Unlock()
		return ErrNoSource
	}
	if p.playing {
		p.mu.Unlock()
		return nil
	}
	p.playing = true
	p.updated = time.Now()
	state := p.snapshotLocked()
	p.mu.Unlock()

	if p.OnPlaybackStart != nil {
		p.OnPlaybackStart()
	}
	p.notify(state)
	return nil
}

// Pause stops playback. Pausing a stopped player is a no-op.
func (p *Player) Pause() {
	p.mu.Lock()
	if !p.playing {
		p.mu.Unlock()
		return
	}
	p.playing = false
	p.updated = time.Now()
	state := p.snapshotLocked()
	p.mu.Unlock()

	if p.OnPlaybackEnd != nil {
		p.OnPlaybackEnd()
	}
	p.notify(state)
}

// IsPlaying returns true while playback is active.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Snapshot returns the current state.
func (p *Player) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Player) snapshotLocked() State {
	s := State{
		Rate:       p.rate,
		RateOrigin: p.origin,
		Playing:    p.playing,
		UpdatedAt:  p.updated,
	}
	if p.source != nil {
		src := *p.source
		s.Source = &src
	}
	return s
}

func (p *Player) notify(s State) {
	if p.OnChange != nil {
		p.OnChange(s)
	}
}
