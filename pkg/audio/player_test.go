package audio

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func TestValidateRate(t *testing.T) {
	tests := []struct {
		name    string
		rate    float64
		wantErr bool
	}{
		{"normal", 1.0, false},
		{"floor", 0.2, false},
		{"fast", 4.0, false},
		{"tiny positive", 0.01, false},
		{"zero", 0, true},
		{"negative", -1, true},
		{"nan", math.NaN(), true},
		{"inf", math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRate(tt.rate)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRate(%v) error = %v, wantErr %v", tt.rate, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRate) {
				t.Errorf("error should wrap ErrInvalidRate, got %v", err)
			}
		})
	}
}

func TestPlayer_SetRate(t *testing.T) {
	p := NewPlayer(nil)
	if p.Rate() != DefaultRate {
		t.Fatalf("initial rate = %v, want %v", p.Rate(), DefaultRate)
	}

	var changes []State
	p.OnChange = func(s State) { changes = append(changes, s) }

	if err := p.SetRate(0.5, OriginPose); err != nil {
		t.Fatalf("SetRate() error = %v", err)
	}
	if err := p.SetRate(0.5, OriginPose); err != nil {
		t.Fatalf("SetRate() repeat error = %v", err)
	}
	if err := p.SetRate(math.NaN(), OriginManual); err == nil {
		t.Error("SetRate(NaN) should fail")
	}

	if p.Rate() != 0.5 {
		t.Errorf("Rate() = %v, want 0.5", p.Rate())
	}
	if len(changes) != 1 {
		t.Fatalf("OnChange called %d times, want 1", len(changes))
	}
	if changes[0].RateOrigin != OriginPose {
		t.Errorf("origin = %q, want %q", changes[0].RateOrigin, OriginPose)
	}
}

func TestPlayer_PlayRequiresSource(t *testing.T) {
	p := NewPlayer(nil)
	if err := p.Play(); !errors.Is(err, ErrNoSource) {
		t.Fatalf("Play() error = %v, want ErrNoSource", err)
	}

	p.Load(Source{Name: "song.mp3", URL: "/media/abc.mp3"})
	if err := p.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if !p.IsPlaying() {
		t.Error("IsPlaying() = false after Play")
	}
}

func TestPlayer_Callbacks(t *testing.T) {
	p := NewPlayer(nil)
	var starts, ends int
	p.OnPlaybackStart = func() { starts++ }
	p.OnPlaybackEnd = func() { ends++ }

	p.Pause() // no-op
	p.Load(Source{Name: "a.wav", URL: "/media/a.wav"})
	p.Play()
	p.Play() // already playing
	p.Pause()
	p.Play()
	p.Load(Source{Name: "b.wav", URL: "/media/b.wav"}) // stops playback

	if starts != 2 {
		t.Errorf("OnPlaybackStart called %d times, want 2", starts)
	}
	if ends != 2 {
		t.Errorf("OnPlaybackEnd called %d times, want 2", ends)
	}
	if p.IsPlaying() {
		t.Error("Load should stop playback")
	}
}

func TestPlayer_LoadKeepsRate(t *testing.T) {
	p := NewPlayer(nil)
	p.SetRate(1.7, OriginManual)
	p.Load(Source{Name: "a.wav", URL: "/media/a.wav"})

	s := p.Snapshot()
	if s.Rate != 1.7 {
		t.Errorf("rate after Load = %v, want 1.7", s.Rate)
	}
	if s.Source == nil || s.Source.Name != "a.wav" {
		t.Errorf("source = %+v", s.Source)
	}
	if s.Source.LoadedAt.IsZero() {
		t.Error("LoadedAt should be set")
	}
}

func TestPlayer_SnapshotIsCopy(t *testing.T) {
	p := NewPlayer(nil)
	p.Load(Source{Name: "a.wav"})

	s := p.Snapshot()
	s.Source.Name = "changed"

	if p.Snapshot().Source.Name != "a.wav" {
		t.Error("Snapshot should not alias player state")
	}
}

func TestPlayer_ConcurrentAccess(t *testing.T) {
	p := NewPlayer(nil)
	p.Load(Source{Name: "a.wav"})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p.SetRate(0.2+float64(j)/100, OriginPose)
				if j%10 == 0 {
					p.Play()
					p.Pause()
				}
				_ = p.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	if err := ValidateRate(p.Rate()); err != nil {
		t.Errorf("final rate invalid: %v", err)
	}
}
