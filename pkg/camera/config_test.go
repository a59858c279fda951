package camera

import "testing"

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("DefaultConfig() invalid: %v", errs)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"default", func(c *Config) {}, false},
		{"url device", func(c *Config) { c.Device = "rtsp://cam.local/stream" }, false},
		{"empty device", func(c *Config) { c.Device = "" }, true},
		{"width too small", func(c *Config) { c.Width = 100 }, true},
		{"width too large", func(c *Config) { c.Width = 5000 }, true},
		{"height too small", func(c *Config) { c.Height = 50 }, true},
		{"zero framerate", func(c *Config) { c.Framerate = 0 }, true},
		{"framerate too high", func(c *Config) { c.Framerate = 240 }, true},
		{"quality zero", func(c *Config) { c.Quality = 0 }, true},
		{"quality too high", func(c *Config) { c.Quality = 101 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			errs := cfg.Validate()
			if (len(errs) > 0) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", errs, tt.wantErr)
			}
		})
	}
}

func TestConfig_DeviceIndex(t *testing.T) {
	tests := []struct {
		device string
		want   int
		wantOK bool
	}{
		{"0", 0, true},
		{"2", 2, true},
		{"-1", 0, false},
		{"/dev/video0", 0, false},
		{"rtsp://cam/stream", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.device, func(t *testing.T) {
			cfg := Config{Device: tt.device}
			got, ok := cfg.DeviceIndex()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("DeviceIndex() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestPresets_AllValid(t *testing.T) {
	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			p := GetPreset(name)
			if p == nil {
				t.Fatalf("GetPreset(%q) = nil", name)
			}
			if errs := p.Validate(); len(errs) > 0 {
				t.Errorf("preset %q invalid: %v", name, errs)
			}
		})
	}
	if GetPreset("nope") != nil {
		t.Error("GetPreset(unknown) should be nil")
	}
}
