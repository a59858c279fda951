// posetempo - pose-driven audio playback rate.
// A webcam feeds a pose landmark model; the angle of the upper arm sets the
// playback rate of the audio loaded in the web dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/teslashibe/posetempo/internal/config"
	"github.com/teslashibe/posetempo/internal/log"
	"github.com/teslashibe/posetempo/pkg/app"
	"github.com/teslashibe/posetempo/pkg/pose/detection"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	cfg := parseFlags()

	level := config.String("LOG_LEVEL", "info")
	if cfg.Debug {
		level = "debug"
	}
	log.Init(level)

	printBanner(cfg)

	a, err := app.New(cfg, log.L())
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	if err := a.Init(); err != nil {
		log.Error("initialization failed", "error", err)
		os.Exit(1)
	}
	defer a.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		log.Error("runtime error", "error", err)
	}
}

// parseFlags parses command line flags and returns configuration.
// Environment variables set the defaults; flags override them.
func parseFlags() app.Config {
	cfg := app.DefaultConfig()
	cfg.LoadEnvConfig()

	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable verbose debug logging")
	flag.StringVar(&cfg.Web.Port, "port", cfg.Web.Port, "Dashboard port")
	flag.StringVar(&cfg.Web.StaticDir, "static", cfg.Web.StaticDir, "Dashboard directory")
	flag.StringVar(&cfg.Web.UploadDir, "uploads", cfg.Web.UploadDir, "Directory for uploaded audio")
	flag.StringVar(&cfg.Camera.Device, "camera", cfg.Camera.Device, "Camera index or stream URL")
	flag.BoolVar(&cfg.Camera.Mirror, "mirror", cfg.Camera.Mirror, "Mirror the camera image")
	flag.BoolVar(&cfg.NoCamera, "no-camera", cfg.NoCamera, "Run without a camera (audio controls only)")
	flag.StringVar(&cfg.Detector.ModelPath, "model", cfg.Detector.ModelPath, "Pose landmark ONNX model")
	flag.IntVar(&cfg.Detector.NumPoses, "num-poses", cfg.Detector.NumPoses, "Maximum poses per frame")
	delegate := flag.String("delegate", string(cfg.Detector.Delegate), "Inference device: CPU or GPU")
	flag.DurationVar(&cfg.Tempo.FrameInterval, "interval", cfg.Tempo.FrameInterval, "Frame loop interval")
	flag.StringVar(&cfg.Tempo.JournalPath, "journal", cfg.Tempo.JournalPath, "Angle journal file (JSON lines, rotated)")
	flag.Parse()

	cfg.Detector.Delegate = detection.Delegate(*delegate)
	return cfg
}

func printBanner(cfg app.Config) {
	title := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.Faint)

	title.Println("🎵 posetempo")
	dim.Println("==============================================")
	fmt.Printf("   Dashboard: %s\n", color.GreenString("http://localhost:%s", cfg.Web.Port))
	if cfg.NoCamera {
		fmt.Printf("   Camera:    %s\n", color.YellowString("disabled"))
	} else {
		fmt.Printf("   Camera:    %s (%dx%d @ %d fps)\n", cfg.Camera.Device, cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.Framerate)
	}
	fmt.Printf("   Model:     %s [%s, %d poses]\n", cfg.Detector.ModelPath, cfg.Detector.Delegate, cfg.Detector.NumPoses)
	fmt.Printf("   Segment:   landmark %d → %d (%s)\n", cfg.Tempo.Mapper.From, cfg.Tempo.Mapper.To, cfg.Tempo.Mapper.Mode)
	dim.Println("   (Ctrl+C to exit)")
}
