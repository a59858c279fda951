// tempo-watch - follow a running posetempo server from the terminal.
//
// Prints the tracking state and every playback rate change pushed over the
// status websocket. Optionally toggles predictions or sets a rate first.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"

	"github.com/teslashibe/posetempo/internal/config"
	"github.com/teslashibe/posetempo/internal/httpc"
	"github.com/teslashibe/posetempo/pkg/audio"
	"github.com/teslashibe/posetempo/pkg/hub"
	"github.com/teslashibe/posetempo/pkg/tempo"
	"github.com/teslashibe/posetempo/pkg/web"
)

var (
	stateColor = color.New(color.FgCyan, color.Bold)
	rateColor  = color.New(color.FgGreen, color.Bold)
	warnColor  = color.New(color.FgYellow)
	errColor   = color.New(color.FgRed)
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		errColor.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	server := flag.String("server", config.String("TEMPO_SERVER", config.DefaultServerURL), "posetempo server URL")
	toggle := flag.Bool("toggle", false, "Toggle predictions before watching")
	rate := flag.Float64("rate", 0, "Set a manual playback rate before watching")
	once := flag.Bool("once", false, "Print the current status and exit")
	flag.Parse()

	base := strings.TrimRight(*server, "/")
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *toggle {
		var resp web.TrackingResponse
		err := httpc.PostJSON(ctx, base+"/api/tracking/toggle", nil, &resp)
		var se *httpc.StatusError
		if errors.As(err, &se) && se.Code == 409 {
			warnColor.Println("⚠️  Pose landmarker not loaded yet")
		} else if err != nil {
			fail("toggle: %v", err)
		} else {
			stateColor.Printf("▶ %s (%s)\n", resp.State, resp.Label)
		}
	}

	if *rate != 0 {
		var st audio.State
		if err := httpc.PostJSON(ctx, base+"/api/playback/rate", map[string]float64{"rate": *rate}, &st); err != nil {
			fail("set rate: %v", err)
		}
		rateColor.Printf("♪ rate %.2fx\n", st.Rate)
	}

	var status web.StatusResponse
	if err := httpc.GetJSON(ctx, base+"/api/status", &status); err != nil {
		fail("status: %v", err)
	}
	printSession(status.Session)
	printPlayer(status.Player)
	if *once {
		return
	}

	if err := watch(ctx, base); err != nil && ctx.Err() == nil {
		fail("watch: %v", err)
	}
}

// watch streams status events until ctx is cancelled or the server goes away.
func watch(ctx context.Context, base string) error {
	u, err := url.Parse(base)
	if err != nil {
		return err
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = "/ws/status"

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", u, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		conn.Close()
	}()

	color.New(color.Faint).Printf("watching %s (Ctrl+C to exit)\n", u)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}

		var ev hub.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}

		switch ev.Type {
		case "status":
			var st tempo.Status
			if json.Unmarshal(ev.Data, &st) == nil {
				printSession(st)
			}
		case "player":
			var st audio.State
			if json.Unmarshal(ev.Data, &st) == nil {
				printPlayer(st)
			}
		}
	}
}

func printSession(st tempo.Status) {
	ts := time.Now().Format("15:04:05")
	stateColor.Printf("[%s] %-13s", ts, st.State)
	if st.HasRate {
		fmt.Printf(" poses=%d angle=%6.1f° ", st.Poses, st.MeanAngle)
		rateColor.Printf("rate=%.2fx", st.Rate)
	}
	fmt.Printf("  frames=%d skipped=%d", st.FramesProcessed, st.FramesSkipped)
	if st.Errors > 0 {
		errColor.Printf(" errors=%d", st.Errors)
	}
	fmt.Println()
}

func printPlayer(st audio.State) {
	ts := time.Now().Format("15:04:05")
	name := "(no audio)"
	if st.Source != nil {
		name = st.Source.Name
	}
	state := "paused"
	if st.Playing {
		state = "playing"
	}
	fmt.Printf("[%s] ♪ %s %s ", ts, name, state)
	rateColor.Printf("%.2fx", st.Rate)
	fmt.Printf(" (%s)\n", st.RateOrigin)
}

func fail(format string, args ...interface{}) {
	errColor.Fprintf(os.Stderr, "❌ "+format+"\n", args...)
	os.Exit(1)
}
