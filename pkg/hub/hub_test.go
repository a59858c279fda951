package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
)

// fakeConn records writes and blocks reads until closed.
type fakeConn struct {
	mu     sync.Mutex
	writes []written
	closed chan struct{}
	once   sync.Once
}

type written struct {
	kind int
	data []byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	<-c.closed
	return 0, nil, errors.New("closed")
}

func (c *fakeConn) WriteMessage(kind int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, written{kind, append([]byte(nil), data...)})
	return nil
}

func (c *fakeConn) SetReadLimit(int64)                {}
func (c *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error  { return nil }
func (c *fakeConn) SetPongHandler(func(string) error) {}
func (c *fakeConn) Close() error                      { c.once.Do(func() { close(c.closed) }); return nil }
func (c *fakeConn) Writes() []written {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]written(nil), c.writes...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func startHub(t *testing.T, h *Hub) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	waitFor(t, "hub running", h.IsRunning)
	return cancel
}

func TestHub_BroadcastReachesClients(t *testing.T) {
	h := New("test", nil)
	cancel := startHub(t, h)
	defer cancel()

	conns := []*fakeConn{newFakeConn(), newFakeConn()}
	for _, conn := range conns {
		go NewClient(h, conn).Run()
	}
	waitFor(t, "clients registered", func() bool { return h.ClientCount() == 2 })

	if err := h.BroadcastJSON(map[string]float64{"rate": 1.5}); err != nil {
		t.Fatalf("BroadcastJSON() error = %v", err)
	}
	h.BroadcastBinary([]byte{0xff, 0xd8})

	for i, conn := range conns {
		waitFor(t, "two writes", func() bool { return len(conn.Writes()) == 2 })
		w := conn.Writes()
		if w[0].kind != websocket.TextMessage || string(w[0].data) != `{"rate":1.5}` {
			t.Errorf("client %d first write = %d %q", i, w[0].kind, w[0].data)
		}
		if w[1].kind != websocket.BinaryMessage {
			t.Errorf("client %d second write kind = %d, want binary", i, w[1].kind)
		}
	}
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	h := New("test", nil)
	cancel := startHub(t, h)
	defer cancel()

	conn := newFakeConn()
	go NewClient(h, conn).Run()
	waitFor(t, "client registered", func() bool { return h.ClientCount() == 1 })

	conn.Close()
	waitFor(t, "client removed", func() bool { return h.ClientCount() == 0 })
}

func TestHub_DropsSlowClient(t *testing.T) {
	h := New("test", nil)
	cancel := startHub(t, h)
	defer cancel()

	// A client with no writer drains nothing
	slow := &Client{hub: h, conn: newFakeConn(), send: make(chan Message, 1)}
	h.register <- slow
	waitFor(t, "client registered", func() bool { return h.ClientCount() == 1 })

	h.BroadcastBinary([]byte{1})
	h.BroadcastBinary([]byte{2})

	waitFor(t, "slow client dropped", func() bool { return h.ClientCount() == 0 })

	<-slow.send // queued message
	if _, ok := <-slow.send; ok {
		t.Error("slow client's send channel should be closed")
	}
}

func TestHub_ReplayLast(t *testing.T) {
	h := New("status", nil).ReplayLast()
	cancel := startHub(t, h)
	defer cancel()

	if err := h.BroadcastEvent("status", map[string]string{"state": "ready"}); err != nil {
		t.Fatal(err)
	}
	if err := h.BroadcastEvent("status", map[string]string{"state": "running"}); err != nil {
		t.Fatal(err)
	}
	h.BroadcastBinary([]byte{0xff}) // unkeyed, not replayed

	// Give the hub loop time to consume the broadcasts
	time.Sleep(50 * time.Millisecond)

	conn := newFakeConn()
	go NewClient(h, conn).Run()
	waitFor(t, "replayed message", func() bool { return len(conn.Writes()) == 1 })

	var ev Event
	if err := json.Unmarshal(conn.Writes()[0].data, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Type != "status" || string(ev.Data) != `{"state":"running"}` {
		t.Errorf("replayed event = %+v (%s)", ev, ev.Data)
	}
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	h := New("test", nil)
	cancel := startHub(t, h)

	conn := newFakeConn()
	done := make(chan struct{})
	go func() {
		NewClient(h, conn).Run()
		close(done)
	}()
	waitFor(t, "client registered", func() bool { return h.ClientCount() == 1 })

	cancel()
	waitFor(t, "hub stopped", func() bool { return !h.IsRunning() })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("client did not exit after hub shutdown")
	}

	w := conn.Writes()
	if len(w) == 0 || w[len(w)-1].kind != websocket.CloseMessage {
		t.Errorf("writes = %+v, want trailing close frame", w)
	}
}

func TestNewClient_AfterShutdown(t *testing.T) {
	h := New("test", nil)
	cancel := startHub(t, h)
	cancel()
	waitFor(t, "hub stopped", func() bool { return !h.IsRunning() })

	done := make(chan struct{})
	go func() {
		NewClient(h, newFakeConn()).Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("client should not block on a stopped hub")
	}
}

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent("player", map[string]bool{"playing": true})
	if err != nil {
		t.Fatalf("NewEvent() error = %v", err)
	}
	if ev.Type != "player" || string(ev.Data) != `{"playing":true}` || ev.Time.IsZero() {
		t.Errorf("NewEvent() = %+v", ev)
	}

	if _, err := NewEvent("bad", make(chan int)); err == nil {
		t.Error("NewEvent() should fail for unencodable payload")
	}
}
