package httpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s", r.Method)
		}
		w.Write([]byte(`{"rate": 1.5}`))
	}))
	defer srv.Close()

	var out struct{ Rate float64 }
	if err := GetJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if out.Rate != 1.5 {
		t.Errorf("Rate = %v, want 1.5", out.Rate)
	}
}

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		var in map[string]float64
		json.NewDecoder(r.Body).Decode(&in)
		json.NewEncoder(w).Encode(map[string]float64{"echo": in["rate"]})
	}))
	defer srv.Close()

	var out map[string]float64
	if err := PostJSON(context.Background(), srv.URL, map[string]float64{"rate": 0.8}, &out); err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}
	if out["echo"] != 0.8 {
		t.Errorf("echo = %v, want 0.8", out["echo"])
	}
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"not ready"}`))
	}))
	defer srv.Close()

	err := PostJSON(context.Background(), srv.URL, nil, nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if se.Code != http.StatusConflict || se.Body != `{"error":"not ready"}` {
		t.Errorf("StatusError = %+v", se)
	}
}
