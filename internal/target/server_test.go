package target

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestServer_Health(t *testing.T) {
	ts := httptest.NewServer(NewServer().Handler())
	defer ts.Close()

	status, body := get(t, ts.URL+"/health")
	if status != http.StatusOK {
		t.Errorf("Expected status 200, got %d", status)
	}
	if gjson.Get(body, "status").String() != "ok" {
		t.Errorf("Expected status field ok, got %s", body)
	}
}

func TestServer_Simple(t *testing.T) {
	ts := httptest.NewServer(NewServer().Handler())
	defer ts.Close()

	status, body := get(t, ts.URL+"/simple")
	if status != http.StatusOK {
		t.Errorf("Expected status 200, got %d", status)
	}
	if body != "hello" {
		t.Errorf("Expected body hello, got %q", body)
	}
}

func TestServer_JSON(t *testing.T) {
	ts := httptest.NewServer(NewServer().Handler())
	defer ts.Close()

	_, first := get(t, ts.URL+"/json")
	_, second := get(t, ts.URL+"/json")

	if gjson.Get(first, "id").Int() >= gjson.Get(second, "id").Int() {
		t.Errorf("Expected increasing ids, got %s then %s",
			gjson.Get(first, "id").Raw, gjson.Get(second, "id").Raw)
	}
}

func TestServer_QueryEcho(t *testing.T) {
	ts := httptest.NewServer(NewServer().Handler())
	defer ts.Close()

	status, body := get(t, ts.URL+"/query?limit=25&offset=50")
	if status != http.StatusOK {
		t.Errorf("Expected status 200, got %d", status)
	}
	if gjson.Get(body, "params.limit").String() != "25" {
		t.Errorf("Expected params.limit=25, got %s", body)
	}
	if gjson.Get(body, "params.offset").String() != "50" {
		t.Errorf("Expected params.offset=50, got %s", body)
	}
}

func TestServer_Delay(t *testing.T) {
	ts := httptest.NewServer(NewServer().Handler())
	defer ts.Close()

	start := time.Now()
	status, body := get(t, ts.URL+"/delay/30")
	elapsed := time.Since(start)

	if status != http.StatusOK {
		t.Errorf("Expected status 200, got %d", status)
	}
	if !strings.Contains(body, "delayed 30ms") {
		t.Errorf("Unexpected body %q", body)
	}
	if elapsed < 30*time.Millisecond {
		t.Errorf("Response arrived after %v, expected at least 30ms", elapsed)
	}
}

func TestServer_DelayInvalid(t *testing.T) {
	ts := httptest.NewServer(NewServer().Handler())
	defer ts.Close()

	status, _ := get(t, ts.URL+"/delay/nope")
	if status != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", status)
	}
}

func TestServer_Lifecycle(t *testing.T) {
	s := NewServer()
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if s.Port() == 0 {
		t.Error("Expected a non-zero ephemeral port")
	}

	status, _ := get(t, s.URL()+"/health")
	if status != http.StatusOK {
		t.Errorf("Expected status 200 from running server, got %d", status)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if _, err := http.Get(s.URL() + "/health"); err == nil {
		t.Error("Expected connection error after shutdown")
	}
}

func TestServer_ShutdownWithoutStart(t *testing.T) {
	s := NewServer()
	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown before Start should be a no-op, got %v", err)
	}
}
