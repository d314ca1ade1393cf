package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp/fasthttputil"
	"go.uber.org/zap"

	"github.com/park285/fairy-eval-harness/internal/reportstore"
	"github.com/park285/fairy-eval-harness/pkg/reportdto"
)

func newTestClient(t *testing.T, store *reportstore.Store) *http.Client {
	t.Helper()

	ln := fasthttputil.NewInmemoryListener()
	srv := New(store, zap.NewNop())
	go func() {
		if err := srv.Serve(ln); err != nil {
			t.Logf("serve: %v", err)
		}
	}()
	t.Cleanup(func() {
		_ = srv.Shutdown()
		_ = ln.Close()
	})

	return &http.Client{
		Transport: &http.Transport{
			DialContext: func(context.Context, string, string) (net.Conn, error) {
				return ln.Dial()
			},
		},
		Timeout: 5 * time.Second,
	}
}

func newTestStore(t *testing.T) *reportstore.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return reportstore.New(rdb, time.Hour)
}

func fetch(t *testing.T, client *http.Client, path string) (int, []byte) {
	t.Helper()
	resp, err := client.Get("http://harness" + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, body
}

func TestHealthz(t *testing.T) {
	client := newTestClient(t, newTestStore(t))

	status, body := fetch(t, client, "/healthz")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	var payload map[string]string
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["status"] != "ok" {
		t.Fatalf("status payload = %q", payload["status"])
	}
}

func TestRunByID(t *testing.T) {
	store := newTestStore(t)
	client := newTestClient(t, store)

	mg := 1.5
	run := reportdto.Run{
		ID:      "run-1",
		Binary:  "/engines/fairy-stockfish",
		Profile: "variant",
		FEN:     "startpos",
		Table: map[string]map[string]reportdto.Score{
			"Material": {"White MG": {Mg: &mg}},
		},
		RowOrder: []string{"Material"},
	}
	if err := store.SaveRun(context.Background(), run.ID, run.Binary, &run); err != nil {
		t.Fatalf("save run: %v", err)
	}

	status, body := fetch(t, client, "/api/runs/run-1")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", status, body)
	}
	var got reportdto.Run
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "run-1" || got.Profile != "variant" {
		t.Fatalf("unexpected run: %+v", got)
	}
	if got.Table["Material"]["White MG"].Mg == nil || *got.Table["Material"]["White MG"].Mg != 1.5 {
		t.Fatalf("score not preserved: %+v", got.Table)
	}
}

func TestRunNotFound(t *testing.T) {
	client := newTestClient(t, newTestStore(t))

	status, body := fetch(t, client, "/api/runs/nope")
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", status, body)
	}
	var herr reportdto.HarnessError
	if err := json.Unmarshal(body, &herr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if herr.Code != "run_not_found" {
		t.Fatalf("code = %q", herr.Code)
	}
}

func TestLatestRun(t *testing.T) {
	store := newTestStore(t)
	client := newTestClient(t, store)

	for _, id := range []string{"run-1", "run-2"} {
		run := reportdto.Run{ID: id, Binary: "/engines/fairy-stockfish", Profile: "variant"}
		if err := store.SaveRun(context.Background(), id, run.Binary, &run); err != nil {
			t.Fatalf("save run %s: %v", id, err)
		}
	}

	status, body := fetch(t, client, "/api/runs/latest?binary=fairy-stockfish")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", status, body)
	}
	var got reportdto.Run
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "run-2" {
		t.Fatalf("latest = %q, want run-2", got.ID)
	}
}

func TestLatestRunRequiresBinary(t *testing.T) {
	client := newTestClient(t, newTestStore(t))

	status, _ := fetch(t, client, "/api/runs/latest")
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	client := newTestClient(t, newTestStore(t))

	resp, err := client.Post("http://harness/healthz", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}
