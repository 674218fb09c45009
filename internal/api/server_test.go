package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/h1v3-io/tkt/internal/desk"
	"github.com/h1v3-io/tkt/internal/logbuf"
	"github.com/h1v3-io/tkt/internal/ticket"
	"github.com/h1v3-io/tkt/pkg/protocol"
)

func newTestDesk(t *testing.T) *desk.Desk {
	t.Helper()
	store, err := ticket.Open(ticket.NewJSONFile(filepath.Join(t.TempDir(), "tickets.json")))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return desk.New(desk.Config{Store: store})
}

func newTestServer(svc DeskService, key string) *Server {
	return NewServer(svc, Config{Host: "127.0.0.1", Port: 0, Key: key}, nil, nil)
}

func do(t *testing.T, srv *Server, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	srv := newTestServer(newTestDesk(t), "secret")
	w := do(t, srv, "GET", "/api/health", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := decode[map[string]string](t, w); got["status"] != "ok" {
		t.Errorf("got %v", got)
	}
}

func TestProcess(t *testing.T) {
	srv := newTestServer(newTestDesk(t), "")

	w := do(t, srv, "POST", "/api/process", `{"message":"  Create ticket for login bug, high priority "}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var got struct {
		UserInput string          `json:"user_input"`
		Response  json.RawMessage `json:"ai_response"`
		Timestamp string          `json:"timestamp"`
	}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.UserInput != "Create ticket for login bug, high priority" {
		t.Errorf("user_input = %q", got.UserInput)
	}
	if !regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`).MatchString(got.Timestamp) {
		t.Errorf("timestamp = %q", got.Timestamp)
	}
	if !strings.Contains(string(got.Response), `"status":"ok","action":"created"`) {
		t.Errorf("ai_response = %s", got.Response)
	}
	if !strings.Contains(string(got.Response), `"pri":1`) {
		t.Errorf("ai_response = %s", got.Response)
	}
}

func TestProcess_BadRequests(t *testing.T) {
	srv := newTestServer(newTestDesk(t), "")

	for _, body := range []string{`{"message":""}`, `{"message":"   "}`, `{}`, `not json`} {
		w := do(t, srv, "POST", "/api/process", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, w.Code)
		}
	}
}

func TestProcess_UnparseableIsOKResponse(t *testing.T) {
	srv := newTestServer(newTestDesk(t), "")

	w := do(t, srv, "POST", "/api/process", `{"message":"good morning"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ai_response":{"status":"er","msg":"invalid input"}`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

type failingDesk struct{ DeskService }

func (failingDesk) Process(string, string) (protocol.Exchange, error) {
	return protocol.Exchange{}, errors.New("id space exhausted")
}

func TestProcess_HardFailure(t *testing.T) {
	srv := newTestServer(failingDesk{}, "")

	w := do(t, srv, "POST", "/api/process", `{"message":"create ticket x"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if got := decode[map[string]string](t, w); got["error"] == "" {
		t.Error("expected error message")
	}
}

func seed(t *testing.T, d *desk.Desk, texts ...string) {
	t.Helper()
	for _, text := range texts {
		if _, err := d.Process("test", text); err != nil {
			t.Fatal(err)
		}
	}
}

func TestListTickets(t *testing.T) {
	d := newTestDesk(t)
	seed(t, d,
		"Create ticket for login bug, high priority",
		"Create ticket: server outage",
		"Create ticket docs typo, low priority",
		"close T003",
	)
	srv := newTestServer(d, "")

	tests := []struct {
		query string
		count int
	}{
		{"", 3},
		{"?status=open", 2},
		{"?status=done", 1},
		{"?cat=infra", 1},
		{"?pri=high", 2},
		{"?pri=1&cat=code", 1},
		{"?limit=1", 1},
	}
	for _, tt := range tests {
		w := do(t, srv, "GET", "/api/tickets"+tt.query, "")
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status %d", tt.query, w.Code)
		}
		got := decode[struct {
			Status string             `json:"status"`
			Count  int                `json:"count"`
			Data   []protocol.Summary `json:"data"`
		}](t, w)
		if got.Status != "ok" || got.Count != tt.count || len(got.Data) != tt.count {
			t.Errorf("%q: got %+v, want count %d", tt.query, got, tt.count)
		}
	}
}

func TestListTickets_BadFilter(t *testing.T) {
	srv := newTestServer(newTestDesk(t), "")
	for _, q := range []string{"?status=closed", "?cat=hardware", "?pri=9", "?limit=x", "?limit=-1"} {
		if w := do(t, srv, "GET", "/api/tickets"+q, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, w.Code)
		}
	}
}

func TestGetTicket(t *testing.T) {
	d := newTestDesk(t)
	seed(t, d, "Create ticket for login bug, high priority")
	srv := newTestServer(d, "")

	w := do(t, srv, "GET", "/api/tickets/T001", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	got := decode[struct {
		Status string          `json:"status"`
		Data   protocol.Ticket `json:"data"`
	}](t, w)
	if got.Status != "ok" || got.Data.ID != "T001" || got.Data.Cat != protocol.CategoryCode {
		t.Errorf("got %+v", got)
	}

	w = do(t, srv, "GET", "/api/tickets/T999", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if body := strings.TrimSpace(w.Body.String()); body != `{"status":"nf","msg":"ticket not found"}` {
		t.Errorf("body = %s", body)
	}
}

func TestExportAndStats(t *testing.T) {
	d := newTestDesk(t)
	seed(t, d, "Create ticket: server outage", "Create ticket for login bug, high priority")
	srv := newTestServer(d, "")

	records := decode[[]protocol.Ticket](t, do(t, srv, "GET", "/api/export", ""))
	if len(records) != 2 || records[0].ID != "T001" || records[1].ID != "T002" {
		t.Errorf("export = %+v", records)
	}

	stats := decode[protocol.Stats](t, do(t, srv, "GET", "/api/stats", ""))
	if stats.Total != 2 || stats.HighPriority != 2 || stats.ByCategory[protocol.CategoryInfra] != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestHelp(t *testing.T) {
	srv := newTestServer(newTestDesk(t), "secret")
	w := do(t, srv, "GET", "/api/help", "")
	if w.Code != http.StatusOK {
		t.Fatalf("help must not need auth, got %d", w.Code)
	}
	got := decode[struct {
		Commands   map[string]string `json:"commands"`
		Categories map[string]string `json:"categories"`
		Examples   []string          `json:"examples"`
	}](t, w)
	if len(got.Commands) != 4 || len(got.Categories) != 4 || len(got.Examples) == 0 {
		t.Errorf("help = %+v", got)
	}
}

func TestActivity(t *testing.T) {
	d := newTestDesk(t)
	srv := newTestServer(d, "")
	do(t, srv, "POST", "/api/process", `{"message":"create ticket one"}`)
	do(t, srv, "POST", "/api/process", `{"message":"show open tickets"}`)

	feed := decode[[]protocol.Exchange](t, do(t, srv, "GET", "/api/activity?limit=1", ""))
	if len(feed) != 1 || feed[0].UserInput != "show open tickets" || feed[0].Channel != ChannelAPI {
		t.Errorf("activity = %+v", feed)
	}
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(newTestDesk(t), "secret-key")

	w := do(t, srv, "GET", "/api/tickets", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	w = do(t, srv, "GET", "/api/tickets", "", "Authorization", "Bearer wrong")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: expected 401, got %d", w.Code)
	}
	w = do(t, srv, "GET", "/api/tickets", "", "Authorization", "Bearer secret-key")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(newTestDesk(t), "secret")
	w := do(t, srv, "OPTIONS", "/api/process", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func TestMount(t *testing.T) {
	srv := newTestServer(newTestDesk(t), "")
	srv.Mount("POST /api/webhook/{name}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.PathValue("name")))
	}))

	w := do(t, srv, "POST", "/api/webhook/ci", "{}")
	if w.Body.String() != "ci" {
		t.Errorf("mounted handler got %q", w.Body.String())
	}
}

func TestGetLogs(t *testing.T) {
	buf := logbuf.New(10)
	buf.Write(logbuf.Entry{Time: time.Now(), Level: slog.LevelInfo, Message: "info"})
	buf.Write(logbuf.Entry{Time: time.Now(), Level: slog.LevelError, Message: "boom"})
	srv := NewServer(newTestDesk(t), Config{}, nil, buf)

	entries := decode[[]logbuf.Entry](t, do(t, srv, "GET", "/api/logs?level=warn", ""))
	if len(entries) != 1 || entries[0].Message != "boom" {
		t.Errorf("entries = %+v", entries)
	}

	noLogs := newTestServer(newTestDesk(t), "")
	if body := strings.TrimSpace(do(t, noLogs, "GET", "/api/logs", "").Body.String()); body != "[]" {
		t.Errorf("no buffer: %s", body)
	}
}
