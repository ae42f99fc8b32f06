package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"qctracker/infrastructure/audit"
	"qctracker/infrastructure/metrics"
	"qctracker/infrastructure/qcstate"
	"qctracker/infrastructure/shipments"
	"qctracker/infrastructure/sqlite"
	"qctracker/infrastructure/store"
)

type integrationEnv struct {
	server *httptest.Server
	db     *sqlite.DB
	state  *qcstate.State
	audit  *audit.Service
}

func setupIntegrationServer(t *testing.T) (*integrationEnv, *http.Client) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "server-integration.db")
	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "sqlite", "migrations")
	if err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	reg := prometheus.NewRegistry()
	auditSvc := audit.NewService(db)
	st := store.New(sqlite.NewKVBackend(db))
	state := qcstate.New(shipments.NewRepository(st), st,
		qcstate.WithAuditor(auditSvc),
		qcstate.WithRecorder(metrics.NewPrometheusRecorder(reg)),
		qcstate.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err := state.Load(context.Background()); err != nil {
		t.Fatalf("load state: %v", err)
	}

	s := NewServer("127.0.0.1:0", state, reg)
	ts := httptest.NewServer(s.router)
	env := &integrationEnv{server: ts, db: db, state: state, audit: auditSvc}
	t.Cleanup(func() {
		env.server.Close()
		_ = env.db.Close()
	})

	return env, newHTTPClient(t)
}

func newHTTPClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func get(t *testing.T, client *http.Client, baseURL, path string) *http.Response {
	t.Helper()
	resp, err := client.Get(baseURL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	return resp
}

func send(t *testing.T, client *http.Client, baseURL, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, baseURL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := csrfToken(t, client, baseURL); token != "" {
		req.Header.Set(csrfHeaderName, token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

func csrfToken(t *testing.T, client *http.Client, baseURL string) string {
	t.Helper()
	u, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("parse base url: %v", err)
	}
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == csrfCookieName {
			return c.Value
		}
	}
	return ""
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func TestHealth(t *testing.T) {
	env, client := setupIntegrationServer(t)
	resp := get(t, client, env.server.URL, "/health")
	if body := readBody(t, resp); resp.StatusCode != http.StatusOK || body != "ok" {
		t.Fatalf("unexpected health response %d %q", resp.StatusCode, body)
	}
}

func TestCSRFMutationWithoutTokenRejected(t *testing.T) {
	env, client := setupIntegrationServer(t)

	// No GET first: no CSRF cookie to echo.
	resp := send(t, client, env.server.URL, http.MethodPost, "/api/shipments", `{}`)
	_ = readBody(t, resp)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for missing csrf, got %d", resp.StatusCode)
	}
}

func TestCSRFMutationWithWrongTokenRejected(t *testing.T) {
	env, client := setupIntegrationServer(t)
	_ = readBody(t, get(t, client, env.server.URL, "/"))

	req, _ := http.NewRequest(http.MethodPut, env.server.URL+"/api/shipments/SHP002/level1/draft", strings.NewReader(`{}`))
	req.Header.Set(csrfHeaderName, "forged")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	_ = readBody(t, resp)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for forged csrf, got %d", resp.StatusCode)
	}
}

func TestCSRFCookieSkippedForHealthMetricsAndAssets(t *testing.T) {
	env, client := setupIntegrationServer(t)
	for _, path := range []string{"/health", "/metrics", "/assets/app.css"} {
		resp := get(t, client, env.server.URL, path)
		_ = readBody(t, resp)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, resp.StatusCode)
		}
		if cookie := resp.Header.Get("Set-Cookie"); cookie != "" {
			t.Fatalf("GET %s: expected no csrf cookie, got %q", path, cookie)
		}
	}
	if token := csrfToken(t, client, env.server.URL); token != "" {
		t.Fatalf("expected no csrf cookie in jar, got %q", token)
	}
}

func TestCSRFCrossOriginMutationRejected(t *testing.T) {
	env, client := setupIntegrationServer(t)
	_ = readBody(t, get(t, client, env.server.URL, "/"))

	req, _ := http.NewRequest(http.MethodPut, env.server.URL+"/api/shipments/SHP002/level1/draft", strings.NewReader(`{}`))
	req.Header.Set(csrfHeaderName, csrfToken(t, client, env.server.URL))
	req.Header.Set("Origin", "https://evil.example")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	_ = readBody(t, resp)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for cross-origin request, got %d", resp.StatusCode)
	}
	if s, _ := env.state.Shipment("SHP002"); s.Level1Data != nil {
		t.Fatalf("cross-origin request changed state")
	}
}

func TestDashboardServesSeededShipments(t *testing.T) {
	env, client := setupIntegrationServer(t)
	resp := get(t, client, env.server.URL, "/")
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	for _, id := range []string{"SHP001", "SHP002", "SHP003", "SHP004"} {
		if !strings.Contains(body, id) {
			t.Errorf("dashboard missing %s", id)
		}
	}
	if resp.Header.Get("X-Frame-Options") != "DENY" {
		t.Fatalf("expected secure headers")
	}
}

func TestServerEndToEndCoreFlow(t *testing.T) {
	env, client := setupIntegrationServer(t)
	base := env.server.URL
	_ = readBody(t, get(t, client, base, "/"))

	resp := send(t, client, base, http.MethodPost, "/api/shipments",
		`{"id":"SHP020","supplier":"Zeta Imports","items":"Crates, Pallet wrap","expectedDate":"2026-10-30"}`)
	if body := readBody(t, resp); resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", resp.StatusCode, body)
	}

	resp = send(t, client, base, http.MethodPut, "/api/shipments/SHP020/level1",
		`{"receivedDate":"2026-10-30","receivedBy":"Dana","overallCondition":"Good","packagingIntegrity":"Intact","quantityReceived":12,"damages":"None","documentation":"Complete"}`)
	if body := readBody(t, resp); resp.StatusCode != http.StatusOK {
		t.Fatalf("level 1: expected 200, got %d: %s", resp.StatusCode, body)
	}

	resp = send(t, client, base, http.MethodPut, "/api/shipments/SHP020/level2",
		`{"sampleSize":10,"itemsChecked":20,"totalItems":200,"passedItems":18,"failedItems":2,"defectTypes":["Broken"]}`)
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("level 2: expected 200, got %d: %s", resp.StatusCode, body)
	}
	var view struct {
		Status   string `json:"status"`
		PassRate string `json:"passRate"`
		FailRate string `json:"failRate"`
	}
	if err := json.Unmarshal([]byte(body), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Status != "level2_complete" || view.PassRate != "90.0" || view.FailRate != "10.0" {
		t.Fatalf("unexpected level 2 result: %+v", view)
	}

	history, err := env.audit.History(context.Background(), "SHP020")
	if err != nil {
		t.Fatalf("audit history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 audit entries (add, level 1, level 2), got %d", len(history))
	}

	resp = get(t, client, base, "/api/shipments/SHP020/history")
	var trail struct {
		Entries []struct {
			Action string          `json:"action"`
			Before json.RawMessage `json:"before"`
		} `json:"entries"`
	}
	if err := json.Unmarshal([]byte(readBody(t, resp)), &trail); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(trail.Entries) != 3 || trail.Entries[0].Action != "add_shipment" || trail.Entries[0].Before != nil || trail.Entries[2].Action != "submit_level2" {
		t.Fatalf("unexpected history: %+v", trail.Entries)
	}

	resp = get(t, client, base, "/api/shipments/SHP020/report.pdf")
	pdf := readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(pdf, "%PDF") {
		t.Fatalf("expected pdf report, got %d", resp.StatusCode)
	}

	resp = get(t, client, base, "/metrics")
	exposition := readBody(t, resp)
	if !strings.Contains(exposition, `qctracker_operations_total{operation="submit_level2",result="success"} 1`) {
		t.Fatalf("expected submit_level2 success counter in metrics:\n%s", exposition)
	}
}

func TestBackupRestoreOverHTTP(t *testing.T) {
	env, client := setupIntegrationServer(t)
	base := env.server.URL

	resp := get(t, client, base, "/api/backup")
	snapshot := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("backup: expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Snapshot-Digest") != store.Digest(snapshot) {
		t.Fatalf("digest header does not match body")
	}

	resp = send(t, client, base, http.MethodPut, "/api/shipments/SHP002/level1/draft", `{"receivedBy":"Sam"}`)
	_ = readBody(t, resp)
	if s, _ := env.state.Shipment("SHP002"); s.Level1Data == nil {
		t.Fatalf("expected draft stored before restore")
	}

	resp = send(t, client, base, http.MethodPost, "/api/restore", "{not json")
	if body := readBody(t, resp); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed restore: expected 400, got %d: %s", resp.StatusCode, body)
	}

	resp = send(t, client, base, http.MethodPost, "/api/restore", snapshot)
	if body := readBody(t, resp); resp.StatusCode != http.StatusOK {
		t.Fatalf("restore: expected 200, got %d: %s", resp.StatusCode, body)
	}
	if s, _ := env.state.Shipment("SHP002"); s.Level1Data != nil {
		t.Fatalf("expected draft rolled back by restore, got %+v", s.Level1Data)
	}
}
