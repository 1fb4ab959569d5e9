//go:build integration || !unit

package integration

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/shopspring/decimal"

	httpserver "stayfinder/internal/adapters/http_server"
	redisad "stayfinder/internal/adapters/redis"
	"stayfinder/internal/app"
	"stayfinder/internal/domain"
	mysqlrepo "stayfinder/internal/storage/mysql"
)

// ---------- helpers ----------

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		stmts, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(stmts)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// startStack brings up an isolated MySQL container plus an in-process Redis
// and wires the real services behind an httptest server.
func startStack(t *testing.T) *httptest.Server {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=stayfinder",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/stayfinder?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC", hostPort)

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	applyMigrations(t, db)

	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)

	repo := mysqlrepo.New(db)
	settings := domain.CacheSettings{
		KeyPrefix: "availability",
		BaseTags:  []string{"availability"},
		TagPrefix: "property",
		TTL:       24 * time.Hour,
	}
	search := app.NewSearchService(repo, cache, settings)
	ingest := app.NewIngestionService(repo, cache, settings.TagPrefix)
	webhook := app.NewWebhookService(search)

	srv := httpserver.New()
	srv.MountHandlers(&httpserver.Handlers{Search: search, Ingest: ingest, Webhook: webhook})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

type offerResp struct {
	RoomID     string          `json:"room_id"`
	MaxGuests  int             `json:"max_guests"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type availabilityResp struct {
	PropertyID string      `json:"property_id"`
	Rooms      []offerResp `json:"rooms"`
}

func getAvailability(t *testing.T, base, propertyID string, guests int) (int, availabilityResp) {
	t.Helper()
	url := fmt.Sprintf("%s/v1/availability?property_id=%s&check_in=2025-12-01&check_out=2025-12-03&guests=%d",
		base, propertyID, guests)
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var out availabilityResp
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.StatusCode, out
}

func feedBody(price1, price2 string) map[string]any {
	return map[string]any{
		"property_id": "1001",
		"name":        "Sunshine",
		"rooms": []map[string]any{
			{"room_id": "R101", "date": "2025-12-01", "max_guests": 2, "price": json.Number(price1)},
			{"room_id": "R101", "date": "2025-12-02", "max_guests": 2, "price": json.Number(price2)},
		},
	}
}

// ---------- the tests ----------

func TestHTTP_EndToEnd_Availability(t *testing.T) {
	ts := startStack(t)

	resp := postJSON(t, ts.URL+"/v1/availability/ingest", feedBody("100.00", "105.00"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ingest status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Two-night stay for two guests: one offer with the exact nightly sum.
	status, out := getAvailability(t, ts.URL, "1001", 2)
	if status != http.StatusOK {
		t.Fatalf("availability status: %d", status)
	}
	if out.PropertyID != "1001" || len(out.Rooms) != 1 {
		t.Fatalf("unexpected result: %+v", out)
	}
	if out.Rooms[0].RoomID != "R101" || out.Rooms[0].MaxGuests != 2 {
		t.Fatalf("unexpected offer: %+v", out.Rooms[0])
	}
	if want, _ := decimal.NewFromString("205.00"); !out.Rooms[0].TotalPrice.Equal(want) {
		t.Fatalf("total_price = %s, want 205.00", out.Rooms[0].TotalPrice)
	}

	// The same property resolved by display name, different case.
	if status, byName := getAvailability(t, ts.URL, "sunshine", 2); status != http.StatusOK || byName.PropertyID != "1001" {
		t.Fatalf("lookup by name: status=%d result=%+v", status, byName)
	}

	// Too many guests: empty result, not an error.
	if status, none := getAvailability(t, ts.URL, "1001", 3); status != http.StatusOK || len(none.Rooms) != 0 {
		t.Fatalf("capacity rule: status=%d rooms=%+v", status, none.Rooms)
	}

	if status, _ := getAvailability(t, ts.URL, "atlantis", 2); status != http.StatusNotFound {
		t.Fatalf("unknown property status: %d", status)
	}

	degURL := ts.URL + "/v1/availability?property_id=1001&check_in=2025-12-01&check_out=2025-12-01&guests=2"
	degResp, err := http.Get(degURL)
	if err != nil {
		t.Fatalf("degenerate range: %v", err)
	}
	degResp.Body.Close()
	if degResp.StatusCode != http.StatusBadRequest {
		t.Fatalf("degenerate range status: %d", degResp.StatusCode)
	}

	// Re-ingest with a new rate; the cached search must not go stale.
	resp = postJSON(t, ts.URL+"/v1/availability/ingest", feedBody("150.00", "105.00"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("re-ingest status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	status, fresh := getAvailability(t, ts.URL, "1001", 2)
	if status != http.StatusOK || len(fresh.Rooms) != 1 {
		t.Fatalf("fresh read: status=%d result=%+v", status, fresh)
	}
	if want, _ := decimal.NewFromString("255.00"); !fresh.Rooms[0].TotalPrice.Equal(want) {
		t.Fatalf("stale result after re-ingestion: %s", fresh.Rooms[0].TotalPrice)
	}
}

func TestHTTP_EndToEnd_AgentWebhook(t *testing.T) {
	ts := startStack(t)

	resp := postJSON(t, ts.URL+"/v1/availability/ingest", feedBody("100.00", "105.00"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ingest status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	body := map[string]any{
		"queryResult": map[string]any{
			"queryText": "rooms at sunshine for two",
			"parameters": map[string]any{
				"property_id":    "sunshine",
				"check_in_date":  "2025-12-01",
				"check_out_date": "2025-12-03",
				"guests":         2,
			},
		},
	}
	resp = postJSON(t, ts.URL+"/v1/agent-webhook", body)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("webhook status: %d", resp.StatusCode)
	}
	var out struct {
		FulfillmentText string `json:"fulfillmentText"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(out.FulfillmentText, "1 room(s) available") || !strings.Contains(out.FulfillmentText, "$205.00") {
		t.Fatalf("unexpected fulfillment: %q", out.FulfillmentText)
	}
}
