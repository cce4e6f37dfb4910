package web

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/olympics/internal/config"
	"github.com/JonMunkholm/olympics/internal/core"
	"github.com/JonMunkholm/olympics/internal/metrics"
)

const testDataset = `[
	{"id":1,"country":"France","participations":[
		{"id":1,"year":1992,"city":"Barcelona","medalsCount":10,"athleteCount":100},
		{"id":2,"year":1996,"city":"Atlanta","medalsCount":14,"athleteCount":120}]},
	{"id":2,"country":"United States","participations":[
		{"id":3,"year":1996,"city":"Atlanta","medalsCount":101,"athleteCount":640},
		{"id":4,"year":2000,"city":"Sydney","medalsCount":93,"athleteCount":586}]}
]`

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second},
	}
}

type testEnv struct {
	server *Server
	store  *core.Store
	hub    *core.NotificationHub
	path   string
}

func newTestEnv(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()
	path := filepath.Join(t.TempDir(), "olympic.json")
	require.NoError(t, os.WriteFile(path, []byte(testDataset), 0o600))

	hub := core.NewNotificationHub(4)
	collector := metrics.New()
	store := core.NewStore(core.NewFileSource(path), hub, core.WithRecorder(collector))
	return &testEnv{
		server: NewServer(cfg, store, hub, collector),
		store:  store,
		hub:    hub,
		path:   path,
	}
}

func loadedEnv(t *testing.T) *testEnv {
	t.Helper()
	env := newTestEnv(t, testConfig())
	require.NoError(t, env.store.Load(context.Background()))
	return env
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestState_BeforeLoad(t *testing.T) {
	env := newTestEnv(t, testConfig())

	rec := env.get(t, "/api/state")
	require.Equal(t, http.StatusOK, rec.Code)

	st := decode[StateResponse](t, rec)
	assert.False(t, st.Loaded)
	assert.False(t, st.Loading)
	assert.Empty(t, st.LastError)

	games := decode[CountResponse](t, env.get(t, "/api/games/count"))
	assert.Nil(t, games.Count)

	assert.Equal(t, "null\n", env.get(t, "/api/olympics").Body.String())
}

func TestAggregateEndpoints(t *testing.T) {
	env := loadedEnv(t)

	games := decode[CountResponse](t, env.get(t, "/api/games/count"))
	require.NotNil(t, games.Count)
	assert.Equal(t, 3, *games.Count)

	share := decode[[]core.CountryMedals](t, env.get(t, "/api/medals/share"))
	assert.Equal(t, []core.CountryMedals{{Name: "France", Value: 24}, {Name: "United States", Value: 194}}, share)

	olympics := decode[core.Snapshot](t, env.get(t, "/api/olympics"))
	assert.Len(t, olympics, 2)

	st := decode[StateResponse](t, env.get(t, "/api/state"))
	assert.True(t, st.Loaded)
	assert.Equal(t, 2, st.Countries)
}

func TestCountryEndpoints(t *testing.T) {
	env := loadedEnv(t)

	tests := []struct {
		path string
		want *int
	}{
		{"/api/countries/France/entries", intPtr(2)},
		{"/api/countries/France/medals", intPtr(24)},
		{"/api/countries/France/athletes", intPtr(220)},
		{"/api/countries/United%20States/athletes", intPtr(1226)},
		{"/api/countries/Atlantis/entries", nil},
		{"/api/countries/Atlantis/medals", intPtr(0)},
		{"/api/countries/Atlantis/athletes", nil},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := env.get(t, tt.path)
			require.Equal(t, http.StatusOK, rec.Code)
			got := decode[CountResponse](t, rec)
			assert.Equal(t, tt.want, got.Count)
		})
	}
}

func TestCountrySeriesAndDetail(t *testing.T) {
	env := loadedEnv(t)

	series := decode[[]core.Series](t, env.get(t, "/api/countries/France/series"))
	require.Len(t, series, 1)
	assert.Equal(t, "France", series[0].Name)
	assert.Equal(t, core.ValidYear(1992), series[0].Series[0].Year)

	assert.Equal(t, "[]\n", env.get(t, "/api/countries/Atlantis/series").Body.String())

	detail := decode[core.CountryDetail](t, env.get(t, "/api/countries/France/detail"))
	assert.Equal(t, 24, detail.Medals)
	require.NotNil(t, detail.Entries)
	assert.Equal(t, 2, *detail.Entries)
}

func TestLoad_NotFoundSurfacesInState(t *testing.T) {
	env := newTestEnv(t, testConfig())
	require.NoError(t, os.Remove(env.path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notes := env.hub.Subscribe(ctx)

	require.Error(t, env.store.Load(context.Background()))

	st := decode[StateResponse](t, env.get(t, "/api/state"))
	assert.False(t, st.Loaded)
	assert.False(t, st.Loading)
	assert.Equal(t, "The requested data could not be found", st.LastError)

	select {
	case n := <-notes:
		assert.Equal(t, "The requested data could not be found", n.Message)
		assert.Equal(t, int64(5000), n.AutoDismiss)
		assert.Equal(t, core.PlacementTopRight, n.Placement)
	case <-time.After(time.Second):
		t.Fatal("no notification sent")
	}
}

func TestPostLoad(t *testing.T) {
	env := newTestEnv(t, testConfig())

	rec := httptest.NewRecorder()
	env.server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/load", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		return decode[StateResponse](t, env.get(t, "/api/state")).Loaded
	}, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, env.server.Shutdown(ctx))
}

func TestPostLoad_APIKey(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1", "k2"}}
	env := newTestEnv(t, cfg)

	tests := []struct {
		name string
		key  string
		want int
	}{
		{"missing key", "", http.StatusUnauthorized},
		{"wrong key", "nope", http.StatusForbidden},
		{"valid key", "k2", http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/load", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := httptest.NewRecorder()
			env.server.Router().ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	// reads stay public
	assert.Equal(t, http.StatusOK, env.get(t, "/api/state").Code)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, env.server.Shutdown(ctx))
}

func TestRateLimiter(t *testing.T) {
	now := time.Unix(0, 0)
	rl := newRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.2"), "limits are per client")

	now = now.Add(61 * time.Second)
	assert.True(t, rl.allow("10.0.0.1"), "window resets")
}

func TestBadCountryName(t *testing.T) {
	env := loadedEnv(t)

	rec := env.get(t, "/api/countries/"+strings.Repeat("x", 200)+"/medals")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_COUNTRY", decode[ErrorResponse](t, rec).Code)
}

func TestCountryName_MatchedVerbatim(t *testing.T) {
	env := loadedEnv(t)

	tests := []struct {
		path        string
		wantCountry string
		wantCount   *int
	}{
		{"/api/countries/France/entries", "France", intPtr(2)},
		{"/api/countries/%20France%20/entries", " France ", nil},
		{"/api/countries/France%2520/entries", "France%20", nil},
		{"/api/countries/100%25/entries", "100%", nil},
		{"/api/countries/AC%2FDC/entries", "AC/DC", nil},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := env.get(t, tt.path)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			got := decode[CountResponse](t, rec)
			assert.Equal(t, tt.wantCountry, got.Country)
			assert.Equal(t, tt.wantCount, got.Count)
		})
	}
}

func TestPages(t *testing.T) {
	env := loadedEnv(t)

	home := env.get(t, "/")
	require.Equal(t, http.StatusOK, home.Code)
	assert.Contains(t, home.Header().Get("Content-Type"), "text/html")
	body := home.Body.String()
	assert.Contains(t, body, `data-loading-delay="500"`)
	assert.Contains(t, body, `<a href="/detail/United%20States">United States</a>`)
	assert.Contains(t, body, `id="games" class="value">3<`)

	detail := env.get(t, "/detail/France")
	require.Equal(t, http.StatusOK, detail.Code)
	assert.Contains(t, detail.Body.String(), `id="athletes" class="value">220<`)

	hostile := env.get(t, "/detail/%3Cscript%3Ealert(1)%3C%2Fscript%3E")
	require.Equal(t, http.StatusOK, hostile.Code)
	assert.NotContains(t, hostile.Body.String(), "<script>alert(1)</script>")
}

func TestSecurityHeadersAndMetrics(t *testing.T) {
	env := loadedEnv(t)

	rec := env.get(t, "/api/state")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	m := env.get(t, "/metrics")
	require.Equal(t, http.StatusOK, m.Code)
	assert.Contains(t, m.Body.String(), `olympics_http_requests_total{method="GET",route="/api/state",status="200"} 1`)
	assert.Contains(t, m.Body.String(), `olympics_dataset_loads_total{outcome="ok",source="file"} 1`)
}

// readEvent returns the data line of the next SSE event named name.
func readEvent(t *testing.T, r *bufio.Reader, name string) string {
	t.Helper()
	var event string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: ") && event == name:
			return strings.TrimPrefix(line, "data: ")
		}
	}
}

func openStream(t *testing.T, ts *httptest.Server, path string) (*bufio.Reader, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+path, nil)
	require.NoError(t, err)

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	return bufio.NewReader(resp.Body), func() {
		cancel()
		resp.Body.Close()
	}
}

func TestStreamGames_FollowsLoads(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ts := httptest.NewServer(env.server.Router())
	defer ts.Close()

	r, closeStream := openStream(t, ts, "/api/stream/games")
	defer closeStream()

	assert.JSONEq(t, `{"count":null}`, readEvent(t, r, "update"))

	require.NoError(t, env.store.Load(context.Background()))
	assert.JSONEq(t, `{"count":3}`, readEvent(t, r, "update"))
}

func TestStreamCountry(t *testing.T) {
	env := loadedEnv(t)
	ts := httptest.NewServer(env.server.Router())
	defer ts.Close()

	r, closeStream := openStream(t, ts, "/api/stream/countries/France")
	defer closeStream()

	var update core.CountryStatus
	require.NoError(t, json.Unmarshal([]byte(readEvent(t, r, "update")), &update))
	assert.Equal(t, "France", update.Name)
	assert.Equal(t, 24, update.Medals)
	assert.False(t, update.Loading)
}

func TestNotificationStream(t *testing.T) {
	env := newTestEnv(t, testConfig())
	require.NoError(t, os.Remove(env.path))
	ts := httptest.NewServer(env.server.Router())
	defer ts.Close()

	r, closeStream := openStream(t, ts, "/api/notifications")
	defer closeStream()

	require.Error(t, env.store.Load(context.Background()))

	var n core.Notification
	require.NoError(t, json.Unmarshal([]byte(readEvent(t, r, "notification")), &n))
	assert.Equal(t, "The requested data could not be found", n.Message)
	assert.Equal(t, "HTTP404", n.Code)
}

func TestWebSocketState(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ts := httptest.NewServer(env.server.Router())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/ws/state", nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg WSMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "state", msg.Type)
	assert.False(t, msg.State.Loaded)

	require.NoError(t, env.store.Load(context.Background()))

	require.Eventually(t, func() bool {
		if err := conn.ReadJSON(&msg); err != nil {
			return false
		}
		return msg.State.Loaded
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, 2, msg.State.Countries)
}

func intPtr(n int) *int { return &n }
