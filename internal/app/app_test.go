package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mateusmacedo/go-flights/internal/config"
	zapAdapter "github.com/mateusmacedo/go-flights/pkg/infrastructure/zaplogger/adapter"
)

func testConfig(driver, transport string) *config.Config {
	return &config.Config{
		App:      config.App{Name: "flight-search-test"},
		HTTP:     config.HTTP{RequestTimeout: 2 * time.Second, ShutdownTimeout: time.Second},
		Database: config.Database{Driver: driver},
		Bus:      config.Bus{Transport: transport, ConsumerGroup: "test", ConsumerName: "test-1"},
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	a, err := New(ctx, cfg, zapAdapter.NewZapAppLoggerFrom(zaptest.NewLogger(t)))
	require.NoError(t, err)

	server := httptest.NewServer(a.Handler())
	t.Cleanup(func() {
		server.Close()
		cancel()
		assert.NoError(t, a.Close())
	})
	return server
}

func post(t *testing.T, server *httptest.Server, path, body string) (int, string) {
	t.Helper()

	resp, err := http.Post(server.URL+path, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

const batch = `{"tickets":[
	{"id":"A","departure_code":"MOW","arrival_code":"LED","departure_time":1542672000,"arrival_time":1542675600,"price":100},
	{"id":"B","departure_code":"LED","arrival_code":"AER","departure_time":1542690000,"arrival_time":1542693600,"price":50},
	{"id":"C","departure_code":"MOW","arrival_code":"AER","departure_time":1542679200,"arrival_time":1542686400,"price":200}
]}`

const search = `{"departure_code":"MOW","arrival_code":"AER","departure_date":"2018-11-20","limit":10}`

const expected = `{"solutions":[{"ids":["A","B"],"price":150},{"ids":["C"],"price":200}]}`

func jsonEqual(want, got string) bool {
	var w, g interface{}
	if json.Unmarshal([]byte(want), &w) != nil || json.Unmarshal([]byte(got), &g) != nil {
		return false
	}
	return assert.ObjectsAreEqual(w, g)
}

func TestApp_MemoryBus(t *testing.T) {
	server := newTestApp(t, testConfig("memory", "memory"))

	status, body := post(t, server, "/batch_insert", batch)
	require.Equal(t, http.StatusOK, status, body)

	status, body = post(t, server, "/search", search)
	require.Equal(t, http.StatusOK, status, body)
	assert.JSONEq(t, expected, body)
}

func TestApp_ChannelsBusWithSQLite(t *testing.T) {
	cfg := testConfig("sqlite", "channels")
	cfg.Database.URL = t.TempDir() + "/tickets.db"
	server := newTestApp(t, cfg)

	status, body := post(t, server, "/batch_insert", batch)
	require.Equal(t, http.StatusOK, status, body)

	// o comando é consumido de forma assíncrona
	require.Eventually(t, func() bool {
		status, body := post(t, server, "/search", search)
		return status == http.StatusOK && jsonEqual(expected, body)
	}, 3*time.Second, 20*time.Millisecond)

	status, _ = post(t, server, "/search", `{"departure_code":"MOW","arrival_code":"AER","departure_date":"bad","limit":10}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestApp_HealthAndMetrics(t *testing.T) {
	server := newTestApp(t, testConfig("memory", "memory"))

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))

	status, _ := post(t, server, "/batch_insert", batch)
	require.Equal(t, http.StatusOK, status)

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "flightsearch_tickets_upserted_total 3")
}

func TestApp_UnknownDatabaseDriver(t *testing.T) {
	_, err := New(context.Background(), testConfig("oracle", "memory"), zapAdapter.NewZapAppLoggerFrom(zaptest.NewLogger(t)))
	assert.Error(t, err)
}
