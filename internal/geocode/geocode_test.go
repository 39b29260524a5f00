package geocode

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geonews/geonews/internal/gazetteer"
)

func testLogger() *log.Logger {
	return log.New(&bytes.Buffer{}, "", 0)
}

func emptyGazetteer(t *testing.T) *gazetteer.Gazetteer {
	t.Helper()
	dir := t.TempDir()
	return gazetteer.Load(filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json"), testLogger())
}

func overrideGazetteer(t *testing.T) *gazetteer.Gazetteer {
	t.Helper()
	dir := t.TempDir()
	overridePath := filepath.Join(dir, "coords.json")
	require.NoError(t, os.WriteFile(overridePath, []byte(
		`{"United States": {"lat": 38.8951, "lng": -77.0364}}`,
	), 0o644))
	return gazetteer.Load(filepath.Join(dir, "missing.json"), overridePath, testLogger())
}

func newPool(t *testing.T, keys ...string) *CredentialPool {
	t.Helper()
	pool, err := NewCredentialPool(keys)
	require.NoError(t, err)
	return pool
}

func TestResolveSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Berlin", r.URL.Query().Get("address"))
		assert.Equal(t, "json", r.URL.Query().Get("output"))
		assert.NotEmpty(t, r.URL.Query().Get("access_key"))

		w.Write([]byte(`{"status": 0, "result": {"location": {"lat": 52.52, "lng": 13.405}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, newPool(t, "k1"), emptyGazetteer(t), 0, srv.Client(), testLogger())

	coords, ok := c.Resolve(context.Background(), "Berlin")
	require.True(t, ok)
	assert.Equal(t, 52.52, coords.Lat)
	assert.Equal(t, 13.405, coords.Lng)
}

func TestResolveManualOverrideSkipsNetwork(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`{"status": 0, "result": {"location": {"lat": 1, "lng": 2}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, newPool(t, "k1"), overrideGazetteer(t), time.Hour, srv.Client(), testLogger())

	// time.Hour pacing would hang if the override path ever touched the
	// network or the pacing timer.
	done := make(chan struct{})
	go func() {
		defer close(done)
		coords, ok := c.Resolve(context.Background(), "United States")
		assert.True(t, ok)
		assert.Equal(t, 38.8951, coords.Lat)
		assert.Equal(t, -77.0364, coords.Lng)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("override lookup blocked")
	}

	assert.Zero(t, requests)
}

func TestResolveServiceErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": 302, "msg": "quota exceeded"}`))
	}))
	defer srv.Close()

	logBuf := &bytes.Buffer{}
	c := NewClient(srv.URL, newPool(t, "k1"), emptyGazetteer(t), 0, srv.Client(), log.New(logBuf, "", 0))

	_, ok := c.Resolve(context.Background(), "Atlantis")
	assert.False(t, ok)
	assert.Contains(t, logBuf.String(), "quota exceeded")
}

func TestResolveNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse all connections

	c := NewClient(srv.URL, newPool(t, "k1"), emptyGazetteer(t), 0, &http.Client{}, testLogger())

	_, ok := c.Resolve(context.Background(), "Berlin")
	assert.False(t, ok)
}

func TestResolveTimeoutIsAbsentNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, newPool(t, "k1"), emptyGazetteer(t), 0,
		&http.Client{Timeout: 50 * time.Millisecond}, testLogger())

	_, ok := c.Resolve(context.Background(), "Berlin")
	assert.False(t, ok)
}

func TestResolveRotatesOneCredentialPerDispatch(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.Query().Get("access_key"))
		mu.Unlock()
		w.Write([]byte(`{"status": 1, "msg": "nope"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, newPool(t, "k1", "k2"), emptyGazetteer(t), 0, srv.Client(), testLogger())

	// Rotation advances on failures too; four calls over two keys use each
	// key exactly twice.
	for i := 0; i < 4; i++ {
		c.Resolve(context.Background(), "Berlin")
	}

	counts := map[string]int{}
	for _, k := range seen {
		counts[k]++
	}
	assert.Equal(t, 2, counts["k1"])
	assert.Equal(t, 2, counts["k2"])
}

func TestResolveCancelledContextDuringPacing(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	c := NewClient(srv.URL, newPool(t, "k1"), emptyGazetteer(t), time.Hour, srv.Client(), testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, ok := c.Resolve(ctx, "Berlin")
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second, "pacing wait must respect cancellation")
	assert.Zero(t, requests)
}
