package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/newswatch/internal/domain"
	"github.com/aristath/newswatch/internal/events"
	"github.com/aristath/newswatch/internal/scheduler"
)

type fakeScheduler struct {
	mu     sync.Mutex
	status scheduler.Status
	report domain.CycleReport
	err    error
	runs   int
}

func (f *fakeScheduler) Status() scheduler.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeScheduler) RunNow(ctx context.Context) (domain.CycleReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	return f.report, f.err
}

func newTestServer(sched Scheduler, bus *events.Bus) *Server {
	s := New(Config{
		Log:       zerolog.Nop(),
		Port:      0,
		DevMode:   true,
		Scheduler: sched,
		Bus:       bus,
	})
	s.stats = func() (float64, float64) { return 12.5, 40 }
	return s
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(&fakeScheduler{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "newswatch", body["service"])
}

type fakeHealth struct {
	err error
}

func (f fakeHealth) Ping(ctx context.Context) error {
	return f.err
}

func TestHandleHealth_CacheUnreachable(t *testing.T) {
	s := New(Config{Log: zerolog.Nop(), DevMode: true, Health: fakeHealth{err: assert.AnError}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, assert.AnError.Error(), body["error"])
}

func TestHandleHealth_CacheReachable(t *testing.T) {
	s := New(Config{Log: zerolog.Nop(), DevMode: true, Health: fakeHealth{}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleStatus(t *testing.T) {
	report := domain.CycleReport{ID: "c1", Entries: 2, Fetched: 3, Analyzed: 3, Notified: 2, NotifyFailed: 1}
	sched := &fakeScheduler{status: scheduler.Status{
		State:      "Running",
		Cadence:    "every 1h0m0s",
		Cycles:     4,
		LastReport: &report,
	}}
	s := newTestServer(sched, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body scheduler.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Running", body.State)
	assert.Equal(t, "every 1h0m0s", body.Cadence)
	assert.Equal(t, 4, body.Cycles)
	require.NotNil(t, body.LastReport)
	assert.Equal(t, "c1", body.LastReport.ID)
	assert.Equal(t, 1, body.LastReport.NotifyFailed)
}

func TestHandleStatus_NoScheduler(t *testing.T) {
	s := newTestServer(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleRunCycle(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantField  string
	}{
		{name: "success", wantStatus: http.StatusOK, wantField: "report"},
		{name: "cycle in flight", err: scheduler.ErrCycleInProgress, wantStatus: http.StatusConflict, wantField: "message"},
		{name: "other failure", err: assert.AnError, wantStatus: http.StatusInternalServerError, wantField: "message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched := &fakeScheduler{
				report: domain.CycleReport{Entries: 1, Fetched: 1, Analyzed: 1, Notified: 1},
				err:    tt.err,
			}
			s := newTestServer(sched, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/cycles/run", nil)
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, 1, sched.runs)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Contains(t, body, tt.wantField)
			if tt.err == nil {
				assert.Equal(t, "entries=1, fetched=1, analyzed=1, notified=1, failed=0", body["summary"])
			}
		})
	}
}

func TestHandleRunCycle_RejectsGet(t *testing.T) {
	sched := &fakeScheduler{}
	s := newTestServer(sched, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/cycles/run", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, 0, sched.runs)
}

func TestHandleSystem(t *testing.T) {
	s := newTestServer(&fakeScheduler{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/system", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body SystemStatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 12.5, body.CPUPercent)
	assert.Equal(t, 40.0, body.RAMPercent)
	assert.Greater(t, body.Goroutines, 0)
}

func TestStreamsNotMountedWithoutBus(t *testing.T) {
	s := newTestServer(&fakeScheduler{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/events/stream", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func readSSE(t *testing.T, r *bufio.Reader) map[string]interface{} {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &msg))
		return msg
	}
}

func TestEventsStream_ForwardsEvents(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	srv := httptest.NewServer(newTestServer(&fakeScheduler{}, bus).Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	assert.Equal(t, "connected", readSSE(t, reader)["type"])

	bus.EmitTyped("pipeline", &events.ItemNotifiedData{Ticker: "ACME", Link: "https://example.com/a", Channel: "telegram"})

	msg := readSSE(t, reader)
	assert.Equal(t, string(events.ItemNotified), msg["type"])
	assert.Equal(t, "pipeline", msg["module"])
	data, ok := msg["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ACME", data["ticker"])
}

func TestEventsStream_TypeFilter(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	srv := httptest.NewServer(newTestServer(&fakeScheduler{}, bus).Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := srv.URL + "/api/events/stream?types=" + string(events.CycleCompleted)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	readSSE(t, reader)

	bus.EmitTyped("pipeline", &events.CycleStartedData{CycleID: "c1"})
	bus.EmitTyped("pipeline", &events.CycleCompletedData{CycleID: "c1"})

	assert.Equal(t, string(events.CycleCompleted), readSSE(t, reader)["type"])
}

func TestEventsSocket_ForwardsEvents(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	srv := httptest.NewServer(newTestServer(&fakeScheduler{}, bus).Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	var msg map[string]interface{}
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, "connected", msg["type"])

	bus.EmitTyped("scheduler", &events.SchedulerStateChangedData{State: "Running"})

	msg = nil
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, string(events.SchedulerStateChanged), msg["type"])
	assert.Equal(t, "scheduler", msg["module"])
}

func TestEventsSocket_UnsubscribesOnClose(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	srv := httptest.NewServer(newTestServer(&fakeScheduler{}, bus).Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)

	var msg map[string]interface{}
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, len(events.AllTypes), bus.Subscribers())

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))

	assert.Eventually(t, func() bool { return bus.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}
