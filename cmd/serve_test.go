//go:build !integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/price-scout/internal/compare"
	"github.com/sells-group/price-scout/internal/fetch"
	"github.com/sells-group/price-scout/internal/history"
	"github.com/sells-group/price-scout/internal/model"
	"github.com/sells-group/price-scout/internal/pipeline"
)

const stubPageHTML = `<html><head>
	<meta property="og:title" content="Widget X Deluxe">
	</head><body>
	<span class="price">€49.99</span>
	</body></html>`

type stubFetcher struct {
	html string
}

var _ fetch.PageFetcher = (*stubFetcher)(nil)

func (f *stubFetcher) Page(ctx context.Context, rawURL string) (string, error) {
	return f.html, nil
}

func newTestEnv(t *testing.T) *scrapeEnv {
	t.Helper()

	store := history.NewMemory()
	p := pipeline.New(pipeline.Deps{
		Fetcher: &stubFetcher{html: stubPageHTML},
		Synth:   compare.NewSynthesizer(nil, rand.New(rand.NewPCG(7, 7))),
		History: store,
	})
	return &scrapeEnv{History: store, Pipeline: p}
}

func TestRouter_Health(t *testing.T) {
	router := newRouter(newTestEnv(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	err := json.Unmarshal(rr.Body.Bytes(), &body)
	require.NoError(t, err)
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_Scrape_Success(t *testing.T) {
	env := newTestEnv(t)
	router := newRouter(env)

	payload, _ := json.Marshal(model.ScrapeRequest{
		URL:       "https://shop.example/widget-x",
		RequestID: "req-api-1",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/scrape", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp model.ScrapeResponse
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "Widget X Deluxe", resp.OriginalProduct.Title)
	assert.Equal(t, 49.99, resp.OriginalProduct.Price)
	assert.LessOrEqual(t, len(resp.Comparisons), 12)

	// The scrape must land in history.
	entries, err := env.History.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "req-api-1", entries[0].RequestID)
	assert.Equal(t, "Widget X Deluxe", entries[0].Title)
}

func TestRouter_Scrape_InvalidBody(t *testing.T) {
	router := newRouter(newTestEnv(t))

	req := httptest.NewRequest(http.MethodPost, "/api/scrape", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouter_Scrape_MissingURL(t *testing.T) {
	router := newRouter(newTestEnv(t))

	req := httptest.NewRequest(http.MethodPost, "/api/scrape", bytes.NewReader([]byte(`{"requestId":"x"}`)))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "url is required", body["error"])
}

func TestRouter_Scrape_InvalidURL(t *testing.T) {
	router := newRouter(newTestEnv(t))

	payload, _ := json.Marshal(model.ScrapeRequest{URL: "not a url"})
	req := httptest.NewRequest(http.MethodPost, "/api/scrape", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "invalid url", body["error"])
}

func TestRouter_History_EmptyIsArray(t *testing.T) {
	router := newRouter(newTestEnv(t))

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestGracefulShutdown_DrainsInFlightRequests(t *testing.T) {
	started := make(chan struct{})
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(started)
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	serveDone := make(chan error, 1)
	go func() { serveDone <- srv.Serve(ln) }()

	status := make(chan int, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err != nil {
			status <- 0
			return
		}
		defer resp.Body.Close()
		status <- resp.StatusCode
	}()

	// Shut down while the request is mid-flight; the drain window must
	// let it finish.
	<-started
	gracefulShutdown(srv, 2*time.Second)

	assert.Equal(t, http.StatusOK, <-status)
	assert.ErrorIs(t, <-serveDone, http.ErrServerClosed)
}

func TestRouter_History_BadLimit(t *testing.T) {
	router := newRouter(newTestEnv(t))

	for _, raw := range []string{"abc", "-3"} {
		req := httptest.NewRequest(http.MethodGet, "/api/history?limit="+raw, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code, "limit=%s", raw)
	}
}
