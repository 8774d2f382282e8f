package fetch

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/price-scout/internal/resilience"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// PageFetcher retrieves the HTML of a product page.
type PageFetcher interface {
	Page(ctx context.Context, rawURL string) (string, error)
}

// Options configures the HTTP page fetcher.
type Options struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBody      int64      // response body cap in bytes
	RateLimit    rate.Limit // per-host request rate
	Burst        int
	Attempts     int           // total attempts per page; 1 disables retries
	RetryBackoff time.Duration // base delay before the first retry
}

// Fetcher implements PageFetcher using net/http with per-host rate
// limiting and anti-bot block detection. Retailer pages that need a JS
// runtime defeat it; the orchestrator treats that as any other miss.
type Fetcher struct {
	client *http.Client
	opts   Options

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a Fetcher with the given options, filling in defaults.
func New(opts Options) *Fetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxBody == 0 {
		opts.MaxBody = 2 << 20
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = 5
	}
	if opts.Burst == 0 {
		opts.Burst = 5
	}
	if opts.Attempts == 0 {
		opts.Attempts = 2
	}
	if opts.RetryBackoff == 0 {
		opts.RetryBackoff = 250 * time.Millisecond
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
	}
}

type pageResult struct {
	resp *http.Response
	body []byte
}

// Page fetches a URL and returns its HTML. Transient failures (network
// timeouts, 5xx, 429) are retried per Options; it fails outright on
// other non-2xx status, detected anti-bot pages, and near-empty bodies.
func (f *Fetcher) Page(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", eris.Wrap(err, "fetch: parse url")
	}

	if err := f.limiterFor(u.Host).Wait(ctx); err != nil {
		return "", eris.Wrap(err, "fetch: rate limiter wait")
	}

	policy := resilience.Policy{
		Attempts: f.opts.Attempts,
		Backoff:  f.opts.RetryBackoff,
		OnRetry:  resilience.RetryLogger("fetch page"),
	}
	res, err := resilience.RetryVal(ctx, policy, func(ctx context.Context) (pageResult, error) {
		return f.do(ctx, rawURL, u.Host)
	})
	if err != nil {
		return "", err
	}

	if blocked, kind := DetectBlock(res.resp, res.body); blocked {
		zap.L().Warn("fetch: anti-bot block detected",
			zap.String("url", rawURL),
			zap.String("kind", string(kind)),
		)
		return "", eris.Errorf("fetch: blocked (%s)", kind)
	}

	if res.resp.StatusCode < 200 || res.resp.StatusCode >= 300 {
		return "", eris.Errorf("fetch: status %d from %s", res.resp.StatusCode, rawURL)
	}

	if len(res.body) < 100 {
		return "", eris.Errorf("fetch: near-empty page (%d bytes)", len(res.body))
	}

	return string(res.body), nil
}

func (f *Fetcher) do(ctx context.Context, rawURL, host string) (pageResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return pageResult{}, eris.Wrap(err, "fetch: create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	decorate(req.Header, host)

	resp, err := f.client.Do(req)
	if err != nil {
		return pageResult{}, eris.Wrap(err, "fetch: request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBody))
	if err != nil {
		return pageResult{}, eris.Wrap(err, "fetch: read body")
	}

	if resilience.RetryableStatus(resp.StatusCode) {
		return pageResult{}, resilience.Transient(
			eris.Errorf("fetch: status %d from %s", resp.StatusCode, rawURL), resp.StatusCode)
	}

	return pageResult{resp: resp, body: body}, nil
}

func (f *Fetcher) limiterFor(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	lim, ok := f.limiters[host]
	if !ok {
		lim = rate.NewLimiter(f.opts.RateLimit, f.opts.Burst)
		f.limiters[host] = lim
	}
	return lim
}

// decorate adds browser-shaped headers, with host-specific tweaks for
// sites known to gate on them. Lithuanian retailers want a local
// Accept-Language and a plausible referer; Amazon wants its own.
func decorate(h http.Header, host string) {
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Cache-Control", "max-age=0")

	lower := strings.ToLower(host)
	switch {
	case strings.HasSuffix(lower, ".lt"):
		h.Set("Accept-Language", "lt-LT,lt;q=0.9,en-US;q=0.8,en;q=0.7")
		h.Set("Referer", "https://www.google.lt/")
		h.Set("DNT", "1")
		if strings.Contains(lower, "pigu.lt") {
			h.Set("Origin", "https://pigu.lt")
		}
	case strings.Contains(lower, "amazon"):
		h.Set("Referer", "https://www.amazon.com/")
	}
}
