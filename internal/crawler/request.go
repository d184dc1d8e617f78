package crawler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"

	"github.com/nao1215/linkfinder/internal/model"
)

// defaultMaxBodySize limits how much of a page DownloadPage reads.
const defaultMaxBodySize = 5 * 1024 * 1024

// defaultUserAgent is sent when no User-Agent is configured.
const defaultUserAgent = "LinkFinder/1.0 (+https://github.com/nao1215/linkfinder)"

// Probe is the outcome of a probe request.
type Probe struct {
	// StatusCode is the final HTTP status after redirects, 0 on transport failure.
	StatusCode int

	// Elapsed is the time between sending the request and receiving the headers.
	Elapsed time.Duration

	// Err is the transport error, if any.
	Err error
}

// OK reports whether the URL answered with a 2xx status.
func (p Probe) OK() bool {
	return p.Err == nil && p.StatusCode >= 200 && p.StatusCode < 300
}

// HTTPRequestService implements RequestService over an *http.Client.
//
// The client decides timeouts, redirects, cookies and proxying; see package
// transport for the client used in production.
type HTTPRequestService struct {
	client      *http.Client
	userAgent   string
	headers     map[string]string
	cookie      string
	maxBodySize int64
	logger      *slog.Logger
}

// RequestOption configures an HTTPRequestService.
type RequestOption func(*HTTPRequestService)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) RequestOption {
	return func(s *HTTPRequestService) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithHeaders adds custom headers to every request.
func WithHeaders(headers map[string]string) RequestOption {
	return func(s *HTTPRequestService) {
		for k, v := range headers {
			s.headers[k] = v
		}
	}
}

// WithCookie sets a Cookie header ("name=value; other=value") on every request.
func WithCookie(cookie string) RequestOption {
	return func(s *HTTPRequestService) {
		s.cookie = cookie
	}
}

// WithMaxBodySize limits the number of body bytes DownloadPage reads.
func WithMaxBodySize(size int64) RequestOption {
	return func(s *HTTPRequestService) {
		if size > 0 {
			s.maxBodySize = size
		}
	}
}

// WithRequestLogger sets the logger used for transport failures.
func WithRequestLogger(logger *slog.Logger) RequestOption {
	return func(s *HTTPRequestService) {
		s.logger = logger
	}
}

// NewHTTPRequestService creates a request service on top of client.
// A nil client means http.DefaultClient.
func NewHTTPRequestService(client *http.Client, opts ...RequestOption) *HTTPRequestService {
	if client == nil {
		client = http.DefaultClient
	}

	s := &HTTPRequestService{
		client:      client,
		userAgent:   defaultUserAgent,
		headers:     make(map[string]string),
		maxBodySize: defaultMaxBodySize,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SendRequest probes rawURL with a HEAD request and measures its latency.
// Servers that reject HEAD with 405 or 501 are asked again with a GET whose
// body is discarded unread.
func (s *HTTPRequestService) SendRequest(ctx context.Context, rawURL string) Probe {
	probe := s.probe(ctx, http.MethodHead, rawURL)
	if probe.Err == nil &&
		(probe.StatusCode == http.StatusMethodNotAllowed || probe.StatusCode == http.StatusNotImplemented) {
		probe = s.probe(ctx, http.MethodGet, rawURL)
	}
	return probe
}

func (s *HTTPRequestService) probe(ctx context.Context, method, rawURL string) Probe {
	req, err := s.newRequest(ctx, method, rawURL)
	if err != nil {
		return Probe{Err: err}
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		s.logger.Debug("probe failed", "url", rawURL, "method", method, "error", err)
		return Probe{Elapsed: elapsed, Err: err}
	}
	_ = resp.Body.Close()

	return Probe{StatusCode: resp.StatusCode, Elapsed: elapsed}
}

// DownloadPage fetches link and returns its body as UTF-8 text.
// It returns "" on any transport error or non-2xx status.
func (s *HTTPRequestService) DownloadPage(ctx context.Context, link model.Link) string {
	req, err := s.newRequest(ctx, http.MethodGet, link.URL)
	if err != nil {
		return ""
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug("download failed", "url", link.URL, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Debug("download returned non-success status", "url", link.URL, "status", resp.StatusCode)
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodySize))
	if err != nil {
		s.logger.Debug("reading body failed", "url", link.URL, "error", err)
		return ""
	}

	return decodeBody(body, resp.Header.Get("Content-Type"))
}

// decodeBody converts body to UTF-8 using the charset from the Content-Type
// header, a BOM or a <meta> declaration.
func decodeBody(body []byte, contentType string) string {
	enc, name, _ := charset.DetermineEncoding(body, contentType)
	if enc == nil || name == "utf-8" {
		return string(body)
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}

func (s *HTTPRequestService) newRequest(ctx context.Context, method, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}
	if s.cookie != "" {
		req.Header.Set("Cookie", s.cookie)
	}

	return req, nil
}
