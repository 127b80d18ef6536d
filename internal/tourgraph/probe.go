package tourgraph

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"tourcms/internal/metrics"
)

// Prober checks whether a panorama URL can be loaded as an image.
type Prober interface {
	Probe(ctx context.Context, rawURL string) bool
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, rawURL string) bool

// Probe calls f.
func (f ProberFunc) Probe(ctx context.Context, rawURL string) bool {
	return f(ctx, rawURL)
}

// ValidURL reports whether raw is an absolute http(s) URL.
func ValidURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ErrBlockedAddress is returned when a probe would connect to a loopback,
// private, link-local or otherwise non-public address.
var ErrBlockedAddress = errors.New("address not allowed")

// cgnat is the shared address space of RFC 6598.
var cgnat = netip.MustParsePrefix("100.64.0.0/10")

// PublicAddr reports whether probes may connect to addr.
func PublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	switch {
	case !addr.IsValid(),
		addr.IsUnspecified(),
		addr.IsLoopback(),
		addr.IsPrivate(),
		addr.IsLinkLocalUnicast(),
		addr.IsLinkLocalMulticast(),
		addr.IsInterfaceLocalMulticast(),
		addr.IsMulticast(),
		cgnat.Contains(addr):
		return false
	}
	// 0.0.0.0/8 reaches the local host on some stacks.
	if addr.Is4() && addr.As4()[0] == 0 {
		return false
	}
	return true
}

// publicOnly is a net.Dialer Control hook. It runs after DNS resolution,
// so names that resolve to internal addresses are refused as well.
func publicOnly(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("probe dial %s: %w", address, err)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil || !PublicAddr(addr) {
		return fmt.Errorf("probe dial %s: %w", address, ErrBlockedAddress)
	}
	return nil
}

// PublicOnlyClient returns the client used for panorama probes. Its
// connections may only reach public unicast addresses, redirects included,
// and it ignores proxy settings so the check sees the real destination.
func PublicOnlyClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: timeout, Control: publicOnly}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	return &http.Client{Timeout: timeout, Transport: transport}
}

// HTTPProber probes URLs with a HEAD request, falling back to a one-byte
// ranged GET for servers that reject HEAD. Each probe is bounded by timeout.
type HTTPProber struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPProber creates a prober. A nil client uses PublicOnlyClient.
func NewHTTPProber(client *http.Client, timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if client == nil {
		client = PublicOnlyClient(timeout)
	}
	return &HTTPProber{client: client, timeout: timeout}
}

// Probe implements Prober.
func (p *HTTPProber) Probe(ctx context.Context, rawURL string) bool {
	if !ValidURL(rawURL) {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.do(ctx, http.MethodHead, rawURL)
	if err != nil {
		return false
	}
	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		resp, err = p.do(ctx, http.MethodGet, rawURL)
		if err != nil {
			return false
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false
	}
	return strings.HasPrefix(strings.ToLower(resp.Header.Get("Content-Type")), "image/")
}

func (p *HTTPProber) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if method == http.MethodGet {
		req.Header.Set("Range", "bytes=0-0")
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()
	return resp, nil
}

// ProbeResults stores probe outcomes between requests.
type ProbeResults interface {
	Lookup(ctx context.Context, rawURL string) (ok, found bool)
	Store(ctx context.Context, rawURL string, ok bool)
}

// CachedProber consults results before delegating to next.
type CachedProber struct {
	next    Prober
	results ProbeResults
}

// NewCachedProber wraps next with a result cache.
func NewCachedProber(next Prober, results ProbeResults) *CachedProber {
	return &CachedProber{next: next, results: results}
}

// Probe implements Prober.
func (c *CachedProber) Probe(ctx context.Context, rawURL string) bool {
	if ok, found := c.results.Lookup(ctx, rawURL); found {
		metrics.RecordProbe(ok, true)
		return ok
	}
	ok := c.next.Probe(ctx, rawURL)
	metrics.RecordProbe(ok, false)
	// A cancelled request says nothing about the URL.
	if ctx.Err() == nil {
		c.results.Store(ctx, rawURL, ok)
	}
	return ok
}
