package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/rsampath/quarterlens/internal/scrape"
)

const (
	nseBaseURL   = "https://www.nseindia.com"
	nseCookieTTL = 5 * time.Minute
)

// nseFetcher downloads files from NSE with a warmed cookie session.
// NSE rejects requests that arrive without the cookies a browser would have
// picked up on the homepage, so every download is preceded by a homepage
// visit when the session has gone stale.
type nseFetcher struct {
	client       *http.Client
	homeURL      string
	cookieExpiry time.Time
}

func newNSEFetcher(timeout time.Duration, homeURL string) *nseFetcher {
	if homeURL == "" {
		homeURL = nseBaseURL
	}
	jar, _ := cookiejar.New(nil)
	return &nseFetcher{
		client: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		homeURL: homeURL,
	}
}

// ensureCookies visits the NSE homepage to get session cookies.
func (f *nseFetcher) ensureCookies(ctx context.Context) error {
	if time.Now().Before(f.cookieExpiry) {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.homeURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", scrape.DefaultUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch NSE homepage for cookies: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain body

	f.cookieExpiry = time.Now().Add(nseCookieTTL)
	return nil
}

// get fetches a URL with the warmed session and browser headers. The caller
// closes the returned body.
func (f *nseFetcher) get(ctx context.Context, url string) (io.ReadCloser, error) {
	if err := f.ensureCookies(ctx); err != nil {
		return nil, fmt.Errorf("NSE cookie refresh: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", scrape.DefaultUserAgent)
	req.Header.Set("Accept", "text/csv, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", f.homeURL)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		resp.Body.Close()
		return nil, scrape.ErrRateLimited
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &scrape.ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return resp.Body, nil
}
