// Package calendar scrapes the exchange's forthcoming-results listing and
// resolves each entry to an NSE symbol. Rows whose company name cannot be
// resolved are dropped; the calendar only reports what the rest of the
// service can actually scrape.
package calendar

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/rsampath/quarterlens/internal/scrape"
	"github.com/rsampath/quarterlens/pkg/models"
)

const defaultListingURL = "https://www.bseindia.com/corporates/Forth_Results.aspx"

// SymbolResolver resolves a company display name to an NSE symbol.
type SymbolResolver interface {
	Resolve(name string) (string, bool)
}

// Options configures a Calendar. Zero values fall back to defaults.
type Options struct {
	URL            string        // listing page
	AllowedDomains []string      // crawl allowlist, defaults to the URL's host
	Timeout        time.Duration // per-request timeout, default 20s
	CacheTTL       time.Duration // listing cache lifetime, default 1h
}

// Calendar fetches and parses the forthcoming-results listing.
// Safe for concurrent use.
type Calendar struct {
	url      string
	domains  []string
	timeout  time.Duration
	cache    *scrape.Cache
	resolver SymbolResolver
}

// New creates a calendar scraper that annotates rows through resolver.
func New(opts Options, resolver SymbolResolver) *Calendar {
	if opts.URL == "" {
		opts.URL = defaultListingURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	if len(opts.AllowedDomains) == 0 {
		opts.AllowedDomains = []string{hostOf(opts.URL)}
	}
	return &Calendar{
		url:      opts.URL,
		domains:  opts.AllowedDomains,
		timeout:  opts.Timeout,
		cache:    scrape.NewCache(opts.CacheTTL),
		resolver: resolver,
	}
}

// Row is one listing entry before symbol resolution.
type Row struct {
	Code    string
	Company string
	Date    string
}

// Upcoming returns the resolvable entries of the forthcoming-results
// listing, from cache when fresh.
func (c *Calendar) Upcoming(ctx context.Context) ([]models.UpcomingResult, error) {
	if cached, ok := c.cache.Get("upcoming"); ok {
		return cached.([]models.UpcomingResult), nil
	}

	lines, err := c.fetchLines()
	if err != nil {
		return nil, err
	}

	results := c.annotate(ParseListing(lines))
	c.cache.Set("upcoming", results)
	return results, nil
}

// CleanupCache drops expired listing entries.
func (c *Calendar) CleanupCache() {
	c.cache.Cleanup()
}

// fetchLines visits the listing page and flattens every table row into one
// whitespace-joined text line.
func (c *Calendar) fetchLines() ([]string, error) {
	collector := colly.NewCollector(
		colly.AllowedDomains(c.domains...),
		colly.MaxDepth(1),
		colly.Async(false),
	)
	collector.SetRequestTimeout(c.timeout)

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", scrape.DefaultUserAgent)
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})

	var lines []string
	collector.OnHTML("table tr", func(e *colly.HTMLElement) {
		var cells []string
		e.ForEach("th, td", func(_ int, cell *colly.HTMLElement) {
			if text := strings.TrimSpace(cell.Text); text != "" {
				cells = append(cells, text)
			}
		})
		if len(cells) > 0 {
			lines = append(lines, strings.Join(cells, " "))
		}
	})

	if err := collector.Visit(c.url); err != nil {
		return nil, fmt.Errorf("visit results calendar: %w", err)
	}
	collector.Wait()

	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: results calendar has no table rows", scrape.ErrStructureNotFound)
	}
	return lines, nil
}

// ParseListing parses flattened listing lines into rows. The first line is
// the column header and is discarded. Each line splits on whitespace:
// token 0 is the exchange code, the last three tokens joined are the result
// date ("DD Mon YYYY"), and everything in between is the company name. A
// four-token line keeps token 1 as the name even though it overlaps the
// date tokens; shorter lines are malformed and skipped.
func ParseListing(lines []string) []Row {
	var rows []Row
	for i, line := range lines {
		if i == 0 {
			continue
		}
		tokens := strings.Fields(line)
		if len(tokens) < 3 {
			continue
		}

		var company string
		switch {
		case len(tokens) == 3:
			// Nothing between the code and the date; the row will fail
			// resolution and drop out downstream.
		case len(tokens) == 4:
			company = tokens[1]
		default:
			company = strings.Join(tokens[1:len(tokens)-3], " ")
		}

		rows = append(rows, Row{
			Code:    tokens[0],
			Company: company,
			Date:    strings.Join(tokens[len(tokens)-3:], " "),
		})
	}
	return rows
}

// annotate resolves each row's company to a symbol, dropping rows that do
// not resolve.
func (c *Calendar) annotate(rows []Row) []models.UpcomingResult {
	results := make([]models.UpcomingResult, 0, len(rows))
	for _, row := range rows {
		symbol, ok := c.resolver.Resolve(row.Company)
		if !ok {
			continue
		}
		results = append(results, models.UpcomingResult{
			Code:    row.Code,
			Company: row.Company,
			Symbol:  symbol,
			Date:    row.Date,
		})
	}
	return results
}

// hostOf extracts the hostname for the collector's domain allow-list.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
