package scrape

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/singleflight"

	"github.com/rsampath/quarterlens/internal/quarterly"
	"github.com/rsampath/quarterlens/pkg/models"
	"github.com/rsampath/quarterlens/pkg/utils"
)

const defaultBaseURL = "https://www.screener.in"

// Options configures a Screener. Zero values fall back to defaults.
type Options struct {
	BaseURL     string        // source site base URL
	Timeout     time.Duration // per-request HTTP timeout, default 10s
	BatchDelay  time.Duration // gap between fetches in a batch, default 1.5s
	MaxQuarters int           // report window size, default 8
	CacheTTL    time.Duration // report cache lifetime, default 30m
}

func (o *Options) applyDefaults() {
	if o.BaseURL == "" {
		o.BaseURL = defaultBaseURL
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.BatchDelay <= 0 {
		o.BatchDelay = 1500 * time.Millisecond
	}
	if o.MaxQuarters <= 0 {
		o.MaxQuarters = quarterly.DefaultMaxQuarters
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 30 * time.Minute
	}
}

// Screener scrapes quarterly results from the financial-data site.
// Safe for concurrent use.
type Screener struct {
	baseURL     string
	client      *http.Client
	cache       *Cache
	limiter     *RateLimiter
	throttle    *Throttle
	group       singleflight.Group
	maxQuarters int
}

// NewScreener creates a screener scraper.
func NewScreener(opts Options) *Screener {
	opts.applyDefaults()
	return &Screener{
		baseURL:     opts.BaseURL,
		client:      &http.Client{Timeout: opts.Timeout},
		cache:       NewCache(opts.CacheTTL),
		limiter:     NewRateLimiter(1, time.Second),
		throttle:    NewThrottle(opts.BatchDelay),
		maxQuarters: opts.MaxQuarters,
	}
}

// FetchReport returns the quarterly report for one symbol, from cache when
// fresh. Concurrent requests for the same symbol share a single upstream
// fetch. On failure the returned report still carries the symbol, the error
// message and any market cap figure salvaged before the failure.
func (s *Screener) FetchReport(ctx context.Context, symbol string) (*models.CompanyQuarterlyReport, error) {
	symbol = utils.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}

	cacheKey := "report:" + symbol
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.(*models.CompanyQuarterlyReport), nil
	}

	v, err, _ := s.group.Do(symbol, func() (any, error) {
		report, err := s.scrapeReport(ctx, symbol)
		if err == nil {
			s.cache.Set(cacheKey, report)
		}
		return report, err
	})
	report, _ := v.(*models.CompanyQuarterlyReport)
	return report, err
}

// FetchBatch scrapes reports for many symbols sequentially with a fixed delay
// between upstream fetches. One symbol failing never aborts the rest: failures
// land in the errors map keyed by the symbol as given, successes in results.
// progress, when non-nil, is called after each symbol completes.
func (s *Screener) FetchBatch(ctx context.Context, symbols []string, progress func(symbol string, done, total int, err error)) (map[string]*models.CompanyQuarterlyReport, map[string]string) {
	results := make(map[string]*models.CompanyQuarterlyReport)
	errs := make(map[string]string)

	for i, symbol := range symbols {
		if i > 0 {
			if err := s.throttle.Wait(ctx); err != nil {
				errs[symbol] = err.Error()
				if progress != nil {
					progress(symbol, i+1, len(symbols), err)
				}
				continue
			}
		}

		report, err := s.FetchReport(ctx, symbol)
		if err != nil {
			errs[symbol] = err.Error()
		} else {
			results[symbol] = report
		}
		if progress != nil {
			progress(symbol, i+1, len(symbols), err)
		}
	}
	return results, errs
}

// InvalidateSymbol drops a symbol's cached report.
func (s *Screener) InvalidateSymbol(symbol string) {
	s.cache.Invalidate("report:" + utils.NormalizeSymbol(symbol))
}

// CleanupCache drops expired report entries.
func (s *Screener) CleanupCache() {
	s.cache.Cleanup()
}

// candidateURLs lists the company page URLs to try, consolidated figures
// first. Some companies only publish standalone results, so the bare page
// is the fallback.
func (s *Screener) candidateURLs(symbol string) []string {
	return []string{
		fmt.Sprintf("%s/company/%s/consolidated/", s.baseURL, symbol),
		fmt.Sprintf("%s/company/%s/", s.baseURL, symbol),
	}
}

// scrapeReport walks the candidate URLs until one yields a parsable results
// table. A fetched page that turns out to be structurally useless still
// counts as a miss and the next candidate is tried.
func (s *Screener) scrapeReport(ctx context.Context, symbol string) (*models.CompanyQuarterlyReport, error) {
	var lastErr error
	var partialCap string

	for _, url := range s.candidateURLs(symbol) {
		if err := s.limiter.Wait(ctx); err != nil {
			lastErr = err
			break
		}

		body, _, err := doGet(ctx, s.client, url, map[string]string{
			"Accept": "text/html",
		})
		if err != nil {
			lastErr = err
			continue
		}

		doc, err := goquery.NewDocumentFromReader(body)
		body.Close()
		if err != nil {
			lastErr = fmt.Errorf("parse HTML: %w", err)
			continue
		}

		marketCap, grid, err := ParseCompanyPage(doc)
		if marketCap != "" {
			partialCap = marketCap
		}
		if err != nil {
			lastErr = err
			continue
		}
		return s.buildReport(symbol, marketCap, grid), nil
	}

	err := fmt.Errorf("scrape %s: %w", symbol, lastErr)
	report := &models.CompanyQuarterlyReport{
		Symbol:    symbol,
		MarketCap: partialCap,
		Error:     err.Error(),
		FetchedAt: time.Now(),
	}
	return report, err
}

// buildReport runs the raw grid through the quarterly pipeline and windows
// everything to the most recent quarters, latest first.
func (s *Screener) buildReport(symbol, marketCap string, grid [][]string) *models.CompanyQuarterlyReport {
	ex := quarterly.Extract(grid)
	metrics := ex.Metrics()
	qoq := quarterly.QoQ(metrics.Sales)
	yoy := quarterly.YoY(metrics.Sales)

	n := quarterly.WindowSize(len(ex.Quarters), s.maxQuarters)
	return &models.CompanyQuarterlyReport{
		Symbol:    symbol,
		MarketCap: marketCap,
		Quarters:  quarterly.Window(ex.Quarters, n),
		Metrics: map[string]interface{}{
			models.MetricSales:           quarterly.Window(metrics.Sales, n),
			models.MetricOperatingProfit: quarterly.Window(metrics.OperatingProfit, n),
			models.MetricOPM:             quarterly.Window(metrics.OPM, n),
			models.MetricEPS:             quarterly.Window(metrics.EPS, n),
			models.MetricSalesQoQ:        quarterly.Labels(quarterly.Window(qoq, n)),
			models.MetricSalesYoY:        quarterly.Labels(quarterly.Window(yoy, n)),
		},
		FetchedAt: time.Now(),
	}
}
