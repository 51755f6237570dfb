// Package news aggregates market headlines from Indian financial RSS feeds.
package news

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/rsampath/quarterlens/internal/scrape"
	"github.com/rsampath/quarterlens/pkg/models"
	"github.com/rsampath/quarterlens/pkg/utils"
)

// Source is one RSS feed to pull headlines from.
type Source struct {
	Name   string
	RSSURL string
}

// DefaultSources lists the configured Indian financial news feeds.
var DefaultSources = []Source{
	{Name: "Moneycontrol", RSSURL: "https://www.moneycontrol.com/rss/marketreports.xml"},
	{Name: "Economic Times Markets", RSSURL: "https://economictimes.indiatimes.com/markets/rssfeeds/1977021501.cms"},
	{Name: "LiveMint Markets", RSSURL: "https://www.livemint.com/rss/markets"},
	{Name: "Business Standard Markets", RSSURL: "https://www.business-standard.com/rss/markets-106.rss"},
}

// Options configures the news aggregator. Zero values take defaults.
type Options struct {
	Sources  []Source
	Timeout  time.Duration // per-feed HTTP timeout
	CacheTTL time.Duration
}

func (o *Options) applyDefaults() {
	if len(o.Sources) == 0 {
		o.Sources = DefaultSources
	}
	if o.Timeout == 0 {
		o.Timeout = 15 * time.Second
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = 10 * time.Minute
	}
}

// Aggregator fetches all configured feeds concurrently and merges the results.
type Aggregator struct {
	sources []Source
	cache   *scrape.Cache
	limiter *scrape.RateLimiter
	client  *http.Client
}

// New creates a news aggregator.
func New(opts Options) *Aggregator {
	opts.applyDefaults()
	return &Aggregator{
		sources: opts.Sources,
		cache:   scrape.NewCache(opts.CacheTTL),
		limiter: scrape.NewRateLimiter(2, time.Second), // 2 req/s across all feeds
		client:  &http.Client{Timeout: opts.Timeout},
	}
}

// Market returns recent market news across all configured sources, newest
// first. Individual feed failures are tolerated; an error is returned only
// when every source fails.
func (a *Aggregator) Market(ctx context.Context, limit int) ([]models.NewsArticle, error) {
	cacheKey := fmt.Sprintf("news:market:%d", limit)
	if cached, ok := a.cache.Get(cacheKey); ok {
		return cached.([]models.NewsArticle), nil
	}

	var (
		mu       sync.Mutex
		articles []models.NewsArticle
		errs     []error
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, src := range a.sources {
		g.Go(func() error {
			items, err := a.fetchFeed(gctx, src)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return nil // a failed source is not fatal
			}
			articles = append(articles, items...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(articles) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("all news sources failed: %w", errors.Join(errs...))
	}

	sortByDate(articles)
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}

	a.cache.Set(cacheKey, articles)
	return articles, nil
}

// ForSymbol returns market news mentioning the given NSE symbol.
func (a *Aggregator) ForSymbol(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error) {
	sym := utils.NormalizeSymbol(symbol)

	cacheKey := fmt.Sprintf("news:symbol:%s:%d", sym, limit)
	if cached, ok := a.cache.Get(cacheKey); ok {
		return cached.([]models.NewsArticle), nil
	}

	all, err := a.Market(ctx, 0)
	if err != nil {
		return nil, err
	}

	keywords := symbolKeywords(sym)
	var filtered []models.NewsArticle
	for _, art := range all {
		if matchesAny(art.Title+" "+art.Summary, keywords) {
			filtered = append(filtered, art)
		}
	}
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}

	a.cache.Set(cacheKey, filtered)
	return filtered, nil
}

// CleanupCache removes expired entries from the article cache.
func (a *Aggregator) CleanupCache() {
	a.cache.Cleanup()
}

// fetchFeed downloads and parses a single RSS feed. gofeed's lazy translator
// setup is not safe for concurrent use, so each fetch gets its own parser.
func (a *Aggregator) fetchFeed(ctx context.Context, src Source) ([]models.NewsArticle, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	parser := gofeed.NewParser()
	parser.Client = a.client
	parser.UserAgent = scrape.DefaultUserAgent

	feed, err := parser.ParseURLWithContext(src.RSSURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.Name, err)
	}

	articles := make([]models.NewsArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		art := models.NewsArticle{
			Title:   item.Title,
			URL:     item.Link,
			Source:  src.Name,
			Summary: cleanHTML(item.Description),
		}
		if item.PublishedParsed != nil {
			art.PublishedAt = *item.PublishedParsed
		}
		articles = append(articles, art)
	}
	return articles, nil
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// symbolKeywords returns search keywords for a symbol.
// For example, "RELIANCE" matches "reliance industries" and "ril" too.
func symbolKeywords(symbol string) []string {
	s := strings.ToLower(symbol)
	keywords := []string{s}

	nameMap := map[string][]string{
		"reliance":   {"reliance industries", "ril"},
		"tcs":        {"tata consultancy"},
		"hdfcbank":   {"hdfc bank"},
		"infy":       {"infosys"},
		"icicibank":  {"icici bank"},
		"hindunilvr": {"hindustan unilever", "hul"},
		"sbin":       {"sbi", "state bank"},
		"bhartiartl": {"bharti airtel", "airtel"},
		"kotakbank":  {"kotak mahindra", "kotak bank"},
		"lt":         {"larsen", "l&t"},
		"bajfinance": {"bajaj finance"},
		"axisbank":   {"axis bank"},
		"maruti":     {"maruti suzuki"},
		"tatamotors": {"tata motors"},
		"tatasteel":  {"tata steel"},
		"hcltech":    {"hcl tech", "hcl technologies"},
		"asianpaint": {"asian paints"},
		"sunpharma":  {"sun pharma", "sun pharmaceutical"},
	}
	if extra, ok := nameMap[s]; ok {
		keywords = append(keywords, extra...)
	}
	return keywords
}

// matchesAny checks if text contains any of the keywords (case-insensitive).
func matchesAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// sortByDate sorts articles by published date, newest first.
func sortByDate(articles []models.NewsArticle) {
	for i := 1; i < len(articles); i++ {
		key := articles[i]
		j := i - 1
		for j >= 0 && articles[j].PublishedAt.Before(key.PublishedAt) {
			articles[j+1] = articles[j]
			j--
		}
		articles[j+1] = key
	}
}
