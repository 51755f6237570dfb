package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
)

const defaultEquityListURL = "https://nsearchives.nseindia.com/content/equities/EQUITY_L.csv"

// LoadState is the lifecycle of the background index load.
type LoadState int

const (
	StateIdle LoadState = iota
	StateLoading
	StateReady
	StateFailed
)

func (s LoadState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// equityRow is one line of the NSE equity master list. The file carries more
// columns (listing date, ISIN, face value); only these three matter here.
type equityRow struct {
	Symbol string `csv:"SYMBOL"`
	Name   string `csv:"NAME OF COMPANY"`
	Series string `csv:"SERIES"`
}

// IndexOptions configures an Index. Zero values fall back to defaults.
type IndexOptions struct {
	URL       string        // equity master CSV location
	HomeURL   string        // cookie-warm page, defaults to the NSE homepage
	Timeout   time.Duration // fetch timeout, default 30s
	BatchSize int           // rows indexed per lock acquisition, default 500
}

// Index maps lower-cased company names to NSE symbols, populated from the
// exchange's equity master list. Population happens in batches under short
// write locks, so lookups start answering from partial data while the load
// is still in flight. Safe for concurrent use.
type Index struct {
	mu           sync.RWMutex
	state        LoadState
	loadErr      error
	nameToSymbol map[string]string
	names        []string // file order, drives deterministic fuzzy scans

	fetcher   *nseFetcher
	url       string
	batchSize int
	loadOnce  sync.Once
}

// NewIndex creates an empty index. Call Load or LoadAsync to populate it.
func NewIndex(opts IndexOptions) *Index {
	if opts.URL == "" {
		opts.URL = defaultEquityListURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	return &Index{
		state:        StateIdle,
		nameToSymbol: make(map[string]string),
		fetcher:      newNSEFetcher(opts.Timeout, opts.HomeURL),
		url:          opts.URL,
		batchSize:    opts.BatchSize,
	}
}

// State returns the lifecycle state and, when failed, the load error.
func (ix *Index) State() (LoadState, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.state, ix.loadErr
}

// Size returns the number of indexed company names.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.names)
}

// Lookup returns the symbol for an exact lower-cased company name.
func (ix *Index) Lookup(name string) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	symbol, ok := ix.nameToSymbol[name]
	return symbol, ok
}

// Walk visits entries in equity-file order until fn returns false.
func (ix *Index) Walk(fn func(name, symbol string) bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	for _, name := range ix.names {
		if !fn(name, ix.nameToSymbol[name]) {
			return
		}
	}
}

// LoadAsync starts the one-shot background load. Later calls are no-ops;
// check State to observe the outcome.
func (ix *Index) LoadAsync(ctx context.Context) {
	ix.loadOnce.Do(func() {
		go ix.load(ctx) //nolint:errcheck // outcome lands in State
	})
}

// Load fetches and indexes the equity list synchronously. If a load already
// ran it returns that load's outcome instead of fetching again.
func (ix *Index) Load(ctx context.Context) error {
	ix.loadOnce.Do(func() {
		ix.load(ctx) //nolint:errcheck // outcome lands in State
	})
	_, err := ix.State()
	return err
}

func (ix *Index) load(ctx context.Context) error {
	ix.setState(StateLoading, nil)

	body, err := ix.fetcher.get(ctx, ix.url)
	if err != nil {
		err = fmt.Errorf("fetch equity list: %w", err)
		ix.setState(StateFailed, err)
		return err
	}
	defer body.Close()

	var rows []equityRow
	if err := gocsv.UnmarshalCSV(gocsv.LazyCSVReader(body), &rows); err != nil {
		err = fmt.Errorf("parse equity list: %w", err)
		ix.setState(StateFailed, err)
		return err
	}

	batch := make([]equityRow, 0, ix.batchSize)
	for _, row := range rows {
		batch = append(batch, row)
		if len(batch) >= ix.batchSize {
			ix.addBatch(batch)
			batch = batch[:0]
		}
	}
	ix.addBatch(batch)

	if ix.Size() == 0 {
		err := errors.New("equity list produced no entries")
		ix.setState(StateFailed, err)
		return err
	}
	ix.setState(StateReady, nil)
	return nil
}

// addBatch indexes a chunk of rows. Only cash-segment series are kept; the
// file also lists debt and rights entries under other series codes.
func (ix *Index) addBatch(rows []equityRow) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, r := range rows {
		symbol := strings.TrimSpace(r.Symbol)
		name := normalizeName(r.Name)
		series := strings.TrimSpace(r.Series)
		if symbol == "" || name == "" {
			continue
		}
		if series != "EQ" && series != "BE" {
			continue
		}
		if _, dup := ix.nameToSymbol[name]; dup {
			continue
		}
		ix.nameToSymbol[name] = symbol
		ix.names = append(ix.names, name)
	}
}

func (ix *Index) setState(s LoadState, err error) {
	ix.mu.Lock()
	ix.state = s
	ix.loadErr = err
	ix.mu.Unlock()
}
