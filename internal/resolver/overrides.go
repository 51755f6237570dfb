package resolver

import (
	"strings"
	"sync"
)

// overrideEntry is one curated resolution. listed=false marks companies that
// show up in the results calendar but trade no equity on NSE (debt-only
// listings, unlisted subsidiaries), so resolution must stop rather than
// fuzzy-match them onto an unrelated symbol.
type overrideEntry struct {
	symbol string
	listed bool
}

// OverrideRegistry holds curated company-name resolutions that the equity
// master list gets wrong or cannot answer. Checked after the exact index
// lookup and before any fuzzy matching. Safe for concurrent use.
type OverrideRegistry struct {
	mu      sync.RWMutex
	entries map[string]overrideEntry
}

// NewOverrideRegistry creates a registry seeded with the built-in table.
func NewOverrideRegistry() *OverrideRegistry {
	r := &OverrideRegistry{entries: make(map[string]overrideEntry)}
	for name, symbol := range defaultOverrides {
		r.Register(name, symbol)
	}
	for _, name := range defaultUnlisted {
		r.RegisterUnlisted(name)
	}
	return r
}

// Register maps a company name to a symbol.
func (r *OverrideRegistry) Register(name, symbol string) {
	key := normalizeName(name)
	r.mu.Lock()
	r.entries[key] = overrideEntry{symbol: symbol, listed: true}
	r.mu.Unlock()
}

// RegisterUnlisted marks a company name as having no NSE equity listing.
func (r *OverrideRegistry) RegisterUnlisted(name string) {
	key := normalizeName(name)
	r.mu.Lock()
	r.entries[key] = overrideEntry{}
	r.mu.Unlock()
}

// Lookup returns the curated resolution for a name. ok reports whether the
// registry has an opinion at all; listed=false with ok=true means the name
// is known and deliberately resolves to nothing.
func (r *OverrideRegistry) Lookup(name string) (symbol string, listed, ok bool) {
	key := normalizeName(name)
	r.mu.RLock()
	entry, ok := r.entries[key]
	r.mu.RUnlock()
	return entry.symbol, entry.listed, ok
}

// normalizeName lower-cases and collapses internal whitespace so calendar
// spellings and registry keys compare cleanly. Index keys use the same form.
func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Calendar spellings that exact and fuzzy lookup both miss, usually because
// the symbol contains punctuation the company name does not hint at.
var defaultOverrides = map[string]string{
	"BAJAJ AUTO LIMITED":              "BAJAJ-AUTO",
	"BAJAJ AUTO LTD":                  "BAJAJ-AUTO",
	"MAHINDRA & MAHINDRA LIMITED":     "M&M",
	"LARSEN & TOUBRO LIMITED":         "LT",
	"L&T TECHNOLOGY SERVICES LIMITED": "LTTS",
	"UNITED SPIRITS LIMITED":          "UNITDSPR",
	"SURYODAY SMALL FINANCE BANK LTD": "SURYODAY",
}

// Companies that appear on the results calendar with no NSE equity symbol.
var defaultUnlisted = []string{
	"RELIANCE RETAIL VENTURES LIMITED",
	"HDFC CREDILA FINANCIAL SERVICES LIMITED",
	"TATA SONS PRIVATE LIMITED",
}
