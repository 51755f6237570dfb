// Package resolver maps exchange company display names to NSE trading
// symbols. The backing index is built from NSE's equity master list and
// loads in the background; until it is ready, lookups answer from whatever
// has been indexed so far and simply miss on the rest.
package resolver

import "strings"

// fuzzyThreshold is the fraction of a name's significant words that must
// match an index entry before the entry's symbol is accepted.
const fuzzyThreshold = 0.6

// Resolver resolves company display names to NSE symbols: exact index
// lookup first, then the curated override table, then fuzzy word matching
// over the index.
type Resolver struct {
	index     *Index
	overrides *OverrideRegistry
}

// New creates a resolver over the given index with the built-in overrides.
func New(index *Index) *Resolver {
	return &Resolver{
		index:     index,
		overrides: NewOverrideRegistry(),
	}
}

// Overrides exposes the curated table so callers can extend it.
func (r *Resolver) Overrides() *OverrideRegistry { return r.overrides }

// Resolve maps a company display name to an NSE symbol. ok=false means the
// name resolved to nothing: unknown, or curated as not listed.
func (r *Resolver) Resolve(name string) (string, bool) {
	key := normalizeName(name)
	if key == "" {
		return "", false
	}

	if symbol, ok := r.index.Lookup(key); ok {
		return symbol, true
	}
	if symbol, listed, ok := r.overrides.Lookup(key); ok {
		return symbol, listed
	}
	return r.fuzzyResolve(key)
}

// fuzzyResolve scans the index in file order and returns the first entry
// whose words overlap the input's beyond the threshold. First match wins;
// there is no best-match search.
func (r *Resolver) fuzzyResolve(key string) (string, bool) {
	words := significantWords(key)
	if len(words) == 0 {
		return "", false
	}

	var symbol string
	var found bool
	r.index.Walk(func(name, sym string) bool {
		if matchRatio(words, significantWords(name)) >= fuzzyThreshold {
			symbol, found = sym, true
			return false
		}
		return true
	})
	return symbol, found
}

// significantWords returns the words longer than 3 characters.
func significantWords(name string) []string {
	var out []string
	for _, w := range strings.Fields(name) {
		if len(w) > 3 {
			out = append(out, w)
		}
	}
	return out
}

// matchRatio is the fraction of input words that are a substring of, or
// contain, some candidate word.
func matchRatio(input, candidate []string) float64 {
	if len(input) == 0 || len(candidate) == 0 {
		return 0
	}
	matched := 0
	for _, w := range input {
		for _, c := range candidate {
			if strings.Contains(w, c) || strings.Contains(c, w) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(input))
}
