// Package quarterly turns a scraped quarterly-results grid into aligned
// metric series and computes the derived quarter-over-quarter and
// year-over-year changes.
//
// The grid is raw cell text straight off the page: the first row holds the
// quarter labels, every later row is one metric. Nothing about the grid shape
// is guaranteed, so all lookups go by row name and any cell or row that does
// not fit degrades to an absent value instead of failing the extraction.
package quarterly

import (
	"strconv"
	"strings"

	"github.com/rsampath/quarterlens/pkg/models"
)

// pdfRowLabel is the non-data download-link row on the source page.
const pdfRowLabel = "Raw PDF"

// Series is one named metric row with its coerced per-quarter values.
// A nil entry marks a cell the source left blank or unparsable.
type Series struct {
	Name   string
	Values []*float64
}

// Extraction is the named-series view of a raw grid.
type Extraction struct {
	Quarters []string
	Series   []Series
}

// Metrics holds the four canonical series aligned to the quarter axis.
// Sales, OperatingProfit and OPM are truncated to whole numbers the way the
// source displays them; EPS keeps its fractional part.
type Metrics struct {
	Sales           []*int64
	OperatingProfit []*int64
	OPM             []*int64
	EPS             []*float64
}

// Extract converts a raw grid into quarter labels plus named series.
// Row 0 is the header; its first cell is the row-label column and is ignored.
// Rows labeled "Raw PDF" or with an empty label are discarded.
func Extract(grid [][]string) Extraction {
	var ex Extraction
	if len(grid) == 0 {
		return ex
	}

	if len(grid[0]) > 1 {
		ex.Quarters = grid[0][1:]
	}

	for _, row := range grid[1:] {
		if len(row) == 0 {
			continue
		}
		name := strings.TrimRight(row[0], " +")
		if name == "" || name == pdfRowLabel {
			continue
		}

		values := make([]*float64, 0, len(row)-1)
		for _, cell := range row[1:] {
			values = append(values, coerceCell(cell))
		}
		ex.Series = append(ex.Series, Series{Name: name, Values: values})
	}

	return ex
}

// Metrics picks the four canonical rows out of the extraction and aligns
// each to the quarter axis. The Sales row matches by substring (the site
// labels it "Sales", "Sales +" and similar); the rest match exactly. First
// matching row wins. A metric that is missing, or whose row length does not
// fit the quarter axis, becomes a full series of absent values.
func (ex Extraction) Metrics() Metrics {
	n := len(ex.Quarters)
	return Metrics{
		Sales:           toInts(fit(ex.lookup(models.MetricSales, true), n)),
		OperatingProfit: toInts(fit(ex.lookup(models.MetricOperatingProfit, false), n)),
		OPM:             toInts(fit(ex.lookup(models.MetricOPM, false), n)),
		EPS:             fit(ex.lookup(models.MetricEPS, false), n),
	}
}

// lookup returns the values of the first series matching name, or nil.
func (ex Extraction) lookup(name string, substring bool) []*float64 {
	for _, s := range ex.Series {
		if substring && strings.Contains(s.Name, name) {
			return s.Values
		}
		if !substring && s.Name == name {
			return s.Values
		}
	}
	return nil
}

// coerceCell parses one cell. Empty cells are absent; a "%" suffix is
// stripped before parsing; thousands separators are removed; anything that
// still fails to parse is absent. Coercion never fails.
func coerceCell(cell string) *float64 {
	if cell == "" {
		return nil
	}

	s := cell
	if strings.Contains(s, "%") {
		s = strings.TrimSuffix(s, "%")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// fit aligns values to length n. A row of the wrong length belongs to some
// other axis than the header's and is discarded wholesale.
func fit(values []*float64, n int) []*float64 {
	if len(values) == n {
		return values
	}
	return make([]*float64, n)
}

// toInts truncates present values to whole numbers.
func toInts(values []*float64) []*int64 {
	out := make([]*int64, len(values))
	for i, v := range values {
		if v != nil {
			n := int64(*v)
			out[i] = &n
		}
	}
	return out
}
