package scrape

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// sectionStrategy locates a candidate quarterly-results section on a company
// page. Strategies are tried in order; the first one that returns a non-empty
// selection wins. New page layouts get a new entry here, not new branching.
type sectionStrategy struct {
	name string
	find func(doc *goquery.Document) *goquery.Selection
}

var sectionStrategies = []sectionStrategy{
	{
		name: "quarters section",
		find: func(doc *goquery.Document) *goquery.Selection {
			return doc.Find("section#quarters")
		},
	},
	{
		name: "card section",
		find: func(doc *goquery.Document) *goquery.Selection {
			// Generic card layout: pick the first card that actually
			// contains a table.
			var found *goquery.Selection
			doc.Find("section.card").EachWithBreak(func(_ int, s *goquery.Selection) bool {
				if s.Find("table").Length() > 0 {
					found = s
					return false
				}
				return true
			})
			return found
		},
	},
}

// marketCapPatterns match the market cap figure inside a ratios list item,
// most specific first. Group 1 captures the digits (commas allowed).
var marketCapPatterns = []*regexp.Regexp{
	regexp.MustCompile(`₹\s*([\d,]+)\s*Cr`),
	regexp.MustCompile(`Rs\.?\s*([\d,]+)\s*Cr`),
	regexp.MustCompile(`([\d,]+)`),
}

// ParseCompanyPage extracts the market cap string and the raw quarterly
// results grid from a company page. The grid is rows of trimmed cell text
// with the header row first; interpreting the cells is the quarterly
// package's job.
//
// Market cap extraction is best-effort and never fails the parse. The grid
// is mandatory: a page without a recognizable results table returns
// ErrStructureNotFound.
func ParseCompanyPage(doc *goquery.Document) (marketCap string, grid [][]string, err error) {
	marketCap = findMarketCap(doc)

	section := findResultsSection(doc)
	if section == nil {
		return marketCap, nil, fmt.Errorf("%w: no results section on page", ErrStructureNotFound)
	}

	table := section.Find("table").First()
	if table.Length() == 0 {
		return marketCap, nil, fmt.Errorf("%w: results section has no table", ErrStructureNotFound)
	}

	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var row []string
		empty := true
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			text := strings.TrimSpace(cell.Text())
			if text != "" {
				empty = false
			}
			row = append(row, text)
		})
		if !empty {
			grid = append(grid, row)
		}
	})

	if len(grid) == 0 {
		return marketCap, nil, fmt.Errorf("%w: results table has no rows", ErrStructureNotFound)
	}
	return marketCap, grid, nil
}

func findResultsSection(doc *goquery.Document) *goquery.Selection {
	for _, strat := range sectionStrategies {
		sel := strat.find(doc)
		if sel != nil && sel.Length() > 0 {
			return sel.First()
		}
	}
	return nil
}

// findMarketCap scans the top ratios list for the market cap entry and pulls
// the number out of it. Returns "" when the page has no such entry.
func findMarketCap(doc *goquery.Document) string {
	var capText string
	doc.Find("ul#top-ratios li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		text := strings.TrimSpace(li.Text())
		if !strings.Contains(text, "Market Cap") {
			return true
		}
		for _, re := range marketCapPatterns {
			if m := re.FindStringSubmatch(text); m != nil {
				capText = strings.ReplaceAll(m[1], ",", "")
				break
			}
		}
		// Stop at the first Market Cap entry either way.
		return false
	})
	return capText
}
