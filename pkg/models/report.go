// Package models defines the core data structures used throughout quarterlens.
package models

import "time"

// Metric keys as they appear in CompanyQuarterlyReport.Metrics. The spelled-out
// forms ("OPM %", "EPS in Rs") mirror the row labels on the source site and are
// part of the API contract.
const (
	MetricSales           = "Sales"
	MetricOperatingProfit = "Operating Profit"
	MetricOPM             = "OPM %"
	MetricEPS             = "EPS in Rs"
	MetricSalesQoQ        = "Sales QoQ %"
	MetricSalesYoY        = "Sales YoY %"
)

// CompanyQuarterlyReport is the normalized quarterly-results snapshot for a
// single company. Quarters and every metric series are aligned 1:1 and ordered
// latest quarter first. A report is built once per scrape and never mutated or
// persisted afterwards.
//
// Metrics values are typed per key: Sales, Operating Profit and OPM % are
// []*int64 (nil marks a quarter the source left blank), EPS in Rs is
// []*float64, and the derived Sales QoQ % / Sales YoY % series are []string
// rendered as "+12%", "-3%", "0%" or the sentinel "N/A".
// When every candidate page fails, Error holds the failure message and the
// report keeps whatever was salvaged before the failure (typically MarketCap);
// Quarters and Metrics are then empty.
type CompanyQuarterlyReport struct {
	Symbol    string                 `json:"symbol"`              // e.g., "RELIANCE"
	MarketCap string                 `json:"marketCap,omitempty"` // in ₹ crore, separators stripped; empty when not found
	Quarters  []string               `json:"quarters"`            // e.g., "Jun 2025", "Mar 2025", ...
	Metrics   map[string]interface{} `json:"metrics"`
	Error     string                 `json:"error,omitempty"`
	FetchedAt time.Time              `json:"fetched_at"`
}

// UpcomingResult is one row of the exchange's forthcoming-results calendar,
// annotated with the NSE symbol its company name resolved to. Rows whose name
// could not be resolved are dropped before they reach this type.
type UpcomingResult struct {
	Code    string `json:"code"`    // exchange scrip code, e.g., "532873"
	Company string `json:"company"` // e.g., "HDIL Limited"
	Symbol  string `json:"symbol"`  // e.g., "HDIL"
	Date    string `json:"date"`    // e.g., "08 Sep 2025"
}

// NewsArticle represents a single news item from an Indian financial feed.
type NewsArticle struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}
