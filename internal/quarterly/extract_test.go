package quarterly

import (
	"testing"
)

func ip(v int64) *int64 { n := v; return &n }

func fp(v float64) *float64 { f := v; return &f }

func TestExtractQuarterLabels(t *testing.T) {
	grid := [][]string{
		{"", "Jun 2024", "Sep 2024", "Dec 2024"},
		{"Sales +", "100", "110", "120"},
	}

	ex := Extract(grid)
	if len(ex.Quarters) != 3 {
		t.Fatalf("got %d quarters, want 3", len(ex.Quarters))
	}
	if ex.Quarters[0] != "Jun 2024" || ex.Quarters[2] != "Dec 2024" {
		t.Fatalf("unexpected quarter labels: %v", ex.Quarters)
	}
}

func TestExtractSingleCellHeader(t *testing.T) {
	grid := [][]string{{"only-label"}}
	ex := Extract(grid)
	if len(ex.Quarters) != 0 {
		t.Fatalf("got %d quarters, want 0 for single-cell header", len(ex.Quarters))
	}
}

func TestExtractEmptyGrid(t *testing.T) {
	ex := Extract(nil)
	if len(ex.Quarters) != 0 || len(ex.Series) != 0 {
		t.Fatal("expected empty extraction for empty grid")
	}
}

func TestExtractSkipsNonDataRows(t *testing.T) {
	grid := [][]string{
		{"", "Jun 2024", "Sep 2024"},
		{"Raw PDF", "", ""},
		{"Raw PDF +", "", ""},
		{"", "1", "2"},
		{"Sales", "100", "110"},
	}

	ex := Extract(grid)
	if len(ex.Series) != 1 {
		t.Fatalf("got %d series, want 1 (PDF and unnamed rows skipped)", len(ex.Series))
	}
	if ex.Series[0].Name != "Sales" {
		t.Fatalf("got series %q, want Sales", ex.Series[0].Name)
	}
}

func TestExtractStripsTrailingPlus(t *testing.T) {
	grid := [][]string{
		{"", "Jun 2024"},
		{"Operating Profit  + ", "50"},
	}

	ex := Extract(grid)
	if len(ex.Series) != 1 || ex.Series[0].Name != "Operating Profit" {
		t.Fatalf("trailing markers not stripped: %+v", ex.Series)
	}
}

func TestCoerceCell(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		absent bool
	}{
		{"", 0, true},
		{"1,234", 1234, false},
		{"12,34,567", 1234567, false},
		{"18%", 18, false},
		{"18.5%", 18.5, false},
		{"-42", -42, false},
		{"12.75", 12.75, false},
		{"n/a", 0, true},
		{"--", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := coerceCell(tt.in)
			if tt.absent {
				if got != nil {
					t.Fatalf("coerceCell(%q) = %v, want absent", tt.in, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("coerceCell(%q) = absent, want %v", tt.in, tt.want)
			}
			if *got != tt.want {
				t.Fatalf("coerceCell(%q) = %v, want %v", tt.in, *got, tt.want)
			}
		})
	}
}

func TestMetricsLookup(t *testing.T) {
	grid := [][]string{
		{"", "Jun 2024", "Sep 2024"},
		{"Sales +", "1,000", "1,100"},
		{"Expenses +", "800", "850"},
		{"Operating Profit", "200", "250"},
		{"OPM %", "20%", "22%"},
		{"EPS in Rs", "3.50", "4.25"},
	}

	m := Extract(grid).Metrics()

	if m.Sales[0] == nil || *m.Sales[0] != 1000 {
		t.Fatalf("Sales[0] = %v, want 1000", m.Sales[0])
	}
	if m.OperatingProfit[1] == nil || *m.OperatingProfit[1] != 250 {
		t.Fatalf("OperatingProfit[1] = %v, want 250", m.OperatingProfit[1])
	}
	if m.OPM[0] == nil || *m.OPM[0] != 20 {
		t.Fatalf("OPM[0] = %v, want 20", m.OPM[0])
	}
	if m.EPS[1] == nil || *m.EPS[1] != 4.25 {
		t.Fatalf("EPS[1] = %v, want 4.25 (fractional preserved)", m.EPS[1])
	}
}

func TestMetricsSalesSubstringFirstWins(t *testing.T) {
	// "Sales" matches by substring; the first matching row must win even when
	// a later row also contains the word.
	grid := [][]string{
		{"", "Jun 2024"},
		{"Net Sales", "500"},
		{"Sales Growth", "900"},
	}

	m := Extract(grid).Metrics()
	if m.Sales[0] == nil || *m.Sales[0] != 500 {
		t.Fatalf("Sales[0] = %v, want 500 (first substring match)", m.Sales[0])
	}
}

func TestMetricsExactMatchRequired(t *testing.T) {
	// "OPM % +" is stripped to "OPM %" and matches; "Operating Profit Margin"
	// must not match the exact-name metric "Operating Profit".
	grid := [][]string{
		{"", "Jun 2024"},
		{"Sales", "100"},
		{"Operating Profit Margin", "77"},
		{"OPM % +", "21%"},
	}

	m := Extract(grid).Metrics()
	if m.OperatingProfit[0] != nil {
		t.Fatalf("OperatingProfit[0] = %v, want absent (no exact match)", *m.OperatingProfit[0])
	}
	if m.OPM[0] == nil || *m.OPM[0] != 21 {
		t.Fatalf("OPM[0] = %v, want 21", m.OPM[0])
	}
}

func TestMetricsMissingRowsYieldAbsentSeries(t *testing.T) {
	grid := [][]string{
		{"", "Jun 2024", "Sep 2024", "Dec 2024"},
		{"Sales", "100", "110", "120"},
	}

	m := Extract(grid).Metrics()
	if len(m.EPS) != 3 {
		t.Fatalf("EPS length = %d, want 3", len(m.EPS))
	}
	for i, v := range m.EPS {
		if v != nil {
			t.Fatalf("EPS[%d] = %v, want absent", i, *v)
		}
	}
}

func TestMetricsRaggedRowDiscarded(t *testing.T) {
	// A row whose length does not fit the quarter axis is discarded in favor
	// of a full absent series.
	grid := [][]string{
		{"", "Jun 2024", "Sep 2024", "Dec 2024"},
		{"Sales", "100", "110"},
	}

	m := Extract(grid).Metrics()
	if len(m.Sales) != 3 {
		t.Fatalf("Sales length = %d, want 3", len(m.Sales))
	}
	for i, v := range m.Sales {
		if v != nil {
			t.Fatalf("Sales[%d] = %v, want absent for ragged row", i, *v)
		}
	}
}

func TestMetricsTruncationKeepsSign(t *testing.T) {
	grid := [][]string{
		{"", "Jun 2024", "Sep 2024"},
		{"Sales", "99.9", "-3.7"},
	}

	m := Extract(grid).Metrics()
	if *m.Sales[0] != 99 {
		t.Fatalf("Sales[0] = %d, want 99 (truncated)", *m.Sales[0])
	}
	if *m.Sales[1] != -3 {
		t.Fatalf("Sales[1] = %d, want -3 (truncated toward zero)", *m.Sales[1])
	}
}
