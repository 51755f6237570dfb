package resolver

import (
	"testing"
)

func TestResolveExact(t *testing.T) {
	r := New(newLoadedIndex(t, equityCSV))

	symbol, ok := r.Resolve("Tata Consultancy Services Limited")
	if !ok || symbol != "TCS" {
		t.Fatalf("Resolve = %q, %v, want TCS", symbol, ok)
	}

	// Case and spacing are folded before lookup.
	symbol, ok = r.Resolve("  TATA  CONSULTANCY  SERVICES  LIMITED ")
	if !ok || symbol != "TCS" {
		t.Errorf("Resolve(folded) = %q, %v, want TCS", symbol, ok)
	}
}

func TestResolveExactShortKey(t *testing.T) {
	csv := "SYMBOL,NAME OF COMPANY, SERIES, DATE OF LISTING, PAID UP VALUE, MARKET LOT, ISIN NUMBER, FACE VALUE\n" +
		"TCS,tcs ltd, EQ, 25-AUG-2004, 1, 1, INE467B01029, 1\n"
	r := New(newLoadedIndex(t, csv))

	symbol, ok := r.Resolve("TCS LTD")
	if !ok || symbol != "TCS" {
		t.Fatalf("Resolve(TCS LTD) = %q, %v, want TCS", symbol, ok)
	}
}

func TestResolveOverride(t *testing.T) {
	r := New(newLoadedIndex(t, equityCSV))

	symbol, ok := r.Resolve("Mahindra & Mahindra Limited")
	if !ok || symbol != "M&M" {
		t.Errorf("Resolve = %q, %v, want M&M", symbol, ok)
	}
	symbol, ok = r.Resolve("Bajaj Auto Limited")
	if !ok || symbol != "BAJAJ-AUTO" {
		t.Errorf("Resolve = %q, %v, want BAJAJ-AUTO", symbol, ok)
	}
}

func TestResolveUnlistedShortCircuitsFuzzy(t *testing.T) {
	r := New(newLoadedIndex(t, equityCSV))

	// Fuzzy alone happily maps this onto the parent listing.
	symbol, ok := r.Resolve("Infosys BPM")
	if !ok || symbol != "INFY" {
		t.Fatalf("Resolve(Infosys BPM) = %q, %v, want fuzzy INFY", symbol, ok)
	}

	// A curated not-listed entry must stop resolution before fuzzy gets
	// the chance to produce that wrong answer.
	r.Overrides().RegisterUnlisted("Infosys BPM Limited")
	if symbol, ok := r.Resolve("Infosys BPM Limited"); ok {
		t.Fatalf("Resolve(unlisted) = %q, want no resolution", symbol)
	}
}

func TestResolveFuzzy(t *testing.T) {
	r := New(newLoadedIndex(t, equityCSV))

	symbol, ok := r.Resolve("Infosys Ltd")
	if !ok || symbol != "INFY" {
		t.Errorf("Resolve(Infosys Ltd) = %q, %v, want INFY", symbol, ok)
	}
}

func TestResolveFuzzyFirstCandidateWins(t *testing.T) {
	r := New(newLoadedIndex(t, equityCSV))

	// Both alpha rows clear the threshold; the one earlier in the equity
	// file wins regardless of score.
	symbol, ok := r.Resolve("Alpha Industries")
	if !ok || symbol != "AAA" {
		t.Errorf("Resolve(Alpha Industries) = %q, %v, want AAA", symbol, ok)
	}
}

func TestResolveFuzzyThreshold(t *testing.T) {
	r := New(newLoadedIndex(t, equityCSV))

	// 3 of 5 significant words match: exactly at the threshold.
	symbol, ok := r.Resolve("Zeta Omega Consolidated Mining Ventures")
	if !ok || symbol != "ZETA" {
		t.Errorf("Resolve at 0.6 = %q, %v, want ZETA", symbol, ok)
	}

	// 2 of 4 is below it.
	if symbol, ok := r.Resolve("Zeta Omega Mining Ventures"); ok {
		t.Errorf("Resolve at 0.5 = %q, want no resolution", symbol)
	}
}

func TestResolveNoSignificantWords(t *testing.T) {
	r := New(newLoadedIndex(t, equityCSV))
	if symbol, ok := r.Resolve("AB CD Co"); ok {
		t.Errorf("Resolve(short words) = %q, want no resolution", symbol)
	}
}

func TestResolveEmptyInputs(t *testing.T) {
	r := New(NewIndex(IndexOptions{}))

	if _, ok := r.Resolve(""); ok {
		t.Error("empty name must not resolve")
	}
	if _, ok := r.Resolve("Unknown Obscure Co"); ok {
		t.Error("unknown name against empty index must not resolve")
	}
}

func TestSignificantWords(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"infosys limited", []string{"infosys", "limited"}},
		{"l&t ltd", nil},
		{"tata consultancy services ltd", []string{"tata", "consultancy", "services"}},
		{"", nil},
	}
	for _, tt := range tests {
		got := significantWords(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("significantWords(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("significantWords(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
			}
		}
	}
}

func TestMatchRatio(t *testing.T) {
	tests := []struct {
		input     []string
		candidate []string
		want      float64
	}{
		{[]string{"infosys"}, []string{"infosys", "limited"}, 1.0},
		{[]string{"infosys", "global"}, []string{"infosys", "limited"}, 0.5},
		{[]string{"suzlon"}, []string{"suzlon"}, 1.0},
		{[]string{"energy"}, []string{"suzlon"}, 0},
		{nil, []string{"suzlon"}, 0},
		{[]string{"suzlon"}, nil, 0},
		// Substring containment counts both ways.
		{[]string{"hindustanunilever"}, []string{"hindustan", "unilever"}, 1.0},
	}
	for _, tt := range tests {
		got := matchRatio(tt.input, tt.candidate)
		if got != tt.want {
			t.Errorf("matchRatio(%v, %v) = %v, want %v", tt.input, tt.candidate, got, tt.want)
		}
	}
}
