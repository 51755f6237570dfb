package quarterly

import (
	"fmt"
	"math"
)

// NA is the sentinel for a percentage change that cannot be computed.
const NA = "N/A"

// Change is a derived percentage change. The zero value is the sentinel:
// a change with no defined value.
type Change struct {
	Pct int
	OK  bool
}

// String renders the change the way the API serializes it: "+12%", "-3%",
// "0%", or "N/A" for the sentinel.
func (c Change) String() string {
	if !c.OK {
		return NA
	}
	if c.Pct > 0 {
		return fmt.Sprintf("+%d%%", c.Pct)
	}
	return fmt.Sprintf("%d%%", c.Pct)
}

// PctChange computes the signed percentage change from prev to cur, rounded
// to the nearest integer. A missing current value, a missing prior value, or
// a zero prior value makes the change undefined and yields the sentinel:
// dividing by zero or a placeholder would report something misleading.
func PctChange(cur, prev *int64) Change {
	if cur == nil || prev == nil || *prev == 0 {
		return Change{}
	}
	pct := math.Round(float64(*cur-*prev) / math.Abs(float64(*prev)) * 100)
	return Change{Pct: int(pct), OK: true}
}

// QoQ computes quarter-over-quarter changes for a chronological sales series.
// Index 0 has no prior quarter and is always the sentinel.
func QoQ(sales []*int64) []Change {
	out := make([]Change, len(sales))
	for i := 1; i < len(sales); i++ {
		out[i] = PctChange(sales[i], sales[i-1])
	}
	return out
}

// YoY computes year-over-year changes: each quarter against the one four
// quarters earlier. The first min(4, len) entries are the sentinel.
func YoY(sales []*int64) []Change {
	out := make([]Change, len(sales))
	for i := 4; i < len(sales); i++ {
		out[i] = PctChange(sales[i], sales[i-4])
	}
	return out
}

// Labels renders a change series to its string form.
func Labels(changes []Change) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.String()
	}
	return out
}
