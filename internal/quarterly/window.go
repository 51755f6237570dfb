package quarterly

// DefaultMaxQuarters is how many recent quarters a report carries.
const DefaultMaxQuarters = 8

// WindowSize returns how many quarters a report can actually carry:
// the configured maximum, capped by what the table had.
func WindowSize(available, max int) int {
	if max < 0 {
		max = 0
	}
	if available < max {
		return available
	}
	return max
}

// Window returns the last n elements of s in reverse order, so index 0 is
// the most recent entry. Callers size n once via WindowSize and apply it to
// every aligned series, keeping all windowed series the same length.
func Window[T any](s []T, n int) []T {
	if n > len(s) {
		n = len(s)
	}
	if n < 0 {
		n = 0
	}
	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = s[len(s)-1-i]
	}
	return out
}
