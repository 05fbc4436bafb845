package aggregate

import "sort"

// Entry is one row of a frequency table.
type Entry struct {
	Label string `json:"label" yaml:"label"`
	Count int    `json:"count" yaml:"count"`
}

// Counter counts labels and ranks them by frequency. Labels with equal
// counts keep the order in which they were first added, so results are
// deterministic as long as values are added in a deterministic order.
type Counter struct {
	index   map[string]int
	entries []Entry
}

// NewCounter returns an empty Counter.
func NewCounter() *Counter {
	return &Counter{index: make(map[string]int)}
}

// Add counts one occurrence of label.
func (c *Counter) Add(label string) {
	if i, ok := c.index[label]; ok {
		c.entries[i].Count++
		return
	}
	c.index[label] = len(c.entries)
	c.entries = append(c.entries, Entry{Label: label, Count: 1})
}

// Len returns the number of distinct labels.
func (c *Counter) Len() int { return len(c.entries) }

// Total returns the number of occurrences added.
func (c *Counter) Total() int {
	n := 0
	for _, e := range c.entries {
		n += e.Count
	}
	return n
}

// Top returns at most n entries sorted by count, descending. n <= 0 returns
// every entry.
func (c *Counter) Top(n int) []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	// entries are in first-seen order, a stable sort keeps it for ties
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
