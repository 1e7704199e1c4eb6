package feed

// RawEvent is one upstream feed record before grouping. Only the
// fields the aggregation consumes are decoded; the upstream schema
// carries more but offers no stability guarantee.
type RawEvent struct {
	Title    string `json:"title"`
	Status   string `json:"status"`
	Category string `json:"category,omitempty"`
	Time     string `json:"time"`
	Link     string `json:"link"`
}
