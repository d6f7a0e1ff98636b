package domain

// CacheStatus reports whether a result came from the response cache.
type CacheStatus string

const (
	CacheHit  CacheStatus = "hit"
	CacheMiss CacheStatus = "miss"
)

// Usage holds optional usage counters reported by an agent.
type Usage struct {
	InputTokens       int64   `json:"input_tokens,omitempty" yaml:"input_tokens,omitempty"`
	CachedInputTokens int64   `json:"cached_input_tokens,omitempty" yaml:"cached_input_tokens,omitempty"`
	OutputTokens      int64   `json:"output_tokens,omitempty" yaml:"output_tokens,omitempty"`
	CostUSD           float64 `json:"cost_usd,omitempty" yaml:"cost_usd,omitempty"`
	DurationMs        int64   `json:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
}

// ReviewResult is the normalized output of one routed review.
type ReviewResult struct {
	Agent string      `json:"agent"`
	Model string      `json:"model"`
	Text  string      `json:"text"`
	Usage *Usage      `json:"usage,omitempty"`
	Cache CacheStatus `json:"cache,omitempty"`
}

// Clone returns a deep copy so callers can annotate it freely.
func (r ReviewResult) Clone() ReviewResult {
	out := r
	if r.Usage != nil {
		u := *r.Usage
		out.Usage = &u
	}
	return out
}

// EmptyResponseText is the placeholder used when an agent returns no text.
func EmptyResponseText(agent string) string {
	return agent + " returned no review content."
}
