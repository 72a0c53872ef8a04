package domain

// ExpansionMetrics is the per-call diagnostic record of an expanded search.
// It is returned alongside the result set and is not persisted.
type ExpansionMetrics struct {
	Variants     []string `json:"variants"`
	SuccessCount int      `json:"success_count"`
	FailureCount int      `json:"failure_count"`
	Retrieved    int      `json:"retrieved"`
	DurationMS   int64    `json:"duration_ms"`
	CacheHit     bool     `json:"cache_hit"`
}
