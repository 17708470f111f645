package ranking

// ListMetrics are observational only; they never influence ranking.
type ListMetrics struct {
	Count      int     `json:"count"`
	Diversity  float64 `json:"diversity"`
	Repetition float64 `json:"repetition"`
}

// ComputeMetrics returns distinct/total as diversity and 1-diversity as
// repetition. Blank ids are ignored. An empty list reports zero for both.
func ComputeMetrics(ids []string) ListMetrics {
	seen := make(map[string]struct{}, len(ids))
	n := 0
	for _, id := range ids {
		if id == "" {
			continue
		}
		n++
		seen[id] = struct{}{}
	}
	if n == 0 {
		return ListMetrics{}
	}
	d := float64(len(seen)) / float64(max(n, 1))
	return ListMetrics{Count: n, Diversity: d, Repetition: 1 - d}
}

// IDs extracts candidate ids in order.
func IDs[T Candidate](items []T) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.CandidateID())
	}
	return out
}
