package cache

// Statistics are the counters a cache level accumulates while it serves
// accesses.
type Statistics struct {
	References uint64 `json:"references"`
	Misses     uint64 `json:"misses"`

	// Penalties is the sum of the latencies of the level below over all the
	// misses, excluding this level's own hit time.
	Penalties uint64 `json:"penalties"`
}

// Hits returns the number of accesses served by the level itself.
func (s Statistics) Hits() uint64 {
	return s.References - s.Misses
}

// MissRate returns the fraction of references that missed.
func (s Statistics) MissRate() float64 {
	if s.References == 0 {
		return 0
	}

	return float64(s.Misses) / float64(s.References)
}

// AvgMissPenalty returns the average penalty of one miss.
func (s Statistics) AvgMissPenalty() float64 {
	if s.Misses == 0 {
		return 0
	}

	return float64(s.Penalties) / float64(s.Misses)
}
