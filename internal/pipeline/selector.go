package pipeline

// Select folds one outcome into the running best. A failed outcome carries
// no candidate and never wins; a zero-byte candidate is never accepted; a
// candidate replaces best only when strictly smaller.
func Select(best Candidate, outcome Outcome) Candidate {
	if outcome.Err != nil {
		return best
	}
	c := outcome.Candidate
	if len(c.Data) == 0 {
		return best
	}
	if len(best.Data) == 0 || c.Size() < best.Size() {
		return c
	}
	return best
}

// Fold reduces outcomes onto initial with Select.
func Fold(initial Candidate, outcomes ...Outcome) Candidate {
	best := initial
	for _, outcome := range outcomes {
		best = Select(best, outcome)
	}
	return best
}
