package extract

// Summary holds the counters of a run.
type Summary struct {
	Detected      int `json:"detected"`
	UniqueTotal   int `json:"unique_total"`
	SelectedCount int `json:"selected_count"`
	SkippedCount  int `json:"skipped_count"`
	PriorityCount int `json:"priority_count"`
	DomainCount   int `json:"domain_count"`
}

// Result is the full outcome of Run.
type Result struct {
	Selection
	Summary Summary `json:"summary"`
}

// Run extracts addresses from text and selects them per domain.
// Out of range options are clamped rather than rejected; callers that want
// to reject them should use Options.Validate first.
func Run(text string, opts Options) *Result {
	matches := Detect(text)
	unique := Dedupe(matches)
	groups := Group(unique)
	sel := Select(groups, opts)

	priority := 0
	for _, e := range sel.Selected {
		if e.Type == TypePriority {
			priority++
		}
	}

	return &Result{
		Selection: *sel,
		Summary: Summary{
			Detected:      len(matches),
			UniqueTotal:   len(unique),
			SelectedCount: len(sel.Selected),
			SkippedCount:  len(sel.Skipped),
			PriorityCount: priority,
			DomainCount:   len(groups.Order),
		},
	}
}

// Empty reports whether no address was found.
func (r *Result) Empty() bool {
	return r.Summary.UniqueTotal == 0
}
