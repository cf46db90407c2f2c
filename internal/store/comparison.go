package store

// reduceToggleSelection adds the item if absent, removes it if present.
// Toggling twice restores the original membership.
func reduceToggleSelection(selected []ReportItem, item ReportItem) []ReportItem {
	for i := range selected {
		if selected[i].ID == item.ID {
			return append(selected[:i:i], selected[i+1:]...)
		}
	}
	return append(selected, item)
}

// ToggleCardSelection flips an item's membership in the comparison set.
func (s *Store) ToggleCardSelection(item ReportItem) {
	s.apply("comparison_selection_toggled", "comparison", map[string]string{"itemId": item.ID}, func(state *State) {
		state.Comparison.Selected = reduceToggleSelection(state.Comparison.Selected, item)
	})
}

// ClearSelection empties the comparison set and drops the derived
// report with it.
func (s *Store) ClearSelection() {
	s.apply("comparison_selection_cleared", "comparison", nil, func(state *State) {
		state.Comparison.Selected = nil
		state.Comparison.Report = nil
		state.Comparison.Error = ""
		state.Comparison.Loading = false
	})
}

func (s *Store) ComparisonStart() {
	s.apply("comparison_start", "comparison", nil, func(state *State) {
		state.Comparison.Loading = true
		state.Comparison.Error = ""
		state.Comparison.Report = nil
	})
}

func (s *Store) ComparisonSuccess(report ComparativeReport) {
	s.apply("comparison_success", "comparison", nil, func(state *State) {
		state.Comparison.Loading = false
		state.Comparison.Report = &report
	})
}

func (s *Store) ComparisonFailure(message string) {
	s.apply("comparison_failure", "comparison", map[string]string{"error": message}, func(state *State) {
		state.Comparison.Loading = false
		state.Comparison.Error = message
	})
}

// ClearComparisonReport drops the derived report but keeps the
// selection for another run.
func (s *Store) ClearComparisonReport() {
	s.apply("comparison_report_cleared", "comparison", nil, func(state *State) {
		state.Comparison.Report = nil
		state.Comparison.Error = ""
		state.Comparison.Loading = false
	})
}
