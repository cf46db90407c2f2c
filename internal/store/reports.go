package store

// reduceReportStart clears prior results and errors and marks the
// domain loading. A new fetch fully resets the slice.
func reduceReportStart(state ReportState, query string) ReportState {
	return ReportState{Loading: true, LastQuery: query}
}

func reduceReportSuccess(state ReportState, items []ReportItem) ReportState {
	state.Loading = false
	state.Error = ""
	state.Items = items
	return state
}

func reduceReportFailure(state ReportState, message string) ReportState {
	state.Loading = false
	state.Error = message
	return state
}

// reduceReportItemPatched replaces a single item by identity, leaving
// the rest of the list untouched. Unknown ids are a no-op.
func reduceReportItemPatched(state ReportState, item ReportItem) ReportState {
	for i := range state.Items {
		if state.Items[i].ID == item.ID {
			state.Items[i] = item
			break
		}
	}
	return state
}

// ReportFetchStart marks a domain as loading and clears prior
// results. Query is recorded for query-driven domains.
func (s *Store) ReportFetchStart(domain Domain, query string) {
	s.apply("report_fetch_start", string(domain), map[string]string{"query": query}, func(state *State) {
		state.Reports[domain] = reduceReportStart(state.Reports[domain], query)
	})
}

// ReportFetchSuccess replaces the domain's full result list.
func (s *Store) ReportFetchSuccess(domain Domain, items []ReportItem) {
	s.apply("report_fetch_success", string(domain), nil, func(state *State) {
		state.Reports[domain] = reduceReportSuccess(state.Reports[domain], items)
	})
}

// ReportFetchFailure records the failure message for a domain.
func (s *Store) ReportFetchFailure(domain Domain, message string) {
	s.apply("report_fetch_failure", string(domain), map[string]string{"error": message}, func(state *State) {
		state.Reports[domain] = reduceReportFailure(state.Reports[domain], message)
	})
}

// ReportItemPatched swaps one regenerated item into the domain's list.
func (s *Store) ReportItemPatched(domain Domain, item ReportItem) {
	s.apply("report_item_patched", string(domain), map[string]string{"itemId": item.ID}, func(state *State) {
		state.Reports[domain] = reduceReportItemPatched(state.Reports[domain], item)
	})
}
