package store

// SetAPIOutage flips the process-wide availability flag off. Workflow
// entry points refuse new work until ResetAPIStatus.
func (s *Store) SetAPIOutage(message string) {
	s.apply("api_outage_set", "apiStatus", map[string]string{"message": message}, func(state *State) {
		state.APIStatus.Available = false
		state.APIStatus.OutageMessage = message
	})
}

// ResetAPIStatus restores availability after a successful health probe.
func (s *Store) ResetAPIStatus() {
	s.apply("api_status_reset", "apiStatus", nil, func(state *State) {
		state.APIStatus.Available = true
		state.APIStatus.OutageMessage = ""
	})
}

// Available reports the current availability flag.
func (s *Store) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.APIStatus.Available
}
