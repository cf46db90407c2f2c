package store

// InitiateSession sets the analysis context and marks it initiated.
func (s *Store) InitiateSession(niche, purpose, targetAudience, brandVoice string) {
	s.apply("session_initiated", "session", map[string]string{"niche": niche}, func(state *State) {
		state.Session = SessionState{
			Niche:          niche,
			Purpose:        purpose,
			TargetAudience: targetAudience,
			BrandVoice:     brandVoice,
			Initiated:      true,
		}
	})
}

// ClearSession resets the analysis context and every generated slice
// derived from it. This is the one transition allowed to write outside
// its own slice: a full reset invalidates all derived state at once.
// Availability and auth survive the reset.
func (s *Store) ClearSession() {
	s.apply("session_cleared", "session", nil, func(state *State) {
		availability := state.APIStatus
		auth := state.Auth
		*state = newState()
		state.APIStatus = availability
		state.Auth = auth
	})
}
