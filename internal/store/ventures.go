package store

// VisionsFetchStart clears prior visions and marks the flow loading.
func (s *Store) VisionsFetchStart() {
	s.apply("visions_fetch_start", "ventures", nil, func(state *State) {
		state.Ventures.Visions = nil
		state.Ventures.VisionsLoading = true
		state.Ventures.VisionsError = ""
		state.Ventures.Progress = nil
	})
}

// VisionsFetchProgress records a stage checkpoint for consumers.
func (s *Store) VisionsFetchProgress(message string, percentage int) {
	s.apply("visions_fetch_progress", "ventures", map[string]string{"message": message}, func(state *State) {
		state.Ventures.Progress = &StageProgress{Message: message, Percentage: percentage}
	})
}

func (s *Store) VisionsFetchSuccess(visions []VentureVision) {
	s.apply("visions_fetch_success", "ventures", nil, func(state *State) {
		state.Ventures.Visions = visions
		state.Ventures.VisionsLoading = false
		state.Ventures.Progress = nil
	})
}

func (s *Store) VisionsFetchFailure(message string) {
	s.apply("visions_fetch_failure", "ventures", map[string]string{"error": message}, func(state *State) {
		state.Ventures.VisionsLoading = false
		state.Ventures.VisionsError = message
		state.Ventures.Progress = nil
	})
}

// BlueprintFetchStart clears the prior blueprint and marks it loading.
func (s *Store) BlueprintFetchStart() {
	s.apply("blueprint_fetch_start", "ventures", nil, func(state *State) {
		state.Ventures.Blueprint = nil
		state.Ventures.BlueprintLoading = true
		state.Ventures.BlueprintError = ""
		state.Ventures.Progress = nil
	})
}

func (s *Store) BlueprintFetchProgress(message string, percentage int) {
	s.apply("blueprint_fetch_progress", "ventures", map[string]string{"message": message}, func(state *State) {
		state.Ventures.Progress = &StageProgress{Message: message, Percentage: percentage}
	})
}

func (s *Store) BlueprintFetchSuccess(blueprint VentureBlueprint) {
	s.apply("blueprint_fetch_success", "ventures", nil, func(state *State) {
		state.Ventures.Blueprint = &blueprint
		state.Ventures.BlueprintLoading = false
		state.Ventures.Progress = nil
	})
}

func (s *Store) BlueprintFetchFailure(message string) {
	s.apply("blueprint_fetch_failure", "ventures", map[string]string{"error": message}, func(state *State) {
		state.Ventures.BlueprintLoading = false
		state.Ventures.BlueprintError = message
		state.Ventures.Progress = nil
	})
}
