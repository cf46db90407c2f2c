package store

import "time"

// reduceMediaJobUpsert creates or advances a job. Terminal jobs are
// immutable and progress never decreases; a stale or out-of-order
// update degrades to a no-op rather than rewinding the job.
func reduceMediaJobUpsert(jobs map[string]MediaJob, update MediaJob) {
	existing, ok := jobs[update.ID]
	if !ok {
		if update.CreatedAt.IsZero() {
			update.CreatedAt = time.Now().UTC()
		}
		jobs[update.ID] = update
		return
	}
	if existing.Status.Terminal() {
		return
	}

	if update.Progress < existing.Progress && !update.Status.Terminal() {
		update.Progress = existing.Progress
	}
	update.CreatedAt = existing.CreatedAt
	if update.Prompt == "" {
		update.Prompt = existing.Prompt
	}
	if update.CardID == "" {
		update.CardID = existing.CardID
	}
	if update.Domain == "" {
		update.Domain = existing.Domain
	}
	jobs[update.ID] = update
}

// MediaJobProgress creates the job record on first call and advances
// status/progress on subsequent calls.
func (s *Store) MediaJobProgress(job MediaJob) {
	s.apply("media_job_progress", "media", map[string]string{"jobId": job.ID}, func(state *State) {
		reduceMediaJobUpsert(state.Media.Jobs, job)
	})
}

// MediaJobCompleted finalizes a job with its produced asset.
func (s *Store) MediaJobCompleted(jobID string, asset MediaAsset) {
	s.apply("media_job_completed", "media", map[string]string{"jobId": jobID}, func(state *State) {
		job, ok := state.Media.Jobs[jobID]
		if !ok || job.Status.Terminal() {
			return
		}
		job.Status = MediaCompleted
		job.Progress = 100
		job.Asset = &asset
		state.Media.Jobs[jobID] = job
	})
}

// MediaJobFailed finalizes a job with an error message.
func (s *Store) MediaJobFailed(jobID, message string) {
	s.apply("media_job_failed", "media", map[string]string{"jobId": jobID, "error": message}, func(state *State) {
		job, ok := state.Media.Jobs[jobID]
		if !ok || job.Status.Terminal() {
			return
		}
		job.Status = MediaFailed
		job.Progress = 100
		job.Error = message
		state.Media.Jobs[jobID] = job
	})
}
