package orchestrator

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"venturelens/internal/store"
)

const (
	imageFallbackErr = "Image generation failed. Please try again."
	videoFallbackErr = "Video generation failed. Please try again."
)

// StartImage launches an image generation job. The job appears in the
// store immediately at processing/50 and resolves to a terminal status
// when the call returns.
func (o *Orchestrators) StartImage(prompt, aspectRatio, cardID string, domain store.Domain) (string, error) {
	if err := o.checkPreconditions(false); err != nil {
		return "", err
	}
	if strings.TrimSpace(prompt) == "" {
		return "", &ValidationError{Message: "An image prompt is required."}
	}

	jobID := "img-" + uuid.NewString()
	o.store.MediaJobProgress(store.MediaJob{
		ID:       jobID,
		Kind:     store.MediaImage,
		Status:   store.MediaProcessing,
		Progress: 50,
		Prompt:   prompt,
		CardID:   cardID,
		Domain:   domain,
	})

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		data, err := o.ai.GenerateImage(o.base, prompt, aspectRatio)
		if err != nil {
			o.store.MediaJobFailed(jobID, o.failureMessage(err, imageFallbackErr))
			return
		}

		assetID := uuid.NewString()
		url, err := o.assets.StoreImage(o.base, assetID, data)
		if err != nil {
			o.log.Errorw("image asset store failed", "job", jobID, "error", err)
			o.store.MediaJobFailed(jobID, imageFallbackErr)
			return
		}

		o.store.MediaJobCompleted(jobID, store.MediaAsset{
			ID:     assetID,
			Kind:   store.MediaImage,
			URL:    url,
			Prompt: prompt,
		})
		o.log.Infow("image generated", "job", jobID, "asset", assetID)
	}()
	return jobID, nil
}

// StartVideo launches a long-running video generation job and polls it
// to completion. Progress moves queued(5) -> processing(15) -> +10 per
// poll capped at 90 -> terminal 100; the poll loop is bounded by the
// configured timeout and by shutdown.
func (o *Orchestrators) StartVideo(prompt, cardID string, domain store.Domain) (string, error) {
	if err := o.checkPreconditions(false); err != nil {
		return "", err
	}
	if strings.TrimSpace(prompt) == "" {
		return "", &ValidationError{Message: "A video prompt is required."}
	}

	jobID := "vid-" + uuid.NewString()
	o.store.MediaJobProgress(store.MediaJob{
		ID:       jobID,
		Kind:     store.MediaVideo,
		Status:   store.MediaQueued,
		Progress: 5,
		Prompt:   prompt,
		CardID:   cardID,
		Domain:   domain,
	})

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.runVideoJob(jobID, prompt, cardID, domain)
	}()
	return jobID, nil
}

func (o *Orchestrators) runVideoJob(jobID, prompt, cardID string, domain store.Domain) {
	ctx, cancel := context.WithTimeout(o.base, o.cfg.VideoPollTimeout)
	defer cancel()

	operation, err := o.ai.StartVideoGeneration(ctx, prompt)
	if err != nil {
		o.store.MediaJobFailed(jobID, o.failureMessage(err, videoFallbackErr))
		return
	}

	progress := 15
	o.store.MediaJobProgress(store.MediaJob{
		ID:       jobID,
		Kind:     store.MediaVideo,
		Status:   store.MediaProcessing,
		Progress: progress,
		Prompt:   prompt,
		CardID:   cardID,
		Domain:   domain,
	})

	for {
		if err := sleep(ctx, o.cfg.VideoPollInterval); err != nil {
			o.store.MediaJobFailed(jobID, videoTimeoutMessage(ctx))
			return
		}

		operation, err = o.ai.PollVideoOperation(ctx, operation)
		if err != nil {
			if ctx.Err() != nil {
				o.store.MediaJobFailed(jobID, videoTimeoutMessage(ctx))
				return
			}
			o.store.MediaJobFailed(jobID, o.failureMessage(err, videoFallbackErr))
			return
		}

		if !operation.Done {
			if progress < 90 {
				progress += 10
				if progress > 90 {
					progress = 90
				}
			}
			o.store.MediaJobProgress(store.MediaJob{
				ID:       jobID,
				Kind:     store.MediaVideo,
				Status:   store.MediaProcessing,
				Progress: progress,
				Prompt:   prompt,
				CardID:   cardID,
				Domain:   domain,
			})
			continue
		}

		if operation.VideoURI == "" {
			o.store.MediaJobFailed(jobID, "Video generation completed but no video URI was found.")
			return
		}

		// The upstream download URI needs a caller credential; a signed
		// short-lived token is appended instead of the raw API key.
		assetID := uuid.NewString()
		finalURL := operation.VideoURI + "&token=" + o.signer.Sign(assetID)
		o.store.MediaJobCompleted(jobID, store.MediaAsset{
			ID:     assetID,
			Kind:   store.MediaVideo,
			URL:    finalURL,
			Prompt: prompt,
		})
		o.log.Infow("video generated", "job", jobID, "asset", assetID)
		return
	}
}

func videoTimeoutMessage(ctx context.Context) string {
	if ctx.Err() == context.DeadlineExceeded {
		return "Video generation timed out."
	}
	return "Video generation was cancelled."
}
