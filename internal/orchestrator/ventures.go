package orchestrator

import (
	"encoding/json"

	"venturelens/internal/genai"
	"venturelens/internal/store"
)

const (
	visionsFallbackErr   = "The venture ideation engine failed to produce visions."
	blueprintFallbackErr = "The blueprint could not be drafted at this time."
)

// StartVisions kicks off venture ideation. The flow reports staged
// progress checkpoints before the external call, and the latest intent
// always wins: a rerun cancels and supersedes the run in flight.
func (o *Orchestrators) StartVisions() error {
	if err := o.checkPreconditions(true); err != nil {
		return err
	}

	ctx, epoch := o.visionsRunner.begin(o.base)
	o.visionsRunner.deliver(epoch, func() { o.store.VisionsFetchStart() })

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		session := o.store.Snapshot().Session

		o.visionsRunner.deliver(epoch, func() {
			o.store.VisionsFetchProgress("Generating initial concepts...", 25)
		})
		if sleep(ctx, o.cfg.StageDelay) != nil {
			return
		}
		o.visionsRunner.deliver(epoch, func() {
			o.store.VisionsFetchProgress("Analyzing market data...", 60)
		})
		if sleep(ctx, o.cfg.StageDelay) != nil {
			return
		}

		result, err := o.ai.Generate(ctx, genai.GenerateRequest{
			Prompt:            visionsPrompt(session),
			SystemInstruction: systemInstruction(session),
			UseSearch:         true,
		})
		if err != nil {
			message := o.failureMessage(err, visionsFallbackErr)
			o.visionsRunner.deliver(epoch, func() { o.store.VisionsFetchFailure(message) })
			return
		}

		visions, err := parseVisions(result.Text)
		if err != nil {
			message := o.failureMessage(err, visionsFallbackErr)
			o.visionsRunner.deliver(epoch, func() { o.store.VisionsFetchFailure(message) })
			return
		}

		if o.visionsRunner.deliver(epoch, func() { o.store.VisionsFetchSuccess(visions) }) {
			o.log.Infow("venture visions generated", "count", len(visions))
		}
	}()
	return nil
}

func parseVisions(text string) ([]store.VentureVision, error) {
	raw, err := genai.ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	var visions []store.VentureVision
	if err := json.Unmarshal(raw, &visions); err != nil {
		return nil, &genai.MalformedError{Reason: "visions response is not a JSON array"}
	}
	if len(visions) == 0 {
		return nil, &genai.MalformedError{Reason: "visions response is empty"}
	}
	return visions, nil
}

// StartBlueprint drafts the detailed plan for one vision. Unlike the
// other flows this one is leading-wins: while a draft is in flight any
// further intent is dropped with ErrBusy and causes no external call.
func (o *Orchestrators) StartBlueprint(visionID string) error {
	if err := o.checkPreconditions(true); err != nil {
		return err
	}

	snapshot := o.store.Snapshot()
	var vision *store.VentureVision
	for i := range snapshot.Ventures.Visions {
		if snapshot.Ventures.Visions[i].ID == visionID {
			vision = &snapshot.Ventures.Visions[i]
			break
		}
	}
	if vision == nil {
		return &ValidationError{Message: "The selected venture vision was not found."}
	}

	o.blueprintMu.Lock()
	if o.blueprintBusy {
		o.blueprintMu.Unlock()
		return ErrBusy
	}
	o.blueprintBusy = true
	o.blueprintMu.Unlock()

	o.store.BlueprintFetchStart()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer func() {
			o.blueprintMu.Lock()
			o.blueprintBusy = false
			o.blueprintMu.Unlock()
		}()

		o.store.BlueprintFetchProgress("Drafting blueprint...", 30)
		if sleep(o.base, o.cfg.StageDelay) != nil {
			return
		}
		o.store.BlueprintFetchProgress("Finalizing strategic plan...", 70)
		if sleep(o.base, o.cfg.StageDelay) != nil {
			return
		}

		result, err := o.ai.Generate(o.base, genai.GenerateRequest{
			Prompt:            blueprintPrompt(*vision),
			SystemInstruction: systemInstruction(snapshot.Session),
			UseSearch:         true,
		})
		if err != nil {
			o.store.BlueprintFetchFailure(o.failureMessage(err, blueprintFallbackErr))
			return
		}

		blueprint, err := parseBlueprint(result.Text, vision.Title)
		if err != nil {
			o.store.BlueprintFetchFailure(o.failureMessage(err, blueprintFallbackErr))
			return
		}

		o.store.BlueprintFetchSuccess(blueprint)
		o.log.Infow("venture blueprint drafted", "vision", visionID)
	}()
	return nil
}

// parseBlueprint flattens the nested marketing plan into the stored
// shape, falling back to the source vision's title when the model
// omits one.
func parseBlueprint(text, fallbackTitle string) (store.VentureBlueprint, error) {
	raw, err := genai.ExtractJSON(text)
	if err != nil {
		return store.VentureBlueprint{}, err
	}

	var decoded struct {
		ProphecyTitle  string `json:"prophecyTitle"`
		Summary        string `json:"summary"`
		TargetAudience string `json:"targetAudience"`
		MarketingPlan  struct {
			ContentPillars           []string `json:"contentPillars"`
			PromotionChannels        []string `json:"promotionChannels"`
			UniqueSellingProposition string   `json:"uniqueSellingProposition"`
		} `json:"marketingPlan"`
		SourcingAndOperations string   `json:"sourcingAndOperations"`
		FirstThreeSteps       []string `json:"firstThreeSteps"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return store.VentureBlueprint{}, &genai.MalformedError{Reason: "blueprint response is not a JSON object"}
	}

	title := decoded.ProphecyTitle
	if title == "" {
		title = fallbackTitle
	}
	return store.VentureBlueprint{
		Title:                    title,
		Summary:                  decoded.Summary,
		TargetAudience:           decoded.TargetAudience,
		ContentPillars:           decoded.MarketingPlan.ContentPillars,
		PromotionChannels:        decoded.MarketingPlan.PromotionChannels,
		UniqueSellingProposition: decoded.MarketingPlan.UniqueSellingProposition,
		SourcingAndOperations:    decoded.SourcingAndOperations,
		FirstThreeSteps:          decoded.FirstThreeSteps,
	}, nil
}
