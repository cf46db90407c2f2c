package orchestrator

import (
	"encoding/json"

	"venturelens/internal/genai"
	"venturelens/internal/store"
)

const comparisonFallbackErr = "The comparative analysis could not be completed."

// GenerateComparison runs a cross-domain comparison over the currently
// selected cards. At least two selections are required; the check runs
// before any external call.
func (o *Orchestrators) GenerateComparison() error {
	if err := o.checkPreconditions(true); err != nil {
		return err
	}

	snapshot := o.store.Snapshot()
	if len(snapshot.Comparison.Selected) < 2 {
		return &ValidationError{Message: "Please select at least two cards to compare."}
	}

	cards := make([]comparisonCard, 0, len(snapshot.Comparison.Selected))
	for _, item := range snapshot.Comparison.Selected {
		cards = append(cards, comparisonCard{
			Title:       item.Title,
			Description: item.Description,
			Domain:      string(item.Domain),
			Payload:     item.Payload,
		})
	}
	cardsJSON, err := json.MarshalIndent(cards, "", "  ")
	if err != nil {
		return err
	}

	ctx, epoch := o.compareRunner.begin(o.base)
	o.compareRunner.deliver(epoch, func() { o.store.ComparisonStart() })

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		result, genErr := o.ai.Generate(ctx, genai.GenerateRequest{
			Prompt:            comparisonPrompt(string(cardsJSON)),
			SystemInstruction: systemInstruction(snapshot.Session),
			UseSearch:         true,
		})
		if genErr != nil {
			message := o.failureMessage(genErr, comparisonFallbackErr)
			o.compareRunner.deliver(epoch, func() { o.store.ComparisonFailure(message) })
			return
		}

		report, parseErr := parseComparison(result.Text)
		if parseErr != nil {
			message := o.failureMessage(parseErr, comparisonFallbackErr)
			o.compareRunner.deliver(epoch, func() { o.store.ComparisonFailure(message) })
			return
		}

		o.compareRunner.deliver(epoch, func() { o.store.ComparisonSuccess(report) })
	}()
	return nil
}

type comparisonCard struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Domain      string          `json:"domain"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

func parseComparison(text string) (store.ComparativeReport, error) {
	raw, err := genai.ExtractJSON(text)
	if err != nil {
		return store.ComparativeReport{}, err
	}
	var report store.ComparativeReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return store.ComparativeReport{}, &genai.MalformedError{Reason: "comparison response is not a JSON object"}
	}
	if report.Summary == "" {
		return store.ComparativeReport{}, &genai.MalformedError{Reason: "comparison response has no summary"}
	}
	return report, nil
}
