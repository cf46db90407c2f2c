package orchestrator

import (
	"encoding/json"
	"strings"

	"venturelens/internal/genai"
	"venturelens/internal/store"
)

const qnaFallbackErr = "The question could not be answered at this time."

// AskQuestion answers a free-form question grounded in everything
// generated so far. The context snapshot is assembled locally; no web
// search is used for this flow.
func (o *Orchestrators) AskQuestion(question string) error {
	if err := o.checkPreconditions(true); err != nil {
		return err
	}
	if strings.TrimSpace(question) == "" {
		return &ValidationError{Message: "A question is required."}
	}

	snapshot := o.store.Snapshot()
	contextJSON, err := buildQnaContext(snapshot)
	if err != nil {
		return err
	}

	ctx, epoch := o.qnaRunner.begin(o.base)
	o.qnaRunner.deliver(epoch, func() { o.store.QuestionStart(question) })

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		result, genErr := o.ai.Generate(ctx, genai.GenerateRequest{
			Prompt:            qnaPrompt(contextJSON, question),
			SystemInstruction: systemInstruction(snapshot.Session),
		})
		if genErr != nil {
			message := o.failureMessage(genErr, qnaFallbackErr)
			o.qnaRunner.deliver(epoch, func() { o.store.QuestionFailure(message) })
			return
		}

		answer := strings.TrimSpace(result.Text)
		if answer == "" {
			o.qnaRunner.deliver(epoch, func() { o.store.QuestionFailure(qnaFallbackErr) })
			return
		}
		o.qnaRunner.deliver(epoch, func() { o.store.QuestionSuccess(answer) })
	}()
	return nil
}

// buildQnaContext flattens the session plus every non-empty report
// slice into one compact JSON document for the model to reason over.
func buildQnaContext(snapshot store.State) (string, error) {
	type cardSummary struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}

	doc := struct {
		Session  store.SessionState       `json:"session"`
		Reports  map[string][]cardSummary `json:"reports"`
		Visions  []store.VentureVision    `json:"ventureVisions,omitempty"`
		Selected []cardSummary            `json:"comparisonSelection,omitempty"`
	}{
		Session: snapshot.Session,
		Reports: make(map[string][]cardSummary),
	}

	for domain, report := range snapshot.Reports {
		if len(report.Items) == 0 {
			continue
		}
		summaries := make([]cardSummary, 0, len(report.Items))
		for _, item := range report.Items {
			summaries = append(summaries, cardSummary{Title: item.Title, Description: item.Description})
		}
		doc.Reports[string(domain)] = summaries
	}
	doc.Visions = snapshot.Ventures.Visions
	for _, item := range snapshot.Comparison.Selected {
		doc.Selected = append(doc.Selected, cardSummary{Title: item.Title, Description: item.Description})
	}

	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
