package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"venturelens/internal/genai"
	"venturelens/internal/store"
)

// StartReport begins a report generation run for one domain. A run
// already in flight for the same domain is superseded: its context is
// cancelled and any late result it produces is discarded.
func (o *Orchestrators) StartReport(domain store.Domain, query string) error {
	spec, ok := reportSpecs[domain]
	if !ok {
		return &ValidationError{Message: fmt.Sprintf("unknown report domain %q", domain)}
	}
	if err := o.checkPreconditions(true); err != nil {
		return err
	}
	if spec.needsQuery && strings.TrimSpace(query) == "" {
		return &ValidationError{Message: "A query is required for this analysis."}
	}

	ctx, epoch := o.reportRunners[domain].begin(o.base)
	run := o.reportRunners[domain]

	run.deliver(epoch, func() {
		o.store.ReportFetchStart(domain, query)
	})

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		session := o.store.Snapshot().Session
		result, err := o.ai.Generate(ctx, genai.GenerateRequest{
			Prompt:            spec.prompt(session, query),
			SystemInstruction: systemInstruction(session),
			UseSearch:         true,
		})
		if err != nil {
			message := o.failureMessage(err, spec.fallbackErr)
			if run.deliver(epoch, func() { o.store.ReportFetchFailure(domain, message) }) {
				o.log.Warnw("report generation failed", "domain", domain, "error", err)
			}
			return
		}

		items, err := parseReportItems(domain, spec.defaultTitle, result)
		if err != nil {
			message := o.failureMessage(err, spec.fallbackErr)
			run.deliver(epoch, func() { o.store.ReportFetchFailure(domain, message) })
			return
		}

		if run.deliver(epoch, func() { o.store.ReportFetchSuccess(domain, items) }) {
			o.log.Infow("report generated", "domain", domain, "items", len(items))
		}
	}()
	return nil
}

// parseReportItems normalizes a generation result into report items.
// The model is asked for an array, but a lone object is accepted and
// wrapped; anything else is a malformed result.
func parseReportItems(domain store.Domain, defaultTitle string, result genai.GenerateResult) ([]store.ReportItem, error) {
	raw, err := genai.ExtractJSON(result.Text)
	if err != nil {
		return nil, err
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		var single map[string]json.RawMessage
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, &genai.MalformedError{Reason: "response is neither a JSON array nor an object"}
		}
		elements = []json.RawMessage{raw}
	}
	if len(elements) == 0 {
		return nil, &genai.MalformedError{Reason: "response contained no report items"}
	}

	sources := make([]store.Source, 0, len(result.Sources))
	for _, s := range result.Sources {
		sources = append(sources, store.Source(s))
	}

	items := make([]store.ReportItem, 0, len(elements))
	for i, element := range elements {
		var envelope struct {
			ID          string `json:"id"`
			Title       string `json:"title"`
			Description string `json:"description"`
		}
		if err := json.Unmarshal(element, &envelope); err != nil {
			return nil, &genai.MalformedError{Reason: fmt.Sprintf("item %d is not a JSON object", i)}
		}
		if envelope.ID == "" {
			envelope.ID = uuid.NewString()
		}
		if envelope.Title == "" {
			envelope.Title = fmt.Sprintf("%s %d", defaultTitle, i+1)
		}
		items = append(items, store.ReportItem{
			ID:          envelope.ID,
			Title:       envelope.Title,
			Description: envelope.Description,
			Domain:      domain,
			Sources:     sources,
			Payload:     element,
		})
	}
	return items, nil
}

// socialPost mirrors one entry of a socials item's platformAnalysis.
type socialPost struct {
	ID        string   `json:"id"`
	Platform  string   `json:"platform"`
	PostType  string   `json:"postType"`
	Content   string   `json:"content"`
	Hashtags  []string `json:"hashtags"`
	Rationale string   `json:"rationale"`
}

var socialPostSchema = json.RawMessage(`{
  "type": "OBJECT",
  "properties": {
    "id": {"type": "STRING"},
    "platform": {"type": "STRING"},
    "postType": {"type": "STRING"},
    "content": {"type": "STRING"},
    "hashtags": {"type": "ARRAY", "items": {"type": "STRING"}},
    "rationale": {"type": "STRING"}
  },
  "required": ["id", "platform", "postType", "content", "hashtags", "rationale"]
}`)

// RegenerateSocialPost rewrites a single post inside the socials report
// as a different post type, patching the stored item in place.
func (o *Orchestrators) RegenerateSocialPost(postID, newPostType string) error {
	if err := o.checkPreconditions(true); err != nil {
		return err
	}

	snapshot := o.store.Snapshot()
	item, post, err := findSocialPost(snapshot, postID)
	if err != nil {
		return err
	}

	ctx, epoch := o.regenRunner.begin(o.base)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		result, genErr := o.ai.Generate(ctx, genai.GenerateRequest{
			Prompt:            regeneratePrompt(snapshot.Session.Niche, post, newPostType),
			SystemInstruction: systemInstruction(snapshot.Session),
			ResponseSchema:    socialPostSchema,
		})
		if genErr != nil {
			message := o.failureMessage(genErr, "Failed to regenerate the post.")
			o.regenRunner.deliver(epoch, func() { o.store.ReportFetchFailure(store.DomainSocials, message) })
			return
		}

		raw, parseErr := genai.ExtractJSON(result.Text)
		if parseErr != nil {
			message := o.failureMessage(parseErr, "Failed to regenerate the post.")
			o.regenRunner.deliver(epoch, func() { o.store.ReportFetchFailure(store.DomainSocials, message) })
			return
		}

		var regenerated socialPost
		if err := json.Unmarshal(raw, &regenerated); err != nil {
			o.regenRunner.deliver(epoch, func() {
				o.store.ReportFetchFailure(store.DomainSocials, genai.MalformedMessage)
			})
			return
		}
		// The model is told to echo these back but we never trust it to.
		regenerated.ID = postID
		regenerated.PostType = newPostType

		patched, patchErr := replaceSocialPost(item, regenerated)
		if patchErr != nil {
			o.regenRunner.deliver(epoch, func() {
				o.store.ReportFetchFailure(store.DomainSocials, genai.MalformedMessage)
			})
			return
		}
		o.regenRunner.deliver(epoch, func() { o.store.ReportItemPatched(store.DomainSocials, patched) })
	}()
	return nil
}

// findSocialPost locates the socials report item containing postID.
func findSocialPost(snapshot store.State, postID string) (store.ReportItem, socialPost, error) {
	report := snapshot.Reports[store.DomainSocials]
	for _, item := range report.Items {
		var payload struct {
			PlatformAnalysis []socialPost `json:"platformAnalysis"`
		}
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			continue
		}
		for _, post := range payload.PlatformAnalysis {
			if post.ID == postID {
				return item, post, nil
			}
		}
	}
	return store.ReportItem{}, socialPost{}, &ValidationError{Message: "The post to regenerate was not found."}
}

// replaceSocialPost rewrites one post inside the item payload and
// returns the item with the updated payload.
func replaceSocialPost(item store.ReportItem, regenerated socialPost) (store.ReportItem, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(item.Payload, &payload); err != nil {
		return store.ReportItem{}, err
	}
	var posts []socialPost
	if err := json.Unmarshal(payload["platformAnalysis"], &posts); err != nil {
		return store.ReportItem{}, err
	}
	for i := range posts {
		if posts[i].ID == regenerated.ID {
			posts[i] = regenerated
		}
	}
	encoded, err := json.Marshal(posts)
	if err != nil {
		return store.ReportItem{}, err
	}
	payload["platformAnalysis"] = encoded
	full, err := json.Marshal(payload)
	if err != nil {
		return store.ReportItem{}, err
	}
	item.Payload = full
	return item, nil
}

// PublishPost promotes a content-idea card to the persistent publish
// list and records it in the store.
func (o *Orchestrators) PublishPost(ctx context.Context, cardID string) (store.PublishedPost, error) {
	report := o.store.Snapshot().Reports[store.DomainContent]

	var card *store.ReportItem
	for i := range report.Items {
		if report.Items[i].ID == cardID {
			card = &report.Items[i]
			break
		}
	}
	if card == nil {
		return store.PublishedPost{}, &ValidationError{Message: "The content idea to publish was not found."}
	}

	var payload struct {
		Format string `json:"format"`
	}
	_ = json.Unmarshal(card.Payload, &payload)

	published := store.PublishedPost{
		ID:          uuid.NewString(),
		Title:       card.Title,
		Description: card.Description,
		Format:      payload.Format,
		PublishedAt: time.Now().UTC(),
	}
	if err := o.posts.Publish(ctx, published); err != nil {
		return store.PublishedPost{}, fmt.Errorf("publish post: %w", err)
	}
	o.store.PostPublished(published)
	return published, nil
}
