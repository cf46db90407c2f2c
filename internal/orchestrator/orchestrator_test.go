package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"venturelens/internal/assets"
	"venturelens/internal/genai"
	"venturelens/internal/posts"
	"venturelens/internal/store"
)

type fakeAI struct {
	mu            sync.Mutex
	generateCalls int
	generateFn    func(call int, req genai.GenerateRequest) (genai.GenerateResult, error)
	imageCalls    int
	imageFn       func() ([]byte, error)
	startVideoFn  func() (genai.VideoOperation, error)
	pollCalls     int
	pollFn        func(call int) (genai.VideoOperation, error)
	healthy       atomic.Bool
}

func (f *fakeAI) Generate(ctx context.Context, req genai.GenerateRequest) (genai.GenerateResult, error) {
	f.mu.Lock()
	f.generateCalls++
	call := f.generateCalls
	fn := f.generateFn
	f.mu.Unlock()

	if fn == nil {
		return genai.GenerateResult{Text: `[{"id":"r1","title":"Result","description":"d"}]`}, nil
	}
	return fn(call, req)
}

func (f *fakeAI) GenerateImage(ctx context.Context, prompt, aspectRatio string) ([]byte, error) {
	f.mu.Lock()
	f.imageCalls++
	fn := f.imageFn
	f.mu.Unlock()

	if fn == nil {
		return []byte("png-bytes"), nil
	}
	return fn()
}

func (f *fakeAI) StartVideoGeneration(ctx context.Context, prompt string) (genai.VideoOperation, error) {
	if f.startVideoFn == nil {
		return genai.VideoOperation{Name: "operations/vid"}, nil
	}
	return f.startVideoFn()
}

func (f *fakeAI) PollVideoOperation(ctx context.Context, op genai.VideoOperation) (genai.VideoOperation, error) {
	f.mu.Lock()
	f.pollCalls++
	call := f.pollCalls
	fn := f.pollFn
	f.mu.Unlock()

	if fn == nil {
		return genai.VideoOperation{Name: op.Name, Done: true, VideoURI: "https://video.example/file?alt=media"}, nil
	}
	return fn(call)
}

func (f *fakeAI) HealthCheck(ctx context.Context) bool {
	return f.healthy.Load()
}

func (f *fakeAI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generateCalls
}

type testHarness struct {
	store   *store.Store
	ai      *fakeAI
	orch    *Orchestrators
	monitor *OutageMonitor
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	st := store.New(nil)
	ai := &fakeAI{}
	log := zap.NewNop().Sugar()
	monitor := NewOutageMonitor(st, ai, log, 5*time.Millisecond, NewOutageNotifier("", "", 0))

	orch := New(
		st,
		ai,
		monitor,
		assets.NewInlineStore(),
		assets.NewTokenSigner("test-secret", time.Minute),
		posts.NewMemoryRepository(),
		log,
		Config{
			StageDelay:        time.Millisecond,
			VideoPollInterval: 2 * time.Millisecond,
			VideoPollTimeout:  time.Second,
		},
	)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = orch.Shutdown(ctx)
	})

	return &testHarness{store: st, ai: ai, orch: orch, monitor: monitor}
}

func (h *testHarness) initiateSession() {
	h.store.InitiateSession("handmade ceramics", "sell online", "", "")
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestStartReportDeliversItems(t *testing.T) {
	h := newHarness(t)
	h.initiateSession()

	h.ai.generateFn = func(_ int, req genai.GenerateRequest) (genai.GenerateResult, error) {
		if !strings.Contains(req.Prompt, "handmade ceramics") {
			t.Errorf("prompt missing niche: %s", req.Prompt)
		}
		return genai.GenerateResult{
			Text:    "```json\n[{\"id\":\"t1\",\"title\":\"Trend\",\"description\":\"desc\"}]\n```",
			Sources: []genai.Source{{Title: "Src", URI: "https://example.com"}},
		}, nil
	}

	if err := h.orch.StartReport(store.DomainTrends, ""); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	waitFor(t, func() bool {
		report := h.store.Snapshot().Reports[store.DomainTrends]
		return !report.Loading && len(report.Items) == 1
	})

	item := h.store.Snapshot().Reports[store.DomainTrends].Items[0]
	if item.ID != "t1" || item.Domain != store.DomainTrends {
		t.Fatalf("unexpected item: %+v", item)
	}
	if len(item.Sources) != 1 || item.Sources[0].URI != "https://example.com" {
		t.Fatalf("sources not attached: %+v", item)
	}
}

func TestStartReportLatestWins(t *testing.T) {
	h := newHarness(t)
	h.initiateSession()

	release := make(chan struct{})
	h.ai.generateFn = func(call int, _ genai.GenerateRequest) (genai.GenerateResult, error) {
		if call == 1 {
			<-release
			return genai.GenerateResult{Text: `[{"id":"stale","title":"Stale"}]`}, nil
		}
		return genai.GenerateResult{Text: `[{"id":"fresh","title":"Fresh"}]`}, nil
	}

	if err := h.orch.StartReport(store.DomainTrends, ""); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	waitFor(t, func() bool { return h.ai.calls() == 1 })

	if err := h.orch.StartReport(store.DomainTrends, ""); err != nil {
		t.Fatalf("second start failed: %v", err)
	}
	waitFor(t, func() bool {
		report := h.store.Snapshot().Reports[store.DomainTrends]
		return len(report.Items) == 1 && report.Items[0].ID == "fresh"
	})

	// Let the superseded run finish; its result must be discarded.
	close(release)
	time.Sleep(20 * time.Millisecond)

	report := h.store.Snapshot().Reports[store.DomainTrends]
	if len(report.Items) != 1 || report.Items[0].ID != "fresh" {
		t.Fatalf("stale result overwrote fresh one: %+v", report.Items)
	}
}

func TestStartReportRequiresQueryForQueryDrivenDomains(t *testing.T) {
	h := newHarness(t)
	h.initiateSession()

	err := h.orch.StartReport(store.DomainContent, "   ")
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if h.ai.calls() != 0 {
		t.Fatal("rejected start must not reach the external service")
	}
}

func TestPreconditionGateMakesZeroCalls(t *testing.T) {
	h := newHarness(t)

	err := h.orch.StartReport(store.DomainTrends, "")
	var validation *ValidationError
	if !errors.As(err, &validation) || validation.Message != errSessionNotInitiated {
		t.Fatalf("expected session gate, got %v", err)
	}

	h.initiateSession()
	h.store.SetAPIOutage("quota exhausted")
	err = h.orch.StartReport(store.DomainTrends, "")
	if !IsUnavailable(err) {
		t.Fatalf("expected availability gate, got %v", err)
	}

	if h.ai.calls() != 0 {
		t.Fatal("gated starts must not reach the external service")
	}
	if h.store.Snapshot().Reports[store.DomainTrends].Loading {
		t.Fatal("gated starts must not emit transitions")
	}
}

func TestBlueprintLeadingWins(t *testing.T) {
	h := newHarness(t)
	h.initiateSession()
	h.store.VisionsFetchSuccess([]store.VentureVision{{ID: "v1", Title: "Vision One"}})

	release := make(chan struct{})
	h.ai.generateFn = func(_ int, _ genai.GenerateRequest) (genai.GenerateResult, error) {
		<-release
		return genai.GenerateResult{Text: `{"prophecyTitle":"Plan","summary":"s"}`}, nil
	}

	if err := h.orch.StartBlueprint("v1"); err != nil {
		t.Fatalf("first start failed: %v", err)
	}

	if err := h.orch.StartBlueprint("v1"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	close(release)
	waitFor(t, func() bool {
		ventures := h.store.Snapshot().Ventures
		return ventures.Blueprint != nil && !ventures.BlueprintLoading
	})

	if h.ai.calls() != 1 {
		t.Fatalf("dropped intent must not call the service, calls=%d", h.ai.calls())
	}
	if title := h.store.Snapshot().Ventures.Blueprint.Title; title != "Plan" {
		t.Fatalf("unexpected blueprint title %q", title)
	}

	// The flow frees up once the run finishes.
	waitFor(t, func() bool { return h.orch.StartBlueprint("v1") == nil })
}

func TestBlueprintUnknownVision(t *testing.T) {
	h := newHarness(t)
	h.initiateSession()

	err := h.orch.StartBlueprint("missing")
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if h.ai.calls() != 0 {
		t.Fatal("unknown vision must not reach the external service")
	}
}

func TestVisionsStagedProgress(t *testing.T) {
	h := newHarness(t)
	h.initiateSession()

	h.ai.generateFn = func(_ int, _ genai.GenerateRequest) (genai.GenerateResult, error) {
		return genai.GenerateResult{Text: `[{"id":"v1","title":"Vision","oneLinePitch":"p"}]`}, nil
	}

	if err := h.orch.StartVisions(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	waitFor(t, func() bool {
		ventures := h.store.Snapshot().Ventures
		return len(ventures.Visions) == 1 && !ventures.VisionsLoading
	})

	ventures := h.store.Snapshot().Ventures
	if ventures.Progress != nil {
		t.Fatalf("progress must clear on completion: %+v", ventures.Progress)
	}
	if ventures.Visions[0].ID != "v1" {
		t.Fatalf("unexpected visions: %+v", ventures.Visions)
	}
}

func TestImageJobLifecycle(t *testing.T) {
	h := newHarness(t)

	jobID, err := h.orch.StartImage("a vase on a shelf", "1:1", "card-1", store.DomainTrends)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	job := h.store.Snapshot().Media.Jobs[jobID]
	if job.Status != store.MediaProcessing || job.Progress != 50 {
		t.Fatalf("job must appear at processing/50, got %+v", job)
	}

	waitFor(t, func() bool {
		return h.store.Snapshot().Media.Jobs[jobID].Status == store.MediaCompleted
	})

	job = h.store.Snapshot().Media.Jobs[jobID]
	if job.Progress != 100 || job.Asset == nil {
		t.Fatalf("unexpected completed job: %+v", job)
	}
	if !strings.HasPrefix(job.Asset.URL, "data:image/png;base64,") {
		t.Fatalf("inline store must return a data URL, got %q", job.Asset.URL)
	}
}

func TestMediaJobIDsAreUnique(t *testing.T) {
	h := newHarness(t)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		jobID, err := h.orch.StartImage("a vase on a shelf", "1:1", "card-1", store.DomainTrends)
		if err != nil {
			t.Fatalf("start failed: %v", err)
		}
		if seen[jobID] {
			t.Fatalf("job id %q issued twice", jobID)
		}
		seen[jobID] = true
	}

	waitFor(t, func() bool {
		return len(h.store.Snapshot().Media.Jobs) == 20
	})
}

func TestVideoJobProgressMonotonicAndTokenized(t *testing.T) {
	h := newHarness(t)

	h.ai.pollFn = func(call int) (genai.VideoOperation, error) {
		if call < 3 {
			return genai.VideoOperation{Name: "operations/vid"}, nil
		}
		return genai.VideoOperation{Name: "operations/vid", Done: true, VideoURI: "https://video.example/file?alt=media"}, nil
	}

	var mu sync.Mutex
	var progressSeen []int

	jobID, err := h.orch.StartVideo("a rotating vase", "card-1", store.DomainTrends)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	waitFor(t, func() bool {
		job := h.store.Snapshot().Media.Jobs[jobID]
		mu.Lock()
		progressSeen = append(progressSeen, job.Progress)
		mu.Unlock()
		return job.Status == store.MediaCompleted
	})

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(progressSeen); i++ {
		if progressSeen[i] < progressSeen[i-1] {
			t.Fatalf("progress decreased: %v", progressSeen)
		}
	}

	job := h.store.Snapshot().Media.Jobs[jobID]
	if job.Progress != 100 {
		t.Fatalf("terminal job must be at 100, got %d", job.Progress)
	}
	if !strings.Contains(job.Asset.URL, "&token=") {
		t.Fatalf("video URL must carry a signed token, got %q", job.Asset.URL)
	}
	if strings.Contains(job.Asset.URL, "key=") {
		t.Fatalf("video URL must not leak an API key, got %q", job.Asset.URL)
	}
}

func TestVideoJobTimesOut(t *testing.T) {
	h := newHarness(t)
	h.orch.cfg.VideoPollTimeout = 20 * time.Millisecond

	h.ai.pollFn = func(_ int) (genai.VideoOperation, error) {
		return genai.VideoOperation{Name: "operations/vid"}, nil
	}

	jobID, err := h.orch.StartVideo("endless render", "", "")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	waitFor(t, func() bool {
		return h.store.Snapshot().Media.Jobs[jobID].Status == store.MediaFailed
	})

	job := h.store.Snapshot().Media.Jobs[jobID]
	if job.Error != "Video generation timed out." {
		t.Fatalf("unexpected failure message %q", job.Error)
	}
}

func TestVideoJobFailsWithoutURI(t *testing.T) {
	h := newHarness(t)

	h.ai.pollFn = func(_ int) (genai.VideoOperation, error) {
		return genai.VideoOperation{Name: "operations/vid", Done: true}, nil
	}

	jobID, err := h.orch.StartVideo("a vase", "", "")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	waitFor(t, func() bool {
		return h.store.Snapshot().Media.Jobs[jobID].Status == store.MediaFailed
	})
	if msg := h.store.Snapshot().Media.Jobs[jobID].Error; !strings.Contains(msg, "no video URI") {
		t.Fatalf("unexpected failure message %q", msg)
	}
}

func TestOutageRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.initiateSession()

	monitorCtx, cancelMonitor := context.WithCancel(context.Background())
	defer cancelMonitor()
	go h.monitor.Run(monitorCtx)

	h.ai.generateFn = func(_ int, _ genai.GenerateRequest) (genai.GenerateResult, error) {
		return genai.GenerateResult{}, &genai.QuotaError{Status: 429, Raw: "quota exceeded"}
	}

	if err := h.orch.StartReport(store.DomainTrends, ""); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	waitFor(t, func() bool { return !h.store.Available() })
	report := h.store.Snapshot().Reports[store.DomainTrends]
	if report.Error == "" {
		t.Fatal("quota failure must surface on the domain slice")
	}

	callsBefore := h.ai.calls()
	if err := h.orch.StartReport(store.DomainKeywords, ""); !IsUnavailable(err) {
		t.Fatalf("expected availability gate during outage, got %v", err)
	}
	if h.ai.calls() != callsBefore {
		t.Fatal("gated start during outage must not call the service")
	}

	h.ai.healthy.Store(true)
	waitFor(t, func() bool { return h.store.Available() })

	h.ai.generateFn = nil
	if err := h.orch.StartReport(store.DomainKeywords, ""); err != nil {
		t.Fatalf("start after recovery failed: %v", err)
	}
	waitFor(t, func() bool {
		return len(h.store.Snapshot().Reports[store.DomainKeywords].Items) == 1
	})
}

func TestOutageTripIsIdempotent(t *testing.T) {
	h := newHarness(t)

	h.monitor.Trip("first")
	h.monitor.Trip("second")
	if h.store.Available() {
		t.Fatal("trip must flip availability off")
	}
}

func TestComparisonRequiresTwoSelections(t *testing.T) {
	h := newHarness(t)
	h.initiateSession()
	h.store.ToggleCardSelection(store.ReportItem{ID: "only-one"})

	err := h.orch.GenerateComparison()
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if h.ai.calls() != 0 {
		t.Fatal("rejected comparison must not call the service")
	}
}

func TestComparisonDeliversReport(t *testing.T) {
	h := newHarness(t)
	h.initiateSession()
	h.store.ToggleCardSelection(store.ReportItem{ID: "a", Title: "A", Domain: store.DomainTrends})
	h.store.ToggleCardSelection(store.ReportItem{ID: "b", Title: "B", Domain: store.DomainCopy})

	h.ai.generateFn = func(_ int, req genai.GenerateRequest) (genai.GenerateResult, error) {
		if !strings.Contains(req.Prompt, `"A"`) || !strings.Contains(req.Prompt, `"B"`) {
			t.Errorf("comparison prompt missing selected cards")
		}
		return genai.GenerateResult{Text: `{"title":"Versus","summary":"s","similarities":["x"],"differences":["y"],"strategicImplications":["z"]}`}, nil
	}

	if err := h.orch.GenerateComparison(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	waitFor(t, func() bool {
		comparison := h.store.Snapshot().Comparison
		return comparison.Report != nil && !comparison.Loading
	})
	if title := h.store.Snapshot().Comparison.Report.Title; title != "Versus" {
		t.Fatalf("unexpected report title %q", title)
	}
}

func TestRegenerateSocialPostPatchesItem(t *testing.T) {
	h := newHarness(t)
	h.initiateSession()

	payload, _ := json.Marshal(map[string]any{
		"platformAnalysis": []map[string]any{
			{"id": "post-1", "platform": "Instagram", "postType": "Reel", "content": "old content", "hashtags": []string{"#a"}},
		},
	})
	h.store.ReportFetchSuccess(store.DomainSocials, []store.ReportItem{{
		ID:      "social-item",
		Title:   "Plan",
		Domain:  store.DomainSocials,
		Payload: payload,
	}})

	h.ai.generateFn = func(_ int, _ genai.GenerateRequest) (genai.GenerateResult, error) {
		return genai.GenerateResult{Text: `{"id":"wrong-id","platform":"Instagram","postType":"wrong","content":"new content","hashtags":["#b"],"rationale":"r"}`}, nil
	}

	if err := h.orch.RegenerateSocialPost("post-1", "Carousel"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	waitFor(t, func() bool {
		items := h.store.Snapshot().Reports[store.DomainSocials].Items
		return len(items) == 1 && strings.Contains(string(items[0].Payload), "new content")
	})

	raw := h.store.Snapshot().Reports[store.DomainSocials].Items[0].Payload
	var decoded struct {
		PlatformAnalysis []socialPost `json:"platformAnalysis"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("patched payload invalid: %v", err)
	}
	post := decoded.PlatformAnalysis[0]
	if post.ID != "post-1" || post.PostType != "Carousel" {
		t.Fatalf("identity and post type must be forced, got %+v", post)
	}
}

func TestAskQuestionAppendsConversation(t *testing.T) {
	h := newHarness(t)
	h.initiateSession()

	h.ai.generateFn = func(_ int, req genai.GenerateRequest) (genai.GenerateResult, error) {
		if req.UseSearch {
			t.Error("qna must not use web search")
		}
		return genai.GenerateResult{Text: "Focus on your strongest channel."}, nil
	}

	if err := h.orch.AskQuestion("Where should I start?"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	waitFor(t, func() bool {
		qna := h.store.Snapshot().Qna
		return len(qna.Messages) == 2 && !qna.Loading
	})

	messages := h.store.Snapshot().Qna.Messages
	if messages[0].Role != "user" || messages[1].Role != "assistant" {
		t.Fatalf("unexpected conversation: %+v", messages)
	}
}

func TestPublishPostPersistsContentCard(t *testing.T) {
	h := newHarness(t)
	h.initiateSession()

	h.store.ReportFetchSuccess(store.DomainContent, []store.ReportItem{{
		ID:          "idea-1",
		Title:       "Ten glazing tips",
		Description: "listicle",
		Domain:      store.DomainContent,
		Payload:     json.RawMessage(`{"format":"Blog Post"}`),
	}})

	published, err := h.orch.PublishPost(context.Background(), "idea-1")
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if published.Title != "Ten glazing tips" || published.Format != "Blog Post" {
		t.Fatalf("unexpected published post: %+v", published)
	}
	if got := len(h.store.Snapshot().Posts.Posts); got != 1 {
		t.Fatalf("expected 1 stored post, got %d", got)
	}

	if _, err := h.orch.PublishPost(context.Background(), "missing"); err == nil {
		t.Fatal("unknown card must fail")
	}
}

func TestFailureMessageFallbacks(t *testing.T) {
	h := newHarness(t)

	if got := h.orch.failureMessage(errors.New("dial tcp: timeout"), "fallback"); got != "fallback" {
		t.Fatalf("unknown errors must use the domain fallback, got %q", got)
	}

	malformed := &genai.MalformedError{Reason: "no json"}
	if got := h.orch.failureMessage(malformed, "fallback"); got == "fallback" {
		t.Fatal("malformed errors must surface their own message")
	}

	quota := &genai.QuotaError{Status: 429, Raw: "quota"}
	got := h.orch.failureMessage(quota, "fallback")
	if got == "fallback" {
		t.Fatal("quota errors must surface their own message")
	}
	if h.store.Available() {
		t.Fatal("quota failure must trip the outage monitor")
	}
}
