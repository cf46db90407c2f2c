package store

import (
	"encoding/json"
	"time"
)

// Domain identifies one independent report category. Each domain owns
// its own result list, loading flag and error, and is only ever
// touched by its own transitions.
type Domain string

const (
	DomainTrends       Domain = "trends"
	DomainKeywords     Domain = "keywords"
	DomainMarketplaces Domain = "marketplaces"
	DomainContent      Domain = "content"
	DomainSocials      Domain = "socials"
	DomainCopy         Domain = "copy"
	DomainArbitrage    Domain = "arbitrage"
	DomainScenarios    Domain = "scenarios"
)

// ReportDomains lists every report domain in presentation order.
var ReportDomains = []Domain{
	DomainTrends,
	DomainKeywords,
	DomainMarketplaces,
	DomainContent,
	DomainSocials,
	DomainCopy,
	DomainArbitrage,
	DomainScenarios,
}

// ParseDomain maps a wire string onto a known report domain.
func ParseDomain(value string) (Domain, bool) {
	for _, domain := range ReportDomains {
		if string(domain) == value {
			return domain, true
		}
	}
	return "", false
}

// Source is one citation attached to a generated report item.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// ReportItem is one generated result card. Payload holds the
// domain-specific fields (metrics, action plans, pros/cons, ...)
// already validated at the orchestration boundary.
type ReportItem struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Domain      Domain          `json:"domain"`
	Sources     []Source        `json:"sources,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// ReportState is the slice shape shared by all report domains.
type ReportState struct {
	Items     []ReportItem `json:"items"`
	Loading   bool         `json:"loading"`
	Error     string       `json:"error,omitempty"`
	LastQuery string       `json:"lastQuery,omitempty"`
}

// SessionState is the user's declared analysis context. Immutable once
// initiated, except by explicit reset.
type SessionState struct {
	Niche          string `json:"niche"`
	Purpose        string `json:"purpose"`
	TargetAudience string `json:"targetAudience"`
	BrandVoice     string `json:"brandVoice"`
	Initiated      bool   `json:"initiated"`
}

type MediaJobStatus string

const (
	MediaQueued     MediaJobStatus = "queued"
	MediaProcessing MediaJobStatus = "processing"
	MediaCompleted  MediaJobStatus = "completed"
	MediaFailed     MediaJobStatus = "failed"
)

// Terminal reports whether no further mutation of the job is allowed.
func (s MediaJobStatus) Terminal() bool {
	return s == MediaCompleted || s == MediaFailed
}

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// MediaAsset is the produced artifact of a completed media job.
type MediaAsset struct {
	ID     string    `json:"id"`
	Kind   MediaKind `json:"kind"`
	URL    string    `json:"url"`
	Prompt string    `json:"prompt"`
}

// MediaJob tracks one asynchronous image or video generation request.
type MediaJob struct {
	ID        string         `json:"id"`
	Kind      MediaKind      `json:"kind"`
	Status    MediaJobStatus `json:"status"`
	Progress  int            `json:"progress"`
	Prompt    string         `json:"prompt"`
	CardID    string         `json:"cardId,omitempty"`
	Domain    Domain         `json:"domain,omitempty"`
	Asset     *MediaAsset    `json:"asset,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// MediaState keys every job by id; jobs are never removed automatically.
type MediaState struct {
	Jobs map[string]MediaJob `json:"jobs"`
}

// VentureVision is one generated business idea.
type VentureVision struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	OneLinePitch  string `json:"oneLinePitch"`
	BusinessModel string `json:"businessModel"`
	EvidenceTag   string `json:"evidenceTag"`
}

// VentureBlueprint is the detailed plan derived from one vision.
type VentureBlueprint struct {
	Title                    string   `json:"title"`
	Summary                  string   `json:"summary"`
	TargetAudience           string   `json:"targetAudience"`
	ContentPillars           []string `json:"contentPillars"`
	PromotionChannels        []string `json:"promotionChannels"`
	UniqueSellingProposition string   `json:"uniqueSellingProposition"`
	SourcingAndOperations    string   `json:"sourcingAndOperations"`
	FirstThreeSteps          []string `json:"firstThreeSteps"`
}

// StageProgress is an intermediate checkpoint of a multi-stage flow.
type StageProgress struct {
	Message    string `json:"message"`
	Percentage int    `json:"percentage"`
}

type VenturesState struct {
	Visions          []VentureVision   `json:"visions"`
	VisionsLoading   bool              `json:"visionsLoading"`
	VisionsError     string            `json:"visionsError,omitempty"`
	Blueprint        *VentureBlueprint `json:"blueprint,omitempty"`
	BlueprintLoading bool              `json:"blueprintLoading"`
	BlueprintError   string            `json:"blueprintError,omitempty"`
	Progress         *StageProgress    `json:"progress,omitempty"`
}

// ComparativeReport is the single derived cross-domain analysis.
type ComparativeReport struct {
	Title                 string   `json:"title"`
	Summary               string   `json:"summary"`
	Similarities          []string `json:"similarities"`
	Differences           []string `json:"differences"`
	StrategicImplications []string `json:"strategicImplications"`
}

type ComparisonState struct {
	Selected []ReportItem       `json:"selected"`
	Report   *ComparativeReport `json:"report,omitempty"`
	Loading  bool               `json:"loading"`
	Error    string             `json:"error,omitempty"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type QnaState struct {
	Messages []ChatMessage `json:"messages"`
	Loading  bool          `json:"loading"`
	Error    string        `json:"error,omitempty"`
}

type AuthState struct {
	Email    string `json:"email,omitempty"`
	LoggedIn bool   `json:"loggedIn"`
	Loading  bool   `json:"loading"`
	Error    string `json:"error,omitempty"`
}

// PublishedPost is a content card promoted to the publish list.
type PublishedPost struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Format      string    `json:"format"`
	PublishedAt time.Time `json:"publishedAt"`
}

type PostsState struct {
	Posts []PublishedPost `json:"posts"`
}

// APIStatusState is the process-wide availability flag. While
// Available is false, workflow entry points refuse new work.
type APIStatusState struct {
	Available     bool   `json:"available"`
	OutageMessage string `json:"outageMessage,omitempty"`
}

// State is the full normalized tree. Transitions touch exactly one
// domain slice each, except the session reset which rebuilds the tree;
// cross-domain reads happen only in orchestrators.
type State struct {
	Session    SessionState           `json:"session"`
	Reports    map[Domain]ReportState `json:"reports"`
	Ventures   VenturesState          `json:"ventures"`
	Media      MediaState             `json:"media"`
	Comparison ComparisonState        `json:"comparison"`
	Qna        QnaState               `json:"qna"`
	Auth       AuthState              `json:"auth"`
	Posts      PostsState             `json:"posts"`
	APIStatus  APIStatusState         `json:"apiStatus"`
}

func newState() State {
	reports := make(map[Domain]ReportState, len(ReportDomains))
	for _, domain := range ReportDomains {
		reports[domain] = ReportState{}
	}
	return State{
		Reports:   reports,
		Media:     MediaState{Jobs: make(map[string]MediaJob)},
		APIStatus: APIStatusState{Available: true},
	}
}

func (s State) clone() State {
	out := s

	out.Reports = make(map[Domain]ReportState, len(s.Reports))
	for domain, report := range s.Reports {
		report.Items = cloneItems(report.Items)
		out.Reports[domain] = report
	}

	out.Media.Jobs = make(map[string]MediaJob, len(s.Media.Jobs))
	for id, job := range s.Media.Jobs {
		if job.Asset != nil {
			asset := *job.Asset
			job.Asset = &asset
		}
		out.Media.Jobs[id] = job
	}

	out.Ventures.Visions = append([]VentureVision(nil), s.Ventures.Visions...)
	if s.Ventures.Blueprint != nil {
		blueprint := *s.Ventures.Blueprint
		blueprint.ContentPillars = append([]string(nil), s.Ventures.Blueprint.ContentPillars...)
		blueprint.PromotionChannels = append([]string(nil), s.Ventures.Blueprint.PromotionChannels...)
		blueprint.FirstThreeSteps = append([]string(nil), s.Ventures.Blueprint.FirstThreeSteps...)
		out.Ventures.Blueprint = &blueprint
	}
	if s.Ventures.Progress != nil {
		progress := *s.Ventures.Progress
		out.Ventures.Progress = &progress
	}

	out.Comparison.Selected = cloneItems(s.Comparison.Selected)
	if s.Comparison.Report != nil {
		report := *s.Comparison.Report
		report.Similarities = append([]string(nil), s.Comparison.Report.Similarities...)
		report.Differences = append([]string(nil), s.Comparison.Report.Differences...)
		report.StrategicImplications = append([]string(nil), s.Comparison.Report.StrategicImplications...)
		out.Comparison.Report = &report
	}

	out.Qna.Messages = append([]ChatMessage(nil), s.Qna.Messages...)
	out.Posts.Posts = append([]PublishedPost(nil), s.Posts.Posts...)
	return out
}

func cloneItems(items []ReportItem) []ReportItem {
	if items == nil {
		return nil
	}
	out := make([]ReportItem, len(items))
	for i, item := range items {
		item.Sources = append([]Source(nil), item.Sources...)
		item.Payload = append(json.RawMessage(nil), item.Payload...)
		out[i] = item
	}
	return out
}
