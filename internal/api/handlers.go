package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"venturelens/internal/assets"
	"venturelens/internal/orchestrator"
	"venturelens/internal/posts"
	"venturelens/internal/store"
)

type Handler struct {
	store              *store.Store
	orch               *orchestrator.Orchestrators
	assetStore         assets.Store
	tokenSigner        *assets.TokenSigner
	postRepo           posts.Repository
	corsAllowedOrigins []string
	loginEmail         string
	loginPassword      string
	rateLimiter        *apiRateLimiter
	metrics            *apiMetrics
	log                *zap.SugaredLogger
}

func NewHandler(
	st *store.Store,
	orch *orchestrator.Orchestrators,
	assetStore assets.Store,
	tokenSigner *assets.TokenSigner,
	postRepo posts.Repository,
	metrics *apiMetrics,
	log *zap.SugaredLogger,
	corsAllowedOrigins []string,
	loginEmail string,
	loginPassword string,
	rateLimitRequestsPerSec float64,
	rateLimitBurst int,
) *Handler {
	h := &Handler{
		store:              st,
		orch:               orch,
		assetStore:         assetStore,
		tokenSigner:        tokenSigner,
		postRepo:           postRepo,
		corsAllowedOrigins: corsAllowedOrigins,
		loginEmail:         loginEmail,
		loginPassword:      loginPassword,
		metrics:            metrics,
		log:                log,
	}
	h.rateLimiter = newAPIRateLimiter(rateLimitRequestsPerSec, rateLimitBurst, func() {
		metrics.rateLimitedTotal.Add(1)
	})
	return h
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	if h.rateLimiter != nil {
		r.Use(h.rateLimiter.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.healthz)
	r.Get("/metrics", h.metrics.handleMetrics)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/session", h.initiateSession)
		r.Get("/session", h.getSession)
		r.Delete("/session", h.clearSession)

		r.Get("/state", h.getState)
		r.Get("/status", h.getStatus)

		r.Post("/reports/socials/regenerate", h.regenerateSocialPost)
		r.Post("/reports/{domain}", h.startReport)
		r.Get("/reports/{domain}", h.getReport)

		r.Post("/ventures/visions", h.startVisions)
		r.Post("/ventures/blueprint", h.startBlueprint)
		r.Get("/ventures", h.getVentures)

		r.Post("/media/images", h.startImage)
		r.Post("/media/videos", h.startVideo)
		r.Get("/media/jobs", h.listMediaJobs)
		r.Get("/media/jobs/{jobID}", h.getMediaJob)
		r.Get("/media/assets/{assetID}", h.getMediaAsset)

		r.Post("/comparison/selection", h.toggleSelection)
		r.Delete("/comparison/selection", h.clearSelection)
		r.Post("/comparison/generate", h.generateComparison)
		r.Get("/comparison", h.getComparison)
		r.Delete("/comparison", h.clearComparisonReport)

		r.Post("/qna", h.askQuestion)

		r.Post("/auth/login", h.login)
		r.Post("/auth/logout", h.logout)

		r.Post("/posts", h.publishPost)
		r.Get("/posts", h.listPosts)
	})

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if !h.store.Available() {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

type initiateSessionRequest struct {
	Niche          string `json:"niche"`
	Purpose        string `json:"purpose"`
	TargetAudience string `json:"targetAudience"`
	BrandVoice     string `json:"brandVoice"`
}

func (h *Handler) initiateSession(w http.ResponseWriter, r *http.Request) {
	payload := initiateSessionRequest{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if strings.TrimSpace(payload.Niche) == "" || strings.TrimSpace(payload.Purpose) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "niche and purpose are required"})
		return
	}

	h.store.InitiateSession(payload.Niche, payload.Purpose, payload.TargetAudience, payload.BrandVoice)
	writeJSON(w, http.StatusCreated, map[string]any{"session": h.store.Snapshot().Session})
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"session": h.store.Snapshot().Session})
}

func (h *Handler) clearSession(w http.ResponseWriter, r *http.Request) {
	h.store.ClearSession()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot().APIStatus)
}

type startReportRequest struct {
	Query string `json:"query"`
}

func (h *Handler) startReport(w http.ResponseWriter, r *http.Request) {
	domain, ok := store.ParseDomain(chi.URLParam(r, "domain"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown report domain"})
		return
	}

	payload := startReportRequest{}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	if err := h.orch.StartReport(domain, payload.Query); err != nil {
		writeStartError(w, err)
		return
	}
	h.metrics.reportsStartedTotal.Add(1)
	writeJSON(w, http.StatusAccepted, map[string]string{"domain": string(domain), "status": "started"})
}

func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	domain, ok := store.ParseDomain(chi.URLParam(r, "domain"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown report domain"})
		return
	}
	writeJSON(w, http.StatusOK, h.store.Snapshot().Reports[domain])
}

type regenerateSocialPostRequest struct {
	PostID      string `json:"postId"`
	NewPostType string `json:"newPostType"`
}

func (h *Handler) regenerateSocialPost(w http.ResponseWriter, r *http.Request) {
	payload := regenerateSocialPostRequest{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if strings.TrimSpace(payload.PostID) == "" || strings.TrimSpace(payload.NewPostType) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "postId and newPostType are required"})
		return
	}

	if err := h.orch.RegenerateSocialPost(payload.PostID, payload.NewPostType); err != nil {
		writeStartError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (h *Handler) startVisions(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.StartVisions(); err != nil {
		writeStartError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

type startBlueprintRequest struct {
	VisionID string `json:"visionId"`
}

func (h *Handler) startBlueprint(w http.ResponseWriter, r *http.Request) {
	payload := startBlueprintRequest{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	if err := h.orch.StartBlueprint(payload.VisionID); err != nil {
		writeStartError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (h *Handler) getVentures(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot().Ventures)
}

type startMediaRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspectRatio"`
	CardID      string `json:"cardId"`
	Domain      string `json:"domain"`
}

func (h *Handler) startImage(w http.ResponseWriter, r *http.Request) {
	payload := startMediaRequest{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if payload.AspectRatio == "" {
		payload.AspectRatio = "1:1"
	}

	jobID, err := h.orch.StartImage(payload.Prompt, payload.AspectRatio, payload.CardID, store.Domain(payload.Domain))
	if err != nil {
		writeStartError(w, err)
		return
	}
	h.metrics.mediaJobsStartedTotal.Add(1)
	writeJSON(w, http.StatusAccepted, map[string]string{"jobId": jobID})
}

func (h *Handler) startVideo(w http.ResponseWriter, r *http.Request) {
	payload := startMediaRequest{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	jobID, err := h.orch.StartVideo(payload.Prompt, payload.CardID, store.Domain(payload.Domain))
	if err != nil {
		writeStartError(w, err)
		return
	}
	h.metrics.mediaJobsStartedTotal.Add(1)
	writeJSON(w, http.StatusAccepted, map[string]string{"jobId": jobID})
}

func (h *Handler) listMediaJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot().Media)
}

func (h *Handler) getMediaJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, ok := h.store.Snapshot().Media.Jobs[jobID]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *Handler) getMediaAsset(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetID")

	grantedAssetID, err := h.tokenSigner.Verify(r.URL.Query().Get("token"))
	if err != nil || grantedAssetID != assetID {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
		return
	}

	data, contentType, err := h.assetStore.LoadImage(r.Context(), assetID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "asset not found"})
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type toggleSelectionRequest struct {
	Domain string `json:"domain"`
	ItemID string `json:"itemId"`
}

func (h *Handler) toggleSelection(w http.ResponseWriter, r *http.Request) {
	payload := toggleSelectionRequest{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	domain, ok := store.ParseDomain(payload.Domain)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown report domain"})
		return
	}

	snapshot := h.store.Snapshot()
	var item *store.ReportItem
	for i := range snapshot.Reports[domain].Items {
		if snapshot.Reports[domain].Items[i].ID == payload.ItemID {
			item = &snapshot.Reports[domain].Items[i]
			break
		}
	}
	if item == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "report item not found"})
		return
	}

	h.store.ToggleCardSelection(*item)
	writeJSON(w, http.StatusOK, h.store.Snapshot().Comparison)
}

func (h *Handler) clearSelection(w http.ResponseWriter, r *http.Request) {
	h.store.ClearSelection()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) generateComparison(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.GenerateComparison(); err != nil {
		writeStartError(w, err)
		return
	}
	h.metrics.comparisonsStartedTotal.Add(1)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (h *Handler) getComparison(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot().Comparison)
}

// clearComparisonReport closes the derived report while keeping the
// selection, so the same cards can be compared again.
func (h *Handler) clearComparisonReport(w http.ResponseWriter, r *http.Request) {
	h.store.ClearComparisonReport()
	w.WriteHeader(http.StatusNoContent)
}

type askQuestionRequest struct {
	Question string `json:"question"`
}

func (h *Handler) askQuestion(w http.ResponseWriter, r *http.Request) {
	payload := askQuestionRequest{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	if err := h.orch.AskQuestion(payload.Question); err != nil {
		writeStartError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	payload := loginRequest{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	h.store.LoginStart()
	if payload.Email != h.loginEmail || payload.Password != h.loginPassword {
		h.store.LoginFailure("Invalid email or password.")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid email or password."})
		return
	}

	h.store.LoginSuccess(payload.Email)
	writeJSON(w, http.StatusOK, map[string]any{"auth": h.store.Snapshot().Auth})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.store.Logout()
	w.WriteHeader(http.StatusNoContent)
}

type publishPostRequest struct {
	CardID string `json:"cardId"`
}

func (h *Handler) publishPost(w http.ResponseWriter, r *http.Request) {
	payload := publishPostRequest{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	published, err := h.orch.PublishPost(r.Context(), payload.CardID)
	if err != nil {
		var validation *orchestrator.ValidationError
		if errors.As(err, &validation) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": validation.Message})
			return
		}
		h.log.Errorw("publish post failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "publish failed"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"post": published})
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postRepo.List(r.Context(), 100)
	if err != nil {
		h.log.Errorw("posts lookup failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "posts lookup failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

// writeStartError maps workflow start rejections onto status codes:
// dropped leading-wins intents are 409, the availability gate is 503,
// and input validation is 400.
func writeStartError(w http.ResponseWriter, err error) {
	if errors.Is(err, orchestrator.ErrBusy) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	if orchestrator.IsUnavailable(err) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	var validation *orchestrator.ValidationError
	if errors.As(err, &validation) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": validation.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "request failed"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
