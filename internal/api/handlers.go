package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/opsshop/jiratrack/internal/apperr"
	"github.com/opsshop/jiratrack/internal/cache"
	"github.com/opsshop/jiratrack/internal/delivery"
	"github.com/opsshop/jiratrack/internal/jira"
	"github.com/opsshop/jiratrack/internal/ledger"
	"github.com/opsshop/jiratrack/internal/models"
	"github.com/opsshop/jiratrack/internal/search"
	"github.com/opsshop/jiratrack/internal/tracker"
	"github.com/opsshop/jiratrack/internal/worker"
)

// Handler implements the REST endpoints the UI consumes.
type Handler struct {
	tracker    jira.Tracker
	reconciler *tracker.Reconciler
	pipeline   *delivery.Pipeline
	ledger     ledger.Store // nil when the ledger failed to open
	cache      *cache.Store
	pool       *worker.Pool
	userID     string
}

// NewHandler wires the endpoint dependencies. userID identifies the
// operator in ledger and feedback rows.
func NewHandler(t jira.Tracker, rec *tracker.Reconciler, pipe *delivery.Pipeline, store ledger.Store, c *cache.Store, pool *worker.Pool, userID string) *Handler {
	return &Handler{
		tracker:    t,
		reconciler: rec,
		pipeline:   pipe,
		ledger:     store,
		cache:      c,
		pool:       pool,
		userID:     userID,
	}
}

// ListProjects handles GET /projects.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.tracker.Projects(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"projects": projects})
}

// ListStatuses handles GET /statuses.
func (h *Handler) ListStatuses(w http.ResponseWriter, _ *http.Request) {
	catalog := models.StatusCatalog()
	out := make([]statusResponse, 0, len(catalog))
	for _, s := range catalog {
		out = append(out, statusResponse{ID: s.ID, Name: s.Name})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"statuses": out})
}

// ListIssues handles GET /issues?project=&status=&refresh=.
func (h *Handler) ListIssues(w http.ResponseWriter, r *http.Request) {
	project := r.URL.Query().Get("project")
	status := r.URL.Query().Get("status")
	if project == "" || status == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("project and status are required"))
		return
	}
	refresh := r.URL.Query().Get("refresh") == "true"

	var result *tracker.LoadResult
	err := h.runOnPool(r.Context(), func(ctx context.Context) error {
		var loadErr error
		result, loadErr = h.reconciler.LoadIssues(ctx, project, status, refresh)
		return loadErr
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Search handles GET /search?project=&pattern=. Results come back in
// ascending key order.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	project := r.URL.Query().Get("project")
	pattern := r.URL.Query().Get("pattern")
	if project == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("project is required"))
		return
	}

	maxSuffix, err := h.tracker.HighestKey(r.Context(), project)
	if err != nil {
		writeError(w, err)
		return
	}
	keys, err := search.Resolve(pattern, project, maxSuffix)
	if err != nil {
		writeError(w, err)
		return
	}
	issues, err := h.reconciler.SearchByPattern(r.Context(), project, keys)
	if err != nil {
		writeError(w, err)
		return
	}
	sortByKeySuffix(issues)
	writeJSON(w, http.StatusOK, map[string]interface{}{"issues": issues})
}

// ListSent handles GET /sent?project=.
func (h *Handler) ListSent(w http.ResponseWriter, r *http.Request) {
	project := r.URL.Query().Get("project")
	if project == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("project is required"))
		return
	}
	issues, err := h.reconciler.LoadSentIssues(r.Context(), project)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"issues": issues})
}

// Deliver handles POST /deliver.
func (h *Handler) Deliver(w http.ResponseWriter, r *http.Request) {
	var req deliverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	if req.Project == "" || req.Status == "" || len(req.Keys) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("project, status and keys are required"))
		return
	}

	issues := make([]models.Issue, 0, len(req.Keys))
	for _, k := range req.Keys {
		issues = append(issues, models.Issue{Key: k})
	}
	batch := &models.DeliveryBatch{
		Issues:          issues,
		ProjectKey:      req.Project,
		StatusID:        req.Status,
		Note:            req.Note,
		ExtraRecipients: req.ExtraRecipients,
		Resend:          req.Resend,
	}

	err := h.runOnPool(r.Context(), func(ctx context.Context) error {
		return h.pipeline.Deliver(ctx, batch)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"delivered": req.Keys})
}

// Untrack handles DELETE /tracked.
func (h *Handler) Untrack(w http.ResponseWriter, r *http.Request) {
	if h.ledger == nil {
		writeError(w, apperr.ErrNoLedger)
		return
	}
	var req untrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	if len(req.Keys) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("keys are required"))
		return
	}
	if err := h.ledger.SoftDelete(req.Keys); err != nil {
		writeError(w, err)
		return
	}
	// Cached partitions may now be stale; drop them all.
	h.cache.Clear()
	writeJSON(w, http.StatusOK, map[string]interface{}{"removed": req.Keys})
}

// Feedback handles POST /feedback.
func (h *Handler) Feedback(w http.ResponseWriter, r *http.Request) {
	if h.ledger == nil {
		writeError(w, apperr.ErrNoLedger)
		return
	}
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("description is required"))
		return
	}
	err := h.ledger.InsertFeedback(models.Feedback{
		Type:        req.Type,
		Description: req.Description,
		CreatedBy:   h.userID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"status": "recorded"})
}

// runOnPool executes fn on the shared worker pool and waits for it.
func (h *Handler) runOnPool(ctx context.Context, fn func(context.Context) error) error {
	select {
	case err := <-h.pool.Submit(ctx, fn):
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sortByKeySuffix orders issues ascending by the numeric part of their key.
func sortByKeySuffix(issues []models.Issue) {
	sort.SliceStable(issues, func(a, b int) bool {
		return keySuffix(issues[a].Key) < keySuffix(issues[b].Key)
	})
}

func keySuffix(key string) int {
	idx := strings.LastIndex(key, "-")
	if idx < 0 {
		return 0
	}
	n, err := strconv.Atoi(key[idx+1:])
	if err != nil {
		return 0
	}
	return n
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrUnauthorized):
		writeJSON(w, http.StatusBadGateway, errorBody("tracker rejected the configured credentials"))
	case errors.Is(err, apperr.ErrEmptySearch):
		writeJSON(w, http.StatusBadRequest, errorBody(apperr.ErrEmptySearch.Error()))
	case errors.Is(err, apperr.ErrNoLedger):
		writeJSON(w, http.StatusServiceUnavailable, errorBody(apperr.ErrNoLedger.Error()))
	case errors.Is(err, apperr.ErrNothingToDeliver):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(apperr.ErrNothingToDeliver.Error()))
	case errors.Is(err, apperr.ErrDeliveryInProgress):
		writeJSON(w, http.StatusConflict, errorBody(apperr.ErrDeliveryInProgress.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(apperr.ErrNotFound.Error()))
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
	}
}
