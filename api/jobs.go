package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/gorilla/mux"
	"github.com/segmentio/ksuid"

	"github.com/garnizeh/jobboard/internal/payments"
	"github.com/garnizeh/jobboard/pkg/models"
	"github.com/garnizeh/jobboard/pkg/repository"
)

type JobsHandler struct {
	jobRepo      repository.JobRepo
	userJobRepo  repository.UserJobRepo
	txRepo       repository.TransactionRepo
	userRepo     repository.UserRepo
	frontendBase string
	linkPrice    float64
}

func NewJobsHandler(jr repository.JobRepo, ujr repository.UserJobRepo, tr repository.TransactionRepo, ur repository.UserRepo, frontendBase string, linkPrice float64) *JobsHandler {
	return &JobsHandler{
		jobRepo:      jr,
		userJobRepo:  ujr,
		txRepo:       tr,
		userRepo:     ur,
		frontendBase: frontendBase,
		linkPrice:    linkPrice,
	}
}

// ListJobs serves the catalog with free-text search, exact-match filters,
// location substring match, a minimum-salary floor, and 1-indexed page/limit
// pagination.
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := repository.JobFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Location: q.Get("location"),
		Page:     1,
		Limit:    10,
	}

	if jt := q.Get("type"); jt != "" {
		if !models.ValidJobType(jt) {
			http.Error(w, "invalid job type", http.StatusBadRequest)
			return
		}
		f.JobType = jt
	}
	if rem := q.Get("remote"); rem != "" {
		b, err := strconv.ParseBool(rem)
		if err != nil {
			http.Error(w, "invalid remote flag", http.StatusBadRequest)
			return
		}
		f.Remote = &b
	}
	if ms := q.Get("min_salary"); ms != "" {
		v, err := strconv.ParseInt(ms, 10, 64)
		if err != nil || v < 0 {
			http.Error(w, "invalid min_salary", http.StatusBadRequest)
			return
		}
		f.MinSalary = v
	}
	if p := q.Get("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			f.Page = v
		}
	}
	if l := q.Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			f.Limit = v
		}
	}

	jobs, total, err := h.jobRepo.ListJobs(r.Context(), f)
	if err != nil {
		http.Error(w, "failed to list jobs", http.StatusInternalServerError)
		return
	}
	if jobs == nil {
		jobs = []models.Job{}
	}

	pages := total / int64(f.Limit)
	if total%int64(f.Limit) != 0 {
		pages++
	}

	writeJSON(w, map[string]any{
		"jobs": jobs,
		"pagination": map[string]any{
			"page":  f.Page,
			"limit": f.Limit,
			"total": total,
			"pages": pages,
		},
	}, http.StatusOK)
}

func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	job, err := h.jobRepo.GetJobByID(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to load job", http.StatusInternalServerError)
		return
	}
	if job == nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	writeJSON(w, job, http.StatusOK)
}

type interestRequest struct {
	Status string `json:"status"`
}

// SetInterest upserts the caller's interaction status for a job. Only the
// unpaid statuses are accepted here; APPLIED is reserved for the paid link
// flow.
func (h *JobsHandler) SetInterest(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	jobID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req interestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Status != models.UserJobInterested && req.Status != models.UserJobDiscarded {
		http.Error(w, "status must be INTERESTED or DISCARDED", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	job, err := h.jobRepo.GetJobByID(ctx, jobID)
	if err != nil {
		http.Error(w, "failed to load job", http.StatusInternalServerError)
		return
	}
	if job == nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	uj, err := h.userJobRepo.UpsertStatus(ctx, userID, jobID, req.Status)
	if err != nil {
		http.Error(w, "failed to update status", http.StatusInternalServerError)
		return
	}

	writeJSON(w, uj, http.StatusOK)
}

// CreateLink is phase one of the paid application-link flow: it records a
// PENDING JOB_LINK transaction and hands the reference back to the caller for
// off-band payment execution.
func (h *JobsHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	jobID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	ctx := r.Context()

	job, err := h.jobRepo.GetJobByID(ctx, jobID)
	if err != nil {
		http.Error(w, "failed to load job", http.StatusInternalServerError)
		return
	}
	if job == nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	tx := &models.Transaction{
		UserID:    userID,
		Type:      models.TxTypeJobLink,
		Amount:    h.linkPrice,
		Status:    models.TxPending,
		Reference: payments.NewReference(),
		JobID:     &jobID,
	}
	id, err := h.txRepo.CreateTransaction(ctx, tx)
	if err != nil {
		http.Error(w, "failed to create transaction", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"transaction_id": id,
		"reference":      tx.Reference,
		"amount":         tx.Amount,
		"type":           tx.Type,
	}, http.StatusCreated)
}

type completeLinkRequest struct {
	TransactionID int64 `json:"transaction_id"`
}

// CompleteLink is phase two: it requires the referenced transaction to belong
// to the caller, target this job, and already be COMPLETED by payment
// verification, then stamps the UserJob APPLIED with a fresh link.
func (h *JobsHandler) CompleteLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	jobID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req completeLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.TransactionID <= 0 {
		http.Error(w, "transaction_id required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	tx, err := h.txRepo.GetTransactionByID(ctx, req.TransactionID)
	if err != nil {
		http.Error(w, "failed to load transaction", http.StatusInternalServerError)
		return
	}
	if tx == nil || tx.UserID != userID {
		http.Error(w, "transaction not found", http.StatusNotFound)
		return
	}
	if tx.Type != models.TxTypeJobLink || tx.JobID == nil || *tx.JobID != jobID {
		http.Error(w, "transaction does not pay for this job link", http.StatusBadRequest)
		return
	}
	if tx.Status != models.TxCompleted {
		http.Error(w, "payment not completed", http.StatusPaymentRequired)
		return
	}

	link := h.frontendBase + "/apply/" + ksuid.New().String()
	uj, err := h.userJobRepo.SetApplied(ctx, userID, jobID, link, tx.ID)
	if err != nil {
		http.Error(w, "failed to record application", http.StatusInternalServerError)
		return
	}

	// best-effort: a failed counter update never blocks the primary action
	if err := h.userRepo.IncrementLinksGenerated(ctx, userID); err != nil {
		logger.Error("increment links_generated failed", slog.Int64("user_id", userID), slog.Any("err", err))
	}

	writeJSON(w, uj, http.StatusOK)
}

// pathID parses the {name} path variable as a positive int64, writing the
// 400 response itself on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	idStr := mux.Vars(r)[name]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
