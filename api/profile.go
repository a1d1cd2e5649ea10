package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/garnizeh/jobboard/pkg/models"
	"github.com/garnizeh/jobboard/pkg/repository"
)

type ProfileHandler struct {
	userRepo    repository.UserRepo
	userJobRepo repository.UserJobRepo
	txRepo      repository.TransactionRepo
}

func NewProfileHandler(ur repository.UserRepo, ujr repository.UserJobRepo, tr repository.TransactionRepo) *ProfileHandler {
	return &ProfileHandler{userRepo: ur, userJobRepo: ujr, txRepo: tr}
}

// GetProfile returns the caller's profile. The verification hash never
// leaves the server; the model's JSON mapping excludes it.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	writeJSON(w, user, http.StatusOK)
}

type updateProfileRequest struct {
	Nickname         *string                  `json:"nickname,omitempty"`
	ContactInfo      *models.ContactInfo      `json:"contact_info,omitempty"`
	ProfessionalInfo *models.ProfessionalInfo `json:"professional_info,omitempty"`
	Preferences      *models.Preferences      `json:"preferences,omitempty"`
}

// UpdateProfile applies the client-settable fields only: nickname, contact
// info, professional info, and preferences. Everything else is ignored by
// construction of the request type.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if req.Nickname != nil {
		nick := strings.TrimSpace(*req.Nickname)
		if nick == "" || len(nick) > 64 {
			http.Error(w, "invalid nickname", http.StatusBadRequest)
			return
		}
		user.Nickname = nick
	}
	if req.ContactInfo != nil {
		user.ContactInfo = *req.ContactInfo
	}
	if req.ProfessionalInfo != nil {
		user.ProfessionalInfo = *req.ProfessionalInfo
	}
	if req.Preferences != nil {
		user.Preferences = *req.Preferences
	}

	if err := h.userRepo.UpdateUserProfile(r.Context(), user); err != nil {
		http.Error(w, "failed to update profile", http.StatusInternalServerError)
		return
	}

	updated, err := h.userRepo.GetUserByID(r.Context(), user.ID)
	if err != nil || updated == nil {
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}

	writeJSON(w, updated, http.StatusOK)
}

// GetStats combines the stored counters with live counts of interaction rows
// by status and completed payment totals.
func (h *ProfileHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	ctx := r.Context()

	counts, err := h.userJobRepo.CountByStatus(ctx, user.ID)
	if err != nil {
		http.Error(w, "failed to count interactions", http.StatusInternalServerError)
		return
	}

	totals, err := h.txRepo.CompletedTotals(ctx, user.ID)
	if err != nil {
		http.Error(w, "failed to aggregate payments", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"stats": user.Stats,
		"jobs": map[string]int64{
			"interested": counts[models.UserJobInterested],
			"discarded":  counts[models.UserJobDiscarded],
			"applied":    counts[models.UserJobApplied],
		},
		"payments": totals,
	}, http.StatusOK)
}

// GetTransactions lists the caller's payment history, newest first.
func (h *ProfileHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	txs, err := h.txRepo.ListByUser(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "failed to list transactions", http.StatusInternalServerError)
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}

	writeJSON(w, txs, http.StatusOK)
}

// GetLinks lists the caller's generated application links joined with job
// and transaction summaries.
func (h *ProfileHandler) GetLinks(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	links, err := h.userJobRepo.ListGeneratedLinks(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "failed to list links", http.StatusInternalServerError)
		return
	}
	if links == nil {
		links = []repository.GeneratedLink{}
	}

	writeJSON(w, links, http.StatusOK)
}

func (h *ProfileHandler) loadUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	user, err := h.userRepo.GetUserByID(r.Context(), userID)
	if err != nil {
		http.Error(w, "failed to load user", http.StatusInternalServerError)
		return nil, false
	}
	if user == nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return nil, false
	}

	return user, true
}
