package api

import (
	"context"
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/gorilla/mux"

	"github.com/garnizeh/jobboard/internal/payments"
	"github.com/garnizeh/jobboard/pkg/models"
	"github.com/garnizeh/jobboard/pkg/repository"
)

// PaymentVerifier is the slice of the payment provider client the handler
// needs.
type PaymentVerifier interface {
	VerifyTransaction(ctx context.Context, providerTxID string) (*payments.ProviderStatus, error)
}

type PaymentsHandler struct {
	txRepo       repository.TransactionRepo
	userRepo     repository.UserRepo
	provider     PaymentVerifier
	chatPrice    float64
	jobLinkPrice float64
}

func NewPaymentsHandler(tr repository.TransactionRepo, ur repository.UserRepo, pv PaymentVerifier, chatPrice, jobLinkPrice float64) *PaymentsHandler {
	return &PaymentsHandler{
		txRepo:       tr,
		userRepo:     ur,
		provider:     pv,
		chatPrice:    chatPrice,
		jobLinkPrice: jobLinkPrice,
	}
}

type initiateRequest struct {
	Type   string  `json:"type"`
	Amount float64 `json:"amount,omitempty"`
	JobID  *int64  `json:"job_id,omitempty"`
}

// Initiate mints a reference and records a PENDING transaction for a paid
// action. The amount is fixed by type except for deposits, which carry the
// client amount.
func (h *PaymentsHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req initiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if !models.ValidTxType(req.Type) {
		http.Error(w, "invalid transaction type", http.StatusBadRequest)
		return
	}

	amount := req.Amount
	switch req.Type {
	case models.TxTypeChat:
		amount = h.chatPrice
	case models.TxTypeJobLink:
		amount = h.jobLinkPrice
	default:
		if amount <= 0 {
			http.Error(w, "amount must be positive", http.StatusBadRequest)
			return
		}
	}

	tx := &models.Transaction{
		UserID:    userID,
		Type:      req.Type,
		Amount:    amount,
		Status:    models.TxPending,
		Reference: payments.NewReference(),
		JobID:     req.JobID,
	}
	id, err := h.txRepo.CreateTransaction(r.Context(), tx)
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

type confirmRequest struct {
	Reference    string `json:"reference"`
	ProviderTxID string `json:"provider_tx_id"`
}

// Confirm re-checks a client-reported payment against the provider and flips
// the referenced transaction to COMPLETED or FAILED accordingly.
func (h *PaymentsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Reference == "" || req.ProviderTxID == "" {
		http.Error(w, "reference and provider_tx_id required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	tx, err := h.txRepo.GetTransactionByReference(ctx, req.Reference)
	if err != nil {
		http.Error(w, "failed to load transaction", http.StatusInternalServerError)
		return
	}
	if tx == nil || tx.UserID != userID {
		http.Error(w, "transaction not found", http.StatusNotFound)
		return
	}

	st, err := h.provider.VerifyTransaction(ctx, req.ProviderTxID)
	if err != nil {
		logger.Error("payment verification failed", slog.String("reference", req.Reference), slog.Any("err", err))
		http.Error(w, "payment verification failed", http.StatusInternalServerError)
		return
	}

	// the provider reports which reference the payment was made for; a
	// mined transaction must not complete a different pending row
	if st.Reference != "" && st.Reference != req.Reference {
		http.Error(w, "payment reference mismatch", http.StatusBadRequest)
		return
	}

	updated, err := h.applyProviderStatus(ctx, tx, st)
	if err != nil {
		http.Error(w, "failed to update transaction", http.StatusInternalServerError)
		return
	}

	writeJSON(w, updated, http.StatusOK)
}

type callbackRequest struct {
	Reference         string `json:"reference"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
}

// Callback handles a provider-pushed payment notification and performs the
// same status mutation as Confirm.
func (h *PaymentsHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req callbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Reference == "" {
		http.Error(w, "reference required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	tx, err := h.txRepo.GetTransactionByReference(ctx, req.Reference)
	if err != nil {
		http.Error(w, "failed to load transaction", http.StatusInternalServerError)
		return
	}
	if tx == nil {
		http.Error(w, "transaction not found", http.StatusNotFound)
		return
	}

	st := &payments.ProviderStatus{
		Reference:         req.Reference,
		TransactionID:     req.TransactionID,
		TransactionStatus: req.TransactionStatus,
	}

	updated, err := h.applyProviderStatus(ctx, tx, st)
	if err != nil || updated == nil {
		http.Error(w, "failed to update transaction", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"status": updated.Status}, http.StatusOK)
}

// GetByReference returns the caller's transaction for a reference.
func (h *PaymentsHandler) GetByReference(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	reference := mux.Vars(r)["reference"]
	if reference == "" {
		http.Error(w, "reference required", http.StatusBadRequest)
		return
	}

	tx, err := h.txRepo.GetTransactionByReference(r.Context(), reference)
	if err != nil {
		http.Error(w, "failed to load transaction", http.StatusInternalServerError)
		return
	}
	if tx == nil || tx.UserID != userID {
		http.Error(w, "transaction not found", http.StatusNotFound)
		return
	}

	writeJSON(w, tx, http.StatusOK)
}

// applyProviderStatus maps the provider's view onto the transaction row and
// bumps the owner's payments_processed counter on completion (best-effort).
// Only PENDING rows move; notifications for settled rows are a no-op.
func (h *PaymentsHandler) applyProviderStatus(ctx context.Context, tx *models.Transaction, st *payments.ProviderStatus) (*models.Transaction, error) {
	if tx.Status != models.TxPending {
		return tx, nil
	}

	status := models.TxFailed
	if st.Succeeded() {
		status = models.TxCompleted
	}

	updated, err := h.txRepo.SetStatusByReference(ctx, tx.Reference, status, st.TransactionID)
	if err != nil || updated == nil {
		return updated, err
	}

	if status == models.TxCompleted {
		if err := h.userRepo.IncrementPaymentsProcessed(ctx, updated.UserID); err != nil {
			logger.Error("increment payments_processed failed", slog.Int64("user_id", updated.UserID), slog.Any("err", err))
		}
	}

	return updated, nil
}
