package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"log/slog"

	"github.com/garnizeh/jobboard/internal/chat"
	"github.com/garnizeh/jobboard/pkg/models"
	"github.com/garnizeh/jobboard/pkg/repository"
)

type ChatHandler struct {
	chatRepo repository.ChatRepo
	jobRepo  repository.JobRepo
	txRepo   repository.TransactionRepo
	engine   *chat.Engine
}

func NewChatHandler(cr repository.ChatRepo, jr repository.JobRepo, tr repository.TransactionRepo, engine *chat.Engine) *ChatHandler {
	return &ChatHandler{chatRepo: cr, jobRepo: jr, txRepo: tr, engine: engine}
}

type createChatRequest struct {
	TransactionID int64  `json:"transaction_id"`
	JobID         *int64 `json:"job_id,omitempty"`
}

// CreateChat is the completion step of the paid chat flow: the referenced
// transaction must belong to the caller, be of type CHAT, be COMPLETED, and
// not already pay for another chat.
func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req createChatRequest
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
	if tx.Type != models.TxTypeChat {
		http.Error(w, "transaction does not pay for a chat", http.StatusBadRequest)
		return
	}
	if tx.Status != models.TxCompleted {
		http.Error(w, "payment not completed", http.StatusPaymentRequired)
		return
	}
	if tx.ChatID != nil {
		http.Error(w, "transaction already used", http.StatusConflict)
		return
	}

	if req.JobID != nil {
		job, err := h.jobRepo.GetJobByID(ctx, *req.JobID)
		if err != nil {
			http.Error(w, "failed to load job", http.StatusInternalServerError)
			return
		}
		if job == nil {
			http.Error(w, "job not found", http.StatusNotFound)
			return
		}
	}

	c := &models.Chat{UserID: userID, JobID: req.JobID, TransactionID: tx.ID}
	id, err := h.chatRepo.CreateChat(ctx, c)
	if err != nil {
		http.Error(w, "failed to create chat", http.StatusInternalServerError)
		return
	}

	created, err := h.chatRepo.GetChatByID(ctx, id)
	if err != nil || created == nil {
		http.Error(w, "failed to load chat", http.StatusInternalServerError)
		return
	}

	writeJSON(w, created, http.StatusCreated)
}

// ListChats returns the caller's chats without messages.
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	chats, err := h.chatRepo.ListChatsByUser(r.Context(), userID)
	if err != nil {
		http.Error(w, "failed to list chats", http.StatusInternalServerError)
		return
	}
	if chats == nil {
		chats = []models.Chat{}
	}

	writeJSON(w, chats, http.StatusOK)
}

// GetChat returns one chat with its messages, owner-checked.
func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	chatID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	c, err := h.chatRepo.GetChatByID(r.Context(), chatID)
	if err != nil {
		http.Error(w, "failed to load chat", http.StatusInternalServerError)
		return
	}
	if c == nil || c.UserID != userID {
		http.Error(w, "chat not found", http.StatusNotFound)
		return
	}

	writeJSON(w, c, http.StatusOK)
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessage appends the user's message, asks the completion engine for the
// AI turn, and appends that too. A provider failure still produces an AI-role
// message with the fixed fallback text; the request does not fail.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	chatID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		http.Error(w, "content required", http.StatusBadRequest)
		return
	}
	if len(req.Content) > 4000 {
		http.Error(w, "content too long", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	c, err := h.chatRepo.GetChatByID(ctx, chatID)
	if err != nil {
		http.Error(w, "failed to load chat", http.StatusInternalServerError)
		return
	}
	if c == nil || c.UserID != userID {
		http.Error(w, "chat not found", http.StatusNotFound)
		return
	}

	userMsg := &models.ChatMessage{ChatID: c.ID, Role: models.RoleUser, Content: req.Content}
	if _, err := h.chatRepo.AppendMessage(ctx, userMsg); err != nil {
		http.Error(w, "failed to store message", http.StatusInternalServerError)
		return
	}
	c.Messages = append(c.Messages, *userMsg)

	var job *models.Job
	if c.JobID != nil {
		job, err = h.jobRepo.GetJobByID(ctx, *c.JobID)
		if err != nil {
			logger.Warn("load chat job failed", slog.Int64("chat_id", c.ID), slog.Any("err", err))
		}
	}

	reply, fallback := h.engine.Reply(ctx, c, job)

	aiMsg := &models.ChatMessage{ChatID: c.ID, Role: models.RoleAI, Content: reply}
	if _, err := h.chatRepo.AppendMessage(ctx, aiMsg); err != nil {
		http.Error(w, "failed to store reply", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"message":  aiMsg,
		"fallback": fallback,
	}, http.StatusOK)
}
