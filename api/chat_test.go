package api_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/garnizeh/jobboard/api"
	"github.com/garnizeh/jobboard/internal/chat"
	"github.com/garnizeh/jobboard/pkg/llm"
	"github.com/garnizeh/jobboard/pkg/models"
	"github.com/garnizeh/jobboard/pkg/repository/mock"
)

type stubCompleter struct {
	reply string
	err   error
	last  []llm.Message
}

func (s *stubCompleter) Chat(ctx context.Context, model string, messages []llm.Message) (llm.ChatResult, error) {
	s.last = messages
	if s.err != nil {
		return llm.ChatResult{}, s.err
	}
	return llm.ChatResult{Text: s.reply}, nil
}

func newChatHandler(m *mock.Mocks, completer chat.Completer) *api.ChatHandler {
	engine := chat.NewEngine(completer, m.Jobs, chat.Config{Model: "test-model"}, slog.Default())
	return api.NewChatHandler(m.Chats, m.Jobs, m.Txs, engine)
}

func TestCreateChat(t *testing.T) {
	usedChat := int64(5)

	tests := []struct {
		name       string
		body       any
		seedTx     *models.Transaction
		wantStatus int
	}{
		{
			name:       "InvalidRequest",
			body:       "not a json",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "MissingTransaction",
			body:       map[string]any{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "TransactionNotFound",
			body:       map[string]any{"transaction_id": 99},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "TransactionOwnedByOther",
			body:       map[string]any{"transaction_id": 1},
			seedTx:     &models.Transaction{ID: 1, UserID: 8, Type: models.TxTypeChat, Status: models.TxCompleted, Reference: "r"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "WrongType",
			body:       map[string]any{"transaction_id": 1},
			seedTx:     &models.Transaction{ID: 1, UserID: 7, Type: models.TxTypeJobLink, Status: models.TxCompleted, Reference: "r"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "PaymentNotCompleted",
			body:       map[string]any{"transaction_id": 1},
			seedTx:     &models.Transaction{ID: 1, UserID: 7, Type: models.TxTypeChat, Status: models.TxPending, Reference: "r"},
			wantStatus: http.StatusPaymentRequired,
		},
		{
			name:       "TransactionAlreadyUsed",
			body:       map[string]any{"transaction_id": 1},
			seedTx:     &models.Transaction{ID: 1, UserID: 7, Type: models.TxTypeChat, Status: models.TxCompleted, Reference: "r", ChatID: &usedChat},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "UnknownJob",
			body:       map[string]any{"transaction_id": 1, "job_id": 42},
			seedTx:     &models.Transaction{ID: 1, UserID: 7, Type: models.TxTypeChat, Status: models.TxCompleted, Reference: "r"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "Success",
			body:       map[string]any{"transaction_id": 1},
			seedTx:     &models.Transaction{ID: 1, UserID: 7, Type: models.TxTypeChat, Status: models.TxCompleted, Reference: "r"},
			wantStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := mock.NewMocks()
			if tt.seedTx != nil {
				mocks.Txs.Seed(*tt.seedTx)
			}
			handler := newChatHandler(mocks, &stubCompleter{reply: "hello"})

			req := newRequest(t, http.MethodPost, "/api/chat", tt.body, 7)
			w := httptest.NewRecorder()
			handler.CreateChat(w, req)

			res := w.Result()
			defer res.Body.Close()
			if res.StatusCode != tt.wantStatus {
				data, _ := io.ReadAll(res.Body)
				t.Fatalf("expected status %d got %d body=%s", tt.wantStatus, res.StatusCode, string(data))
			}
			if tt.wantStatus != http.StatusCreated {
				return
			}

			var c models.Chat
			decodeBody(t, res, &c)
			if c.ID == 0 || c.UserID != 7 || c.TransactionID != 1 {
				t.Fatalf("unexpected chat: %+v", c)
			}
			// the paying transaction is now bound to this chat
			tx, _ := mocks.Txs.GetTransactionByID(context.Background(), 1)
			if tx.ChatID == nil || *tx.ChatID != c.ID {
				t.Fatalf("expected transaction bound to chat %d, got %+v", c.ID, tx.ChatID)
			}
		})
	}
}

func TestGetChat(t *testing.T) {
	mocks := mock.NewMocks()
	mocks.Chats.Seed(models.Chat{ID: 3, UserID: 7, TransactionID: 1})
	handler := newChatHandler(mocks, &stubCompleter{reply: "hello"})

	w := httptest.NewRecorder()
	handler.GetChat(w, withVars(newRequest(t, http.MethodGet, "/api/chat/3", nil, 7), map[string]string{"id": "3"}))
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("owner: expected 200 got %d", w.Result().StatusCode)
	}

	// another user's chat is indistinguishable from a missing one
	w = httptest.NewRecorder()
	handler.GetChat(w, withVars(newRequest(t, http.MethodGet, "/api/chat/3", nil, 8), map[string]string{"id": "3"}))
	if w.Result().StatusCode != http.StatusNotFound {
		t.Fatalf("stranger: expected 404 got %d", w.Result().StatusCode)
	}
}

func TestListChats(t *testing.T) {
	mocks := mock.NewMocks()
	mocks.Chats.Seed(models.Chat{ID: 1, UserID: 7, TransactionID: 1})
	mocks.Chats.Seed(models.Chat{ID: 2, UserID: 8, TransactionID: 2})
	handler := newChatHandler(mocks, &stubCompleter{reply: "hello"})

	w := httptest.NewRecorder()
	handler.ListChats(w, newRequest(t, http.MethodGet, "/api/chat", nil, 7))
	res := w.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.StatusCode)
	}
	var chats []models.Chat
	decodeBody(t, res, &chats)
	if len(chats) != 1 || chats[0].UserID != 7 {
		t.Fatalf("expected only the caller's chats, got %+v", chats)
	}
}

func TestSendMessage(t *testing.T) {
	seedChat := func(m *mock.Mocks) {
		m.Chats.Seed(models.Chat{ID: 3, UserID: 7, TransactionID: 1})
	}

	t.Run("Validation", func(t *testing.T) {
		mocks := mock.NewMocks()
		seedChat(mocks)
		handler := newChatHandler(mocks, &stubCompleter{reply: "hello"})

		// empty content
		w := httptest.NewRecorder()
		handler.SendMessage(w, withVars(newRequest(t, http.MethodPost, "/api/chat/3/messages", map[string]string{"content": "   "}, 7), map[string]string{"id": "3"}))
		if w.Result().StatusCode != http.StatusBadRequest {
			t.Fatalf("blank content: expected 400 got %d", w.Result().StatusCode)
		}

		// oversized content
		w = httptest.NewRecorder()
		handler.SendMessage(w, withVars(newRequest(t, http.MethodPost, "/api/chat/3/messages", map[string]string{"content": strings.Repeat("x", 4001)}, 7), map[string]string{"id": "3"}))
		if w.Result().StatusCode != http.StatusBadRequest {
			t.Fatalf("oversized content: expected 400 got %d", w.Result().StatusCode)
		}

		// not the owner
		w = httptest.NewRecorder()
		handler.SendMessage(w, withVars(newRequest(t, http.MethodPost, "/api/chat/3/messages", map[string]string{"content": "hi"}, 8), map[string]string{"id": "3"}))
		if w.Result().StatusCode != http.StatusNotFound {
			t.Fatalf("stranger: expected 404 got %d", w.Result().StatusCode)
		}
	})

	t.Run("Success", func(t *testing.T) {
		mocks := mock.NewMocks()
		seedChat(mocks)
		completer := &stubCompleter{reply: "Tailor your resume to the listing."}
		handler := newChatHandler(mocks, completer)

		w := httptest.NewRecorder()
		handler.SendMessage(w, withVars(newRequest(t, http.MethodPost, "/api/chat/3/messages", map[string]string{"content": "How should I apply?"}, 7), map[string]string{"id": "3"}))
		res := w.Result()
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			data, _ := io.ReadAll(res.Body)
			t.Fatalf("expected 200 got %d body=%s", res.StatusCode, string(data))
		}

		var sr struct {
			Message  *models.ChatMessage `json:"message"`
			Fallback bool                `json:"fallback"`
		}
		decodeBody(t, res, &sr)
		if sr.Fallback {
			t.Fatalf("unexpected fallback")
		}
		if sr.Message == nil || sr.Message.Role != models.RoleAI || sr.Message.Content != completer.reply {
			t.Fatalf("unexpected AI message: %+v", sr.Message)
		}

		// both turns are persisted in order
		c, _ := mocks.Chats.GetChatByID(context.Background(), 3)
		if len(c.Messages) != 2 || c.Messages[0].Role != models.RoleUser || c.Messages[1].Role != models.RoleAI {
			t.Fatalf("unexpected stored messages: %+v", c.Messages)
		}

		// the provider saw the user's turn after the system prompt
		if len(completer.last) < 2 || completer.last[0].Role != llm.RoleSystem || completer.last[len(completer.last)-1].Content != "How should I apply?" {
			t.Fatalf("unexpected provider messages: %+v", completer.last)
		}
	})

	t.Run("ProviderFailureFallsBack", func(t *testing.T) {
		mocks := mock.NewMocks()
		seedChat(mocks)
		handler := newChatHandler(mocks, &stubCompleter{err: fmt.Errorf("provider down")})

		w := httptest.NewRecorder()
		handler.SendMessage(w, withVars(newRequest(t, http.MethodPost, "/api/chat/3/messages", map[string]string{"content": "hello?"}, 7), map[string]string{"id": "3"}))
		res := w.Result()
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("fallback path must not fail the request, got %d", res.StatusCode)
		}

		var sr struct {
			Message  *models.ChatMessage `json:"message"`
			Fallback bool                `json:"fallback"`
		}
		decodeBody(t, res, &sr)
		if !sr.Fallback || sr.Message == nil || sr.Message.Content != chat.FallbackReply {
			t.Fatalf("expected fallback reply, got %+v", sr)
		}

		// the fallback turn is stored like any other AI message
		c, _ := mocks.Chats.GetChatByID(context.Background(), 3)
		if len(c.Messages) != 2 || c.Messages[1].Content != chat.FallbackReply {
			t.Fatalf("expected stored fallback turn, got %+v", c.Messages)
		}
	})
}
