package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/garnizeh/jobboard/pkg/llm"
	"github.com/garnizeh/jobboard/pkg/models"
	"github.com/garnizeh/jobboard/pkg/repository"
)

// FallbackReply is appended as the AI turn whenever the completion provider
// fails. The conversation keeps going; the provider error is only logged.
const FallbackReply = "Sorry, I'm having trouble answering right now. Please try again in a moment."

const defaultPersona = "You are a helpful career assistant for a job board. " +
	"You help candidates understand job listings, prepare applications, and plan their search. " +
	"Keep answers short and practical."

// Completer is the slice of the llm client the engine needs.
type Completer interface {
	Chat(ctx context.Context, model string, messages []llm.Message) (llm.ChatResult, error)
}

// Config tunes the chat engine.
type Config struct {
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
	Persona string        `yaml:"persona"`
	// RecentJobs is how many listings to sample when the chat has no job.
	RecentJobs int `yaml:"recent_jobs"`
}

// Engine turns a stored conversation into a provider request and returns the
// assistant reply.
type Engine struct {
	client  Completer
	jobRepo repository.JobRepo
	cfg     Config
	logger  *slog.Logger
}

func NewEngine(client Completer, jobRepo repository.JobRepo, cfg Config, logger *slog.Logger) *Engine {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Persona == "" {
		cfg.Persona = defaultPersona
	}
	if cfg.RecentJobs <= 0 {
		cfg.RecentJobs = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{client: client, jobRepo: jobRepo, cfg: cfg, logger: logger}
}

// Reply produces the AI turn for a chat whose last message is the user's.
// On provider failure it returns the fixed fallback text and fallback=true;
// it never returns an error for provider problems (best-effort contract).
func (e *Engine) Reply(ctx context.Context, c *models.Chat, job *models.Job) (reply string, fallback bool) {
	system, err := e.systemPrompt(ctx, job)
	if err != nil {
		e.logger.Warn("chat context build failed, using bare persona", slog.Any("err", err))
		system = e.cfg.Persona
	}

	messages := make([]llm.Message, 0, len(c.Messages)+1)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: system})
	for _, m := range c.Messages {
		messages = append(messages, llm.Message{Role: mapRole(m.Role), Content: m.Content})
	}

	ctxReq, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	res, err := e.client.Chat(ctxReq, e.cfg.Model, messages)
	if err != nil {
		e.logger.Error("completion provider failed", slog.Int64("chat_id", c.ID), slog.Any("err", err))
		return FallbackReply, true
	}

	text := strings.TrimSpace(res.Text)
	if text == "" {
		e.logger.Warn("completion provider returned empty text", slog.Int64("chat_id", c.ID))
		return FallbackReply, true
	}

	return text, false
}

// systemPrompt combines the persona with contextual data: the associated
// job's fields when the chat is tied to one, otherwise a sample of recent
// listings.
func (e *Engine) systemPrompt(ctx context.Context, job *models.Job) (string, error) {
	var b strings.Builder
	b.WriteString(e.cfg.Persona)

	if job != nil {
		b.WriteString("\n\nThe candidate is asking about this job listing:\n")
		writeJobContext(&b, *job)
		return b.String(), nil
	}

	recent, err := e.jobRepo.RecentJobs(ctx, e.cfg.RecentJobs)
	if err != nil {
		return "", fmt.Errorf("load recent jobs: %w", err)
	}
	if len(recent) > 0 {
		b.WriteString("\n\nSome currently open listings on the board:\n")
		for _, j := range recent {
			fmt.Fprintf(&b, "- %s at %s (%s, %s)\n", j.Title, j.Company, j.Location, j.JobType)
		}
	}

	return b.String(), nil
}

func writeJobContext(b *strings.Builder, j models.Job) {
	fmt.Fprintf(b, "Title: %s\nCompany: %s\nLocation: %s (remote: %t)\nType: %s\nCategory: %s\n", j.Title, j.Company, j.Location, j.Remote, j.JobType, j.Category)
	if j.SalaryMin > 0 || j.SalaryMax > 0 {
		fmt.Fprintf(b, "Salary: %d-%d %s\n", j.SalaryMin, j.SalaryMax, j.SalaryCurrency)
	}
	if len(j.Requirements) > 0 {
		fmt.Fprintf(b, "Requirements: %s\n", strings.Join(j.Requirements, ", "))
	}
	if j.Description != "" {
		fmt.Fprintf(b, "Description: %s\n", j.Description)
	}
}

// mapRole translates stored roles to the provider's vocabulary.
func mapRole(stored string) string {
	switch stored {
	case models.RoleAI:
		return llm.RoleAssistant
	default:
		return llm.RoleUser
	}
}
