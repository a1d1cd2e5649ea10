package repository

import (
	"context"

	"github.com/garnizeh/jobboard/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.

// JobFilter collects the supported listing filters. Zero values mean
// "not set"; Page/Limit are 1-indexed with defaults applied by callers.
type JobFilter struct {
	Search    string
	Category  string
	JobType   string
	Location  string
	Remote    *bool
	MinSalary int64
	Page      int
	Limit     int
}

// StatusCounts maps a UserJob status to the number of rows in it.
type StatusCounts map[string]int64

// CompletedTotals aggregates COMPLETED transactions for one user.
type CompletedTotals struct {
	Count int64   `json:"count"`
	Sum   float64 `json:"sum"`
}

// GeneratedLink is a UserJob row joined with its job and paying transaction.
type GeneratedLink struct {
	UserJob     models.UserJob      `json:"user_job"`
	Job         *models.Job         `json:"job,omitempty"`
	Transaction *models.Transaction `json:"transaction,omitempty"`
}

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByNullifier(ctx context.Context, hash string) (*models.User, error)
	GetUserByWallet(ctx context.Context, address string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, u *models.User) error
	IncrementLinksGenerated(ctx context.Context, userID int64) error
	IncrementPaymentsProcessed(ctx context.Context, userID int64) error
}

type JobRepo interface {
	ListJobs(ctx context.Context, f JobFilter) ([]models.Job, int64, error)
	GetJobByID(ctx context.Context, id int64) (*models.Job, error)
	CountJobs(ctx context.Context) (int64, error)
	CreateJob(ctx context.Context, j *models.Job) (int64, error)
	RecentJobs(ctx context.Context, limit int) ([]models.Job, error)
	DeactivateJob(ctx context.Context, id int64) error
}

type UserJobRepo interface {
	UpsertStatus(ctx context.Context, userID, jobID int64, status string) (*models.UserJob, error)
	SetApplied(ctx context.Context, userID, jobID int64, link string, transactionID int64) (*models.UserJob, error)
	GetUserJob(ctx context.Context, userID, jobID int64) (*models.UserJob, error)
	ListUserJobsByUser(ctx context.Context, userID int64, status string) ([]models.UserJob, error)
	CountByStatus(ctx context.Context, userID int64) (StatusCounts, error)
	ListGeneratedLinks(ctx context.Context, userID int64) ([]GeneratedLink, error)
}

type TransactionRepo interface {
	CreateTransaction(ctx context.Context, t *models.Transaction) (int64, error)
	GetTransactionByID(ctx context.Context, id int64) (*models.Transaction, error)
	GetTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error)
	SetStatusByReference(ctx context.Context, reference, status, providerTxID string) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Transaction, error)
	CompletedTotals(ctx context.Context, userID int64) (*CompletedTotals, error)
	FailStalePending(ctx context.Context, olderThan int64) (int64, error)
}

type ChatRepo interface {
	CreateChat(ctx context.Context, c *models.Chat) (int64, error)
	GetChatByID(ctx context.Context, id int64) (*models.Chat, error)
	ListChatsByUser(ctx context.Context, userID int64) ([]models.Chat, error)
	AppendMessage(ctx context.Context, m *models.ChatMessage) (int64, error)
}
