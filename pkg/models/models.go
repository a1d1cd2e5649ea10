package models

// Domain models matching the database schema in db/migrations/0001_init.sql

// UserJob statuses. Any status may overwrite any other; the progression is
// driven by explicit user action, not a validated state machine.
const (
	UserJobInterested = "INTERESTED"
	UserJobDiscarded  = "DISCARDED"
	UserJobApplied    = "APPLIED"
)

// Transaction types.
const (
	TxTypeChat    = "CHAT"
	TxTypeJobLink = "JOB_LINK"
	TxTypeDeposit = "DEPOSIT"
)

// Transaction statuses.
const (
	TxPending   = "PENDING"
	TxCompleted = "COMPLETED"
	TxFailed    = "FAILED"
)

// Chat message roles as stored.
const (
	RoleUser = "USER"
	RoleAI   = "AI"
)

// Job employment types.
const (
	JobTypeFullTime   = "full-time"
	JobTypePartTime   = "part-time"
	JobTypeContract   = "contract"
	JobTypeFreelance  = "freelance"
	JobTypeInternship = "internship"
)

type ContactInfo struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type ProfessionalInfo struct {
	Skills       []string `json:"skills,omitempty"`
	HourlyRate   float64  `json:"hourly_rate,omitempty"`
	Availability string   `json:"availability,omitempty"`
}

type Preferences struct {
	Notifications bool     `json:"notifications"`
	PublicProfile bool     `json:"public_profile"`
	JobCategories []string `json:"job_categories,omitempty"`
	JobTypes      []string `json:"job_types,omitempty"`
	JobLocations  []string `json:"job_locations,omitempty"`
}

type UserStats struct {
	LinksGenerated    int64   `json:"links_generated"`
	PaymentsProcessed int64   `json:"payments_processed"`
	Rating            float64 `json:"rating"`
}

type User struct {
	ID                int64            `json:"id" db:"id"`
	NullifierHash     string           `json:"-" db:"nullifier_hash"`
	WalletAddress     string           `json:"wallet_address,omitempty" db:"wallet_address"`
	Nickname          string           `json:"nickname" db:"nickname"`
	ProfilePictureURL string           `json:"profile_picture_url,omitempty" db:"profile_picture_url"`
	ContactInfo       ContactInfo      `json:"contact_info" db:"contact_info"`
	ProfessionalInfo  ProfessionalInfo `json:"professional_info" db:"professional_info"`
	Preferences       Preferences      `json:"preferences" db:"preferences"`
	Stats             UserStats        `json:"stats" db:"stats"`
	Created           int64            `json:"created" db:"created"`
	Updated           int64            `json:"updated" db:"updated"`
}

type Job struct {
	ID             int64    `json:"id" db:"id"`
	Title          string   `json:"title" db:"title"`
	Company        string   `json:"company" db:"company"`
	Description    string   `json:"description" db:"description"`
	Requirements   []string `json:"requirements" db:"requirements"`
	SalaryMin      int64    `json:"salary_min" db:"salary_min"`
	SalaryMax      int64    `json:"salary_max" db:"salary_max"`
	SalaryCurrency string   `json:"salary_currency" db:"salary_currency"`
	Location       string   `json:"location" db:"location"`
	Remote         bool     `json:"remote" db:"remote"`
	JobType        string   `json:"job_type" db:"job_type"`
	Category       string   `json:"category" db:"category"`
	Active         bool     `json:"active" db:"active"`
	Posted         int64    `json:"posted" db:"posted"`
	Updated        int64    `json:"updated" db:"updated"`
}

// UserJob is the single interaction row per (user, job) pair. Uniqueness on
// the pair is enforced by the schema; writes go through an explicit upsert.
type UserJob struct {
	ID            int64  `json:"id" db:"id"`
	UserID        int64  `json:"user_id" db:"user_id"`
	JobID         int64  `json:"job_id" db:"job_id"`
	Status        string `json:"status" db:"status"`
	GeneratedLink string `json:"generated_link,omitempty" db:"generated_link"`
	TransactionID *int64 `json:"transaction_id,omitempty" db:"transaction_id"`
	Created       int64  `json:"created" db:"created"`
	Updated       int64  `json:"updated" db:"updated"`
}

// Transaction records one payment. Created PENDING at the start of a paid
// action; flipped to COMPLETED or FAILED by provider verification or callback.
type Transaction struct {
	ID           int64   `json:"id" db:"id"`
	UserID       int64   `json:"user_id" db:"user_id"`
	Type         string  `json:"type" db:"type"`
	Amount       float64 `json:"amount" db:"amount"`
	Status       string  `json:"status" db:"status"`
	Reference    string  `json:"reference" db:"reference"`
	ProviderTxID string  `json:"provider_tx_id,omitempty" db:"provider_tx_id"`
	JobID        *int64  `json:"job_id,omitempty" db:"job_id"`
	ChatID       *int64  `json:"chat_id,omitempty" db:"chat_id"`
	Created      int64   `json:"created" db:"created"`
	Updated      int64   `json:"updated" db:"updated"`
}

type ChatMessage struct {
	ID      int64  `json:"id" db:"id"`
	ChatID  int64  `json:"chat_id" db:"chat_id"`
	Role    string `json:"role" db:"role"`
	Content string `json:"content" db:"content"`
	Created int64  `json:"created" db:"created"`
}

type Chat struct {
	ID            int64         `json:"id" db:"id"`
	UserID        int64         `json:"user_id" db:"user_id"`
	JobID         *int64        `json:"job_id,omitempty" db:"job_id"`
	TransactionID int64         `json:"transaction_id" db:"transaction_id"`
	Messages      []ChatMessage `json:"messages,omitempty" db:"-"`
	Created       int64         `json:"created" db:"created"`
	Updated       int64         `json:"updated" db:"updated"`
}

// ValidJobType reports whether t is one of the enumerated employment types.
func ValidJobType(t string) bool {
	switch t {
	case JobTypeFullTime, JobTypePartTime, JobTypeContract, JobTypeFreelance, JobTypeInternship:
		return true
	}
	return false
}

// ValidTxType reports whether t is a known transaction type.
func ValidTxType(t string) bool {
	switch t {
	case TxTypeChat, TxTypeJobLink, TxTypeDeposit:
		return true
	}
	return false
}
