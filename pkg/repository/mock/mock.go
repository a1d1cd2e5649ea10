package mock

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/garnizeh/jobboard/pkg/models"
	"github.com/garnizeh/jobboard/pkg/repository"
)

// Test helpers and mocks
type Mocks struct {
	Users    *mockUserRepo
	Jobs     *mockJobRepo
	UserJobs *mockUserJobRepo
	Txs      *mockTransactionRepo
	Chats    *mockChatRepo
}

func NewMocks() *Mocks {
	m := &Mocks{
		Users:    &mockUserRepo{byID: map[int64]*models.User{}},
		Jobs:     &mockJobRepo{byID: map[int64]*models.Job{}},
		UserJobs: &mockUserJobRepo{rows: map[string]*models.UserJob{}},
		Txs:      &mockTransactionRepo{byID: map[int64]*models.Transaction{}},
		Chats:    &mockChatRepo{byID: map[int64]*models.Chat{}},
	}
	m.Chats.txs = m.Txs
	return m
}

type mockUserRepo struct {
	byID      map[int64]*models.User
	nextID    int64
	CreateErr error
	GetErr    error
	UpdateErr error
	IncrErr   error

	LinksIncremented    int
	PaymentsIncremented int
}

func (m *mockUserRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	for _, ex := range m.byID {
		if u.NullifierHash != "" && ex.NullifierHash == u.NullifierHash {
			return 0, fmt.Errorf("unique constraint: nullifier_hash")
		}
		if u.WalletAddress != "" && ex.WalletAddress == u.WalletAddress {
			return 0, fmt.Errorf("unique constraint: wallet_address")
		}
	}
	m.nextID++
	cp := *u
	cp.ID = m.nextID
	m.byID[cp.ID] = &cp
	return cp.ID, nil
}

func (m *mockUserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if u, ok := m.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *mockUserRepo) GetUserByNullifier(ctx context.Context, hash string) (*models.User, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	for _, u := range m.byID {
		if u.NullifierHash == hash {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) GetUserByWallet(ctx context.Context, address string) (*models.User, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	for _, u := range m.byID {
		if u.WalletAddress == address {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) UpdateUserProfile(ctx context.Context, u *models.User) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	ex, ok := m.byID[u.ID]
	if !ok {
		return fmt.Errorf("user %d not found", u.ID)
	}
	ex.Nickname = u.Nickname
	ex.ProfilePictureURL = u.ProfilePictureURL
	ex.ContactInfo = u.ContactInfo
	ex.ProfessionalInfo = u.ProfessionalInfo
	ex.Preferences = u.Preferences
	return nil
}

func (m *mockUserRepo) IncrementLinksGenerated(ctx context.Context, userID int64) error {
	if m.IncrErr != nil {
		return m.IncrErr
	}
	if u, ok := m.byID[userID]; ok {
		u.Stats.LinksGenerated++
	}
	m.LinksIncremented++
	return nil
}

func (m *mockUserRepo) IncrementPaymentsProcessed(ctx context.Context, userID int64) error {
	if m.IncrErr != nil {
		return m.IncrErr
	}
	if u, ok := m.byID[userID]; ok {
		u.Stats.PaymentsProcessed++
	}
	m.PaymentsIncremented++
	return nil
}

// Seed inserts a user with a fixed ID, bypassing uniqueness checks.
func (m *mockUserRepo) Seed(u models.User) {
	m.byID[u.ID] = &u
	if u.ID > m.nextID {
		m.nextID = u.ID
	}
}

type mockJobRepo struct {
	byID    map[int64]*models.Job
	nextID  int64
	ListErr error
	GetErr  error
}

func (m *mockJobRepo) ListJobs(ctx context.Context, f repository.JobFilter) ([]models.Job, int64, error) {
	if m.ListErr != nil {
		return nil, 0, m.ListErr
	}
	var all []models.Job
	for _, j := range m.byID {
		if !j.Active {
			continue
		}
		if !matchJob(j, f) {
			continue
		}
		all = append(all, *j)
	}
	sort.Slice(all, func(i, k int) bool { return all[i].Posted > all[k].Posted })
	total := int64(len(all))
	start := (f.Page - 1) * f.Limit
	if start >= len(all) {
		return []models.Job{}, total, nil
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func matchJob(j *models.Job, f repository.JobFilter) bool {
	if f.Search != "" {
		s := strings.ToLower(f.Search)
		hay := strings.ToLower(j.Title + " " + j.Description + " " + j.Company + " " + j.Category)
		if !strings.Contains(hay, s) {
			return false
		}
	}
	if f.Category != "" && j.Category != f.Category {
		return false
	}
	if f.JobType != "" && j.JobType != f.JobType {
		return false
	}
	if f.Location != "" && !strings.Contains(strings.ToLower(j.Location), strings.ToLower(f.Location)) {
		return false
	}
	if f.Remote != nil && j.Remote != *f.Remote {
		return false
	}
	if f.MinSalary > 0 && j.SalaryMax < f.MinSalary {
		return false
	}
	return true
}

func (m *mockJobRepo) GetJobByID(ctx context.Context, id int64) (*models.Job, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if j, ok := m.byID[id]; ok {
		cp := *j
		return &cp, nil
	}
	return nil, nil
}

func (m *mockJobRepo) CountJobs(ctx context.Context) (int64, error) {
	return int64(len(m.byID)), nil
}

func (m *mockJobRepo) CreateJob(ctx context.Context, j *models.Job) (int64, error) {
	m.nextID++
	cp := *j
	cp.ID = m.nextID
	m.byID[cp.ID] = &cp
	return cp.ID, nil
}

func (m *mockJobRepo) RecentJobs(ctx context.Context, limit int) ([]models.Job, error) {
	var all []models.Job
	for _, j := range m.byID {
		if j.Active {
			all = append(all, *j)
		}
	}
	sort.Slice(all, func(i, k int) bool { return all[i].Posted > all[k].Posted })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *mockJobRepo) DeactivateJob(ctx context.Context, id int64) error {
	if j, ok := m.byID[id]; ok {
		j.Active = false
	}
	return nil
}

// Seed inserts a job with a fixed ID.
func (m *mockJobRepo) Seed(j models.Job) {
	m.byID[j.ID] = &j
	if j.ID > m.nextID {
		m.nextID = j.ID
	}
}

type mockUserJobRepo struct {
	rows      map[string]*models.UserJob
	nextID    int64
	UpsertErr error
}

func ujKey(userID, jobID int64) string {
	return fmt.Sprintf("%d:%d", userID, jobID)
}

func (m *mockUserJobRepo) UpsertStatus(ctx context.Context, userID, jobID int64, status string) (*models.UserJob, error) {
	if m.UpsertErr != nil {
		return nil, m.UpsertErr
	}
	key := ujKey(userID, jobID)
	row, ok := m.rows[key]
	if !ok {
		m.nextID++
		row = &models.UserJob{ID: m.nextID, UserID: userID, JobID: jobID}
		m.rows[key] = row
	}
	row.Status = status
	cp := *row
	return &cp, nil
}

func (m *mockUserJobRepo) SetApplied(ctx context.Context, userID, jobID int64, link string, transactionID int64) (*models.UserJob, error) {
	if m.UpsertErr != nil {
		return nil, m.UpsertErr
	}
	key := ujKey(userID, jobID)
	row, ok := m.rows[key]
	if !ok {
		m.nextID++
		row = &models.UserJob{ID: m.nextID, UserID: userID, JobID: jobID}
		m.rows[key] = row
	}
	row.Status = models.UserJobApplied
	row.GeneratedLink = link
	row.TransactionID = &transactionID
	cp := *row
	return &cp, nil
}

func (m *mockUserJobRepo) GetUserJob(ctx context.Context, userID, jobID int64) (*models.UserJob, error) {
	if row, ok := m.rows[ujKey(userID, jobID)]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, nil
}

func (m *mockUserJobRepo) ListUserJobsByUser(ctx context.Context, userID int64, status string) ([]models.UserJob, error) {
	var out []models.UserJob
	for _, row := range m.rows {
		if row.UserID != userID {
			continue
		}
		if status != "" && row.Status != status {
			continue
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out, nil
}

func (m *mockUserJobRepo) CountByStatus(ctx context.Context, userID int64) (repository.StatusCounts, error) {
	counts := repository.StatusCounts{}
	for _, row := range m.rows {
		if row.UserID == userID {
			counts[row.Status]++
		}
	}
	return counts, nil
}

func (m *mockUserJobRepo) ListGeneratedLinks(ctx context.Context, userID int64) ([]repository.GeneratedLink, error) {
	var out []repository.GeneratedLink
	for _, row := range m.rows {
		if row.UserID == userID && row.Status == models.UserJobApplied && row.GeneratedLink != "" {
			out = append(out, repository.GeneratedLink{UserJob: *row})
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].UserJob.ID < out[k].UserJob.ID })
	return out, nil
}

type mockTransactionRepo struct {
	byID      map[int64]*models.Transaction
	nextID    int64
	CreateErr error
	GetErr    error
	SetErr    error
}

func (m *mockTransactionRepo) CreateTransaction(ctx context.Context, t *models.Transaction) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	for _, ex := range m.byID {
		if ex.Reference == t.Reference {
			return 0, fmt.Errorf("unique constraint: reference")
		}
	}
	m.nextID++
	cp := *t
	cp.ID = m.nextID
	if cp.Status == "" {
		cp.Status = models.TxPending
	}
	m.byID[cp.ID] = &cp
	return cp.ID, nil
}

func (m *mockTransactionRepo) GetTransactionByID(ctx context.Context, id int64) (*models.Transaction, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if t, ok := m.byID[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (m *mockTransactionRepo) GetTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	for _, t := range m.byID {
		if t.Reference == reference {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockTransactionRepo) SetStatusByReference(ctx context.Context, reference, status, providerTxID string) (*models.Transaction, error) {
	if m.SetErr != nil {
		return nil, m.SetErr
	}
	for _, t := range m.byID {
		if t.Reference == reference {
			if t.Status == models.TxPending {
				t.Status = status
				if providerTxID != "" {
					t.ProviderTxID = providerTxID
				}
			}
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockTransactionRepo) ListByUser(ctx context.Context, userID int64) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, t := range m.byID {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID > out[k].ID })
	return out, nil
}

func (m *mockTransactionRepo) CompletedTotals(ctx context.Context, userID int64) (*repository.CompletedTotals, error) {
	totals := &repository.CompletedTotals{}
	for _, t := range m.byID {
		if t.UserID == userID && t.Status == models.TxCompleted {
			totals.Count++
			totals.Sum += t.Amount
		}
	}
	return totals, nil
}

func (m *mockTransactionRepo) FailStalePending(ctx context.Context, olderThan int64) (int64, error) {
	var n int64
	for _, t := range m.byID {
		if t.Status == models.TxPending && t.Created < olderThan {
			t.Status = models.TxFailed
			n++
		}
	}
	return n, nil
}

// Seed inserts a transaction with a fixed ID.
func (m *mockTransactionRepo) Seed(t models.Transaction) {
	m.byID[t.ID] = &t
	if t.ID > m.nextID {
		m.nextID = t.ID
	}
}

type mockChatRepo struct {
	byID      map[int64]*models.Chat
	nextID    int64
	nextMsgID int64
	CreateErr error
	AppendErr error
	txs       *mockTransactionRepo
}

func (m *mockChatRepo) CreateChat(ctx context.Context, c *models.Chat) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	m.nextID++
	cp := *c
	cp.ID = m.nextID
	m.byID[cp.ID] = &cp
	if m.txs != nil {
		if t, ok := m.txs.byID[cp.TransactionID]; ok {
			id := cp.ID
			t.ChatID = &id
		}
	}
	return cp.ID, nil
}

func (m *mockChatRepo) GetChatByID(ctx context.Context, id int64) (*models.Chat, error) {
	if c, ok := m.byID[id]; ok {
		cp := *c
		cp.Messages = append([]models.ChatMessage(nil), c.Messages...)
		return &cp, nil
	}
	return nil, nil
}

func (m *mockChatRepo) ListChatsByUser(ctx context.Context, userID int64) ([]models.Chat, error) {
	var out []models.Chat
	for _, c := range m.byID {
		if c.UserID == userID {
			cp := *c
			cp.Messages = nil
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID > out[k].ID })
	return out, nil
}

func (m *mockChatRepo) AppendMessage(ctx context.Context, msg *models.ChatMessage) (int64, error) {
	if m.AppendErr != nil {
		return 0, m.AppendErr
	}
	c, ok := m.byID[msg.ChatID]
	if !ok {
		return 0, fmt.Errorf("chat %d not found", msg.ChatID)
	}
	m.nextMsgID++
	msg.ID = m.nextMsgID
	c.Messages = append(c.Messages, *msg)
	return msg.ID, nil
}

// Seed inserts a chat with a fixed ID.
func (m *mockChatRepo) Seed(c models.Chat) {
	m.byID[c.ID] = &c
	if c.ID > m.nextID {
		m.nextID = c.ID
	}
}
