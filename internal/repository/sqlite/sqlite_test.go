package sqlite_test

import (
	"context"
	"fmt"
	"testing"

	dbfs "github.com/garnizeh/jobboard/db"
	"github.com/garnizeh/jobboard/internal/db"
	"github.com/garnizeh/jobboard/internal/repository/sqlite"
	"github.com/garnizeh/jobboard/pkg/models"
	"github.com/garnizeh/jobboard/pkg/repository"
)

// setupRepo migrates a fresh in-memory database. The migration also seeds the
// static jobs catalog, so job tests isolate themselves with a unique category.
func setupRepo(t *testing.T, name string) *sqlite.SQLiteRepo {
	t.Helper()
	ctx := context.Background()

	conn, err := db.New(ctx, "file:"+name+"?mode=memory&cache=shared", nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := db.Migrate(ctx, conn, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return sqlite.New(conn, nil)
}

func TestUserLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t, "repo_users")

	id, err := repo.CreateUser(ctx, &models.User{NullifierHash: "0xn1", Nickname: "First"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u, err := repo.GetUserByID(ctx, id)
	if err != nil || u == nil {
		t.Fatalf("GetUserByID: %v %v", u, err)
	}
	if u.NullifierHash != "0xn1" || u.Nickname != "First" || u.Created == 0 {
		t.Fatalf("unexpected user: %+v", u)
	}

	byNull, err := repo.GetUserByNullifier(ctx, "0xn1")
	if err != nil || byNull == nil || byNull.ID != id {
		t.Fatalf("GetUserByNullifier: %v %v", byNull, err)
	}

	// the nullifier is unique
	if _, err := repo.CreateUser(ctx, &models.User{NullifierHash: "0xn1", Nickname: "Dup"}); err == nil {
		t.Fatalf("expected unique constraint on nullifier_hash")
	}

	// absent identities are NULL, so many users without a wallet coexist
	if _, err := repo.CreateUser(ctx, &models.User{NullifierHash: "0xn2", Nickname: "Second"}); err != nil {
		t.Fatalf("second walletless user: %v", err)
	}

	// unknown lookups are (nil, nil), not an error
	missing, err := repo.GetUserByWallet(ctx, "0xdeadbeef")
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for unknown wallet, got %v %v", missing, err)
	}

	// profile update persists nested sections as JSON
	u.Nickname = "Renamed"
	u.ContactInfo.Email = "me@example.test"
	u.ProfessionalInfo.Skills = []string{"go"}
	u.Preferences.Notifications = true
	if err := repo.UpdateUserProfile(ctx, u); err != nil {
		t.Fatalf("UpdateUserProfile: %v", err)
	}
	got, _ := repo.GetUserByID(ctx, id)
	if got.Nickname != "Renamed" || got.ContactInfo.Email != "me@example.test" ||
		len(got.ProfessionalInfo.Skills) != 1 || !got.Preferences.Notifications {
		t.Fatalf("profile not persisted: %+v", got)
	}

	// counters
	if err := repo.IncrementLinksGenerated(ctx, id); err != nil {
		t.Fatalf("IncrementLinksGenerated: %v", err)
	}
	if err := repo.IncrementPaymentsProcessed(ctx, id); err != nil {
		t.Fatalf("IncrementPaymentsProcessed: %v", err)
	}
	if err := repo.IncrementPaymentsProcessed(ctx, id); err != nil {
		t.Fatalf("IncrementPaymentsProcessed: %v", err)
	}
	got, _ = repo.GetUserByID(ctx, id)
	if got.Stats.LinksGenerated != 1 || got.Stats.PaymentsProcessed != 2 {
		t.Fatalf("unexpected stats: %+v", got.Stats)
	}
}

func seedCatalog(t *testing.T, repo *sqlite.SQLiteRepo, category string, n int) []int64 {
	t.Helper()
	ctx := context.Background()

	ids := make([]int64, 0, n)
	for i := 1; i <= n; i++ {
		id, err := repo.CreateJob(ctx, &models.Job{
			Title:          fmt.Sprintf("Backend Engineer %d", i),
			Company:        "Acme",
			Description:    "Build services",
			Requirements:   []string{"Go", "SQL"},
			SalaryMin:      40000,
			SalaryMax:      int64(50000 + i*1000),
			SalaryCurrency: "EUR",
			Location:       "Berlin",
			Remote:         i%2 == 0,
			JobType:        models.JobTypeFullTime,
			Category:       category,
			Active:         true,
		})
		if err != nil {
			t.Fatalf("CreateJob %d: %v", i, err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestListJobsPaginationAndFilters(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t, "repo_jobs")
	ids := seedCatalog(t, repo, "pagination-test", 25)

	base := repository.JobFilter{Category: "pagination-test", Page: 1, Limit: 10}

	jobs, total, err := repo.ListJobs(ctx, base)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if total != 25 || len(jobs) != 10 {
		t.Fatalf("page 1: expected 10 of 25, got %d of %d", len(jobs), total)
	}

	page3 := base
	page3.Page = 3
	jobs, total, err = repo.ListJobs(ctx, page3)
	if err != nil || total != 25 || len(jobs) != 5 {
		t.Fatalf("page 3: expected 5 of 25, got %d of %d (%v)", len(jobs), total, err)
	}

	remote := true
	remoteFilter := base
	remoteFilter.Remote = &remote
	remoteFilter.Limit = 100
	jobs, _, err = repo.ListJobs(ctx, remoteFilter)
	if err != nil {
		t.Fatalf("remote filter: %v", err)
	}
	if len(jobs) != 12 {
		t.Fatalf("expected 12 remote jobs, got %d", len(jobs))
	}
	for _, j := range jobs {
		if !j.Remote {
			t.Fatalf("non-remote row: %+v", j)
		}
	}

	salaryFilter := base
	salaryFilter.MinSalary = 73000
	salaryFilter.Limit = 100
	jobs, _, err = repo.ListJobs(ctx, salaryFilter)
	if err != nil {
		t.Fatalf("salary filter: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs above the floor, got %d", len(jobs))
	}

	searchFilter := base
	searchFilter.Search = "backend engineer 2"
	searchFilter.Limit = 100
	jobs, _, err = repo.ListJobs(ctx, searchFilter)
	if err != nil {
		t.Fatalf("search filter: %v", err)
	}
	// matches "... 2", "... 20" .. "... 25"
	if len(jobs) != 7 {
		t.Fatalf("expected 7 search hits, got %d", len(jobs))
	}

	// deactivated jobs disappear from the listing but stay fetchable
	if err := repo.DeactivateJob(ctx, ids[0]); err != nil {
		t.Fatalf("DeactivateJob: %v", err)
	}
	_, total, err = repo.ListJobs(ctx, base)
	if err != nil || total != 24 {
		t.Fatalf("expected 24 active jobs, got %d (%v)", total, err)
	}
	j, err := repo.GetJobByID(ctx, ids[0])
	if err != nil || j == nil || j.Active {
		t.Fatalf("deactivated job should stay fetchable as inactive, got %+v (%v)", j, err)
	}
	if len(j.Requirements) != 2 {
		t.Fatalf("requirements not round-tripped: %+v", j.Requirements)
	}
}

func TestRecentJobs(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t, "repo_recent")
	seedCatalog(t, repo, "recent-test", 3)

	recent, err := repo.RecentJobs(ctx, 5)
	if err != nil {
		t.Fatalf("RecentJobs: %v", err)
	}
	if len(recent) != 5 {
		t.Fatalf("expected 5 recent jobs, got %d", len(recent))
	}
	for i := 1; i < len(recent); i++ {
		if recent[i].Posted > recent[i-1].Posted {
			t.Fatalf("recent jobs not newest first: %d before %d", recent[i-1].Posted, recent[i].Posted)
		}
	}
}

func TestUserJobUpsert(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t, "repo_userjobs")

	userID, err := repo.CreateUser(ctx, &models.User{NullifierHash: "0xuj", Nickname: "UJ"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	jobIDs := seedCatalog(t, repo, "uj-test", 3)

	// first write creates the row
	uj, err := repo.UpsertStatus(ctx, userID, jobIDs[0], models.UserJobInterested)
	if err != nil {
		t.Fatalf("UpsertStatus: %v", err)
	}
	if uj.Status != models.UserJobInterested {
		t.Fatalf("unexpected status: %+v", uj)
	}

	// second write flips the same row; no duplicate appears
	uj2, err := repo.UpsertStatus(ctx, userID, jobIDs[0], models.UserJobDiscarded)
	if err != nil {
		t.Fatalf("UpsertStatus flip: %v", err)
	}
	if uj2.ID != uj.ID || uj2.Status != models.UserJobDiscarded {
		t.Fatalf("expected in-place flip, got %+v vs %+v", uj2, uj)
	}
	rows, err := repo.ListUserJobsByUser(ctx, userID, "")
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected single row, got %d (%v)", len(rows), err)
	}

	// SetApplied creates the row for a never-touched job
	txID, err := repo.CreateTransaction(ctx, &models.Transaction{UserID: userID, Type: models.TxTypeJobLink, Amount: 1, Status: models.TxCompleted, Reference: "ujref", JobID: &jobIDs[1]})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	applied, err := repo.SetApplied(ctx, userID, jobIDs[1], "https://front.test/apply/k", txID)
	if err != nil {
		t.Fatalf("SetApplied: %v", err)
	}
	if applied.Status != models.UserJobApplied || applied.GeneratedLink == "" || applied.TransactionID == nil || *applied.TransactionID != txID {
		t.Fatalf("unexpected applied row: %+v", applied)
	}

	// an empty link is rejected
	if _, err := repo.SetApplied(ctx, userID, jobIDs[2], "", txID); err == nil {
		t.Fatalf("expected error for empty link")
	}

	counts, err := repo.CountByStatus(ctx, userID)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[models.UserJobDiscarded] != 1 || counts[models.UserJobApplied] != 1 || counts[models.UserJobInterested] != 0 {
		t.Fatalf("unexpected counts: %+v", counts)
	}

	// status filter
	appliedRows, err := repo.ListUserJobsByUser(ctx, userID, models.UserJobApplied)
	if err != nil || len(appliedRows) != 1 || appliedRows[0].JobID != jobIDs[1] {
		t.Fatalf("status filter: got %+v (%v)", appliedRows, err)
	}

	// generated links join job and transaction summaries
	links, err := repo.ListGeneratedLinks(ctx, userID)
	if err != nil {
		t.Fatalf("ListGeneratedLinks: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("expected one link, got %d", len(links))
	}
	gl := links[0]
	if gl.Job == nil || gl.Job.ID != jobIDs[1] {
		t.Fatalf("job not joined: %+v", gl.Job)
	}
	if gl.Transaction == nil || gl.Transaction.ID != txID || gl.Transaction.Reference != "ujref" {
		t.Fatalf("transaction not joined: %+v", gl.Transaction)
	}
}

func TestTransactions(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t, "repo_txs")

	userID, err := repo.CreateUser(ctx, &models.User{NullifierHash: "0xtx", Nickname: "TX"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	// a reference is mandatory
	if _, err := repo.CreateTransaction(ctx, &models.Transaction{UserID: userID, Type: models.TxTypeChat, Amount: 0.5}); err == nil {
		t.Fatalf("expected error for missing reference")
	}

	id, err := repo.CreateTransaction(ctx, &models.Transaction{UserID: userID, Type: models.TxTypeChat, Amount: 0.5, Reference: "ref1"})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	tx, err := repo.GetTransactionByID(ctx, id)
	if err != nil || tx == nil {
		t.Fatalf("GetTransactionByID: %v %v", tx, err)
	}
	if tx.Status != models.TxPending {
		t.Fatalf("expected PENDING default, got %s", tx.Status)
	}

	// duplicate reference rejected
	if _, err := repo.CreateTransaction(ctx, &models.Transaction{UserID: userID, Type: models.TxTypeChat, Amount: 0.5, Reference: "ref1"}); err == nil {
		t.Fatalf("expected unique constraint on reference")
	}

	// unknown reference updates return (nil, nil)
	missing, err := repo.SetStatusByReference(ctx, "nope", models.TxCompleted, "p1")
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for unknown reference, got %v %v", missing, err)
	}

	updated, err := repo.SetStatusByReference(ctx, "ref1", models.TxCompleted, "p1")
	if err != nil || updated == nil {
		t.Fatalf("SetStatusByReference: %v %v", updated, err)
	}
	if updated.Status != models.TxCompleted || updated.ProviderTxID != "p1" {
		t.Fatalf("unexpected updated row: %+v", updated)
	}

	// settled rows are final: a later update is a no-op
	final, err := repo.SetStatusByReference(ctx, "ref1", models.TxFailed, "p2")
	if err != nil || final == nil {
		t.Fatalf("SetStatusByReference on settled row: %v %v", final, err)
	}
	if final.Status != models.TxCompleted || final.ProviderTxID != "p1" {
		t.Fatalf("settled row mutated: %+v", final)
	}

	// totals count only COMPLETED rows
	if _, err := repo.CreateTransaction(ctx, &models.Transaction{UserID: userID, Type: models.TxTypeJobLink, Amount: 1.0, Status: models.TxCompleted, Reference: "ref2"}); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if _, err := repo.CreateTransaction(ctx, &models.Transaction{UserID: userID, Type: models.TxTypeChat, Amount: 0.5, Reference: "ref3"}); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	totals, err := repo.CompletedTotals(ctx, userID)
	if err != nil {
		t.Fatalf("CompletedTotals: %v", err)
	}
	if totals.Count != 2 || totals.Sum != 1.5 {
		t.Fatalf("unexpected totals: %+v", totals)
	}

	list, err := repo.ListByUser(ctx, userID)
	if err != nil || len(list) != 3 {
		t.Fatalf("ListByUser: got %d (%v)", len(list), err)
	}

	// everything PENDING created so far is older than a future cutoff
	n, err := repo.FailStalePending(ctx, tx.Created+1_000_000)
	if err != nil {
		t.Fatalf("FailStalePending: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 stale pending row failed, got %d", n)
	}
	stale, _ := repo.GetTransactionByReference(ctx, "ref3")
	if stale.Status != models.TxFailed {
		t.Fatalf("expected FAILED, got %s", stale.Status)
	}
}

func TestChatStorage(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t, "repo_chats")

	userID, err := repo.CreateUser(ctx, &models.User{NullifierHash: "0xchat", Nickname: "Chatty"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	txID, err := repo.CreateTransaction(ctx, &models.Transaction{UserID: userID, Type: models.TxTypeChat, Amount: 0.5, Status: models.TxCompleted, Reference: "chatref"})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	chatID, err := repo.CreateChat(ctx, &models.Chat{UserID: userID, TransactionID: txID})
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}

	// the paying transaction is bound to the chat
	tx, _ := repo.GetTransactionByID(ctx, txID)
	if tx.ChatID == nil || *tx.ChatID != chatID {
		t.Fatalf("transaction not bound to chat: %+v", tx.ChatID)
	}

	if _, err := repo.AppendMessage(ctx, &models.ChatMessage{ChatID: chatID, Role: models.RoleUser, Content: "hi"}); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if _, err := repo.AppendMessage(ctx, &models.ChatMessage{ChatID: chatID, Role: models.RoleAI, Content: "hello"}); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	c, err := repo.GetChatByID(ctx, chatID)
	if err != nil || c == nil {
		t.Fatalf("GetChatByID: %v %v", c, err)
	}
	if len(c.Messages) != 2 || c.Messages[0].Role != models.RoleUser || c.Messages[1].Role != models.RoleAI {
		t.Fatalf("messages out of order: %+v", c.Messages)
	}

	chats, err := repo.ListChatsByUser(ctx, userID)
	if err != nil || len(chats) != 1 || chats[0].ID != chatID {
		t.Fatalf("ListChatsByUser: %+v (%v)", chats, err)
	}
	// listing omits message bodies
	if len(chats[0].Messages) != 0 {
		t.Fatalf("listing should not carry messages: %+v", chats[0].Messages)
	}

	// unknown chat is (nil, nil)
	missing, err := repo.GetChatByID(ctx, 9999)
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for unknown chat, got %v %v", missing, err)
	}
}
