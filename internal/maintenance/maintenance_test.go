package maintenance

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/garnizeh/jobboard/internal/auth"
	"github.com/garnizeh/jobboard/pkg/models"
	"github.com/garnizeh/jobboard/pkg/repository/mock"
)

func TestSweepNonces(t *testing.T) {
	ctx := context.Background()
	nonces := auth.NewMemoryNonceStore(time.Millisecond)
	for i := 0; i < 3; i++ {
		if _, err := nonces.Issue(ctx); err != nil {
			t.Fatalf("issue nonce: %v", err)
		}
	}
	time.Sleep(10 * time.Millisecond)

	s := NewScheduler(nonces, mock.NewMocks().Txs, time.Hour, slog.Default())
	s.sweepNonces(ctx)

	if got := nonces.Len(); got != 0 {
		t.Errorf("store holds %d nonces after sweep, want 0", got)
	}
}

func TestExpirePending(t *testing.T) {
	ctx := context.Background()
	m := mock.NewMocks()

	stale := time.Now().Add(-2 * time.Hour).UnixMilli()
	m.Txs.Seed(models.Transaction{ID: 1, UserID: 1, Reference: "old", Status: models.TxPending, Created: stale})
	m.Txs.Seed(models.Transaction{ID: 2, UserID: 1, Reference: "new", Status: models.TxPending, Created: time.Now().UnixMilli()})
	m.Txs.Seed(models.Transaction{ID: 3, UserID: 1, Reference: "done", Status: models.TxCompleted, Created: stale})

	s := NewScheduler(auth.NewMemoryNonceStore(time.Minute), m.Txs, time.Hour, slog.Default())
	s.expirePending(ctx)

	assertStatus := func(ref, want string) {
		t.Helper()
		tx, err := m.Txs.GetTransactionByReference(ctx, ref)
		if err != nil || tx == nil {
			t.Fatalf("get %s: %v", ref, err)
		}
		if tx.Status != want {
			t.Errorf("transaction %s status = %s, want %s", ref, tx.Status, want)
		}
	}
	assertStatus("old", models.TxFailed)
	assertStatus("new", models.TxPending)
	assertStatus("done", models.TxCompleted)
}

func TestSchedulerStartStop(t *testing.T) {
	s := NewScheduler(auth.NewMemoryNonceStore(time.Minute), mock.NewMocks().Txs, time.Hour, slog.Default())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.Stop()
}
