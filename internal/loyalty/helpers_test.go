package loyalty

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kkkkikiki/punchcard/internal/model"
	"github.com/kkkkikiki/punchcard/internal/notify"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// recordingSink captures notifications and optionally fails them
type recordingSink struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (r *recordingSink) Notify(_ context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return r.err
}

func (r *recordingSink) all() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notification(nil), r.sent...)
}

type testEnv struct {
	engine *Engine
	store  *memStore
	sink   *recordingSink
}

// newTestEnv builds an engine over an empty memStore with a ticking clock and
// sequential ids.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	var (
		mu   sync.Mutex
		tick int
		seq  int
	)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return epoch.Add(time.Duration(tick) * time.Hour)
	}
	ids := func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("gen-%03d", seq)
	}

	store := newMemStore()
	sink := &recordingSink{}
	engine := NewEngine(store, "https://app.example.com/",
		WithSink(sink),
		WithClock(clock),
		WithIDGenerator(ids),
		WithHashCost(bcrypt.MinCost),
	)
	return &testEnv{engine: engine, store: store, sink: sink}
}

func (e *testEnv) merchant(t *testing.T, id string) {
	t.Helper()
	e.store.data.merchants[id] = model.Merchant{
		ID:          id,
		DisplayName: "Merchant " + id,
		Email:       id + "@example.com",
		CreatedAt:   epoch,
		UpdatedAt:   epoch,
	}
}

func (e *testEnv) customer(t *testing.T, id string) {
	t.Helper()
	e.store.data.customers[id] = model.Customer{ID: id, Email: id + "@example.com", CreatedAt: epoch}
}

func (e *testEnv) program(t *testing.T, id, merchantID string, threshold int, reward string) {
	t.Helper()
	e.store.data.programs[id] = model.LoyaltyProgram{
		ID:         id,
		MerchantID: merchantID,
		RewardName: reward,
		Threshold:  threshold,
		CreatedAt:  epoch,
		UpdatedAt:  epoch,
	}
}

// stamps seeds n stamps created a minute apart, before anything the engine
// creates. programID may be empty for merchant-wide stamps.
func (e *testEnv) stamps(t *testing.T, customerID, merchantID, programID string, n int) []string {
	t.Helper()
	ids := make([]string, n)
	base := len(e.store.data.stamps)
	for i := 0; i < n; i++ {
		st := model.Stamp{
			ID:         fmt.Sprintf("seed-%s-%03d", customerID, base+i),
			MerchantID: merchantID,
			CustomerID: customerID,
			CreatedAt:  epoch.Add(time.Duration(base+i) * time.Minute),
		}
		if programID != "" {
			pid := programID
			st.LoyaltyProgramID = &pid
		}
		e.store.data.stamps[st.ID] = st
		ids[i] = st.ID
	}
	return ids
}
