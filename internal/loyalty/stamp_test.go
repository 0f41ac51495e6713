package loyalty

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kkkkikiki/punchcard/internal/notify"
)

func TestIssueStamp(t *testing.T) {
	env := newTestEnv(t)
	env.merchant(t, "M1")
	env.customer(t, "C1")
	env.program(t, "P1", "M1", 5, "Free Coffee")
	env.stamps(t, "C1", "M1", "", 2)

	stamp, err := env.engine.IssueStamp(context.Background(), "M1", "C1", "P1")
	if err != nil {
		t.Fatalf("IssueStamp() error = %v", err)
	}
	if stamp.LoyaltyProgramID == nil || *stamp.LoyaltyProgramID != "P1" {
		t.Errorf("stamp program = %v, want P1", stamp.LoyaltyProgramID)
	}
	if got := env.store.stampCount("C1", "M1"); got != 3 {
		t.Errorf("stamps = %d, want 3", got)
	}

	sent := env.sink.all()
	if len(sent) != 1 {
		t.Fatalf("notifications = %d, want 1", len(sent))
	}
	n := sent[0]
	if n.Kind != notify.KindStampEarned || n.CustomerID != "C1" {
		t.Errorf("notification = %+v", n)
	}
	for _, want := range []string{"3 of 5", "Free Coffee", "https://app.example.com/join/M1"} {
		if !strings.Contains(n.Body, want) {
			t.Errorf("notification body %q does not contain %q", n.Body, want)
		}
	}
	if n.SentAt.IsZero() {
		t.Errorf("notification SentAt not set")
	}
}

func TestIssueStampMerchantWide(t *testing.T) {
	env := newTestEnv(t)
	env.merchant(t, "M1")
	env.customer(t, "C1")

	stamp, err := env.engine.IssueStamp(context.Background(), "M1", "C1", "")
	if err != nil {
		t.Fatalf("IssueStamp() error = %v", err)
	}
	if stamp.LoyaltyProgramID != nil {
		t.Errorf("stamp program = %q, want none", *stamp.LoyaltyProgramID)
	}
}

func TestIssueStampRejects(t *testing.T) {
	tests := []struct {
		name       string
		merchantID string
		customerID string
		programID  string
		wantErr    error
	}{
		{name: "unknown customer", merchantID: "M1", customerID: "ghost", wantErr: ErrCustomerNotFound},
		{name: "unknown merchant", merchantID: "M404", customerID: "C1", wantErr: ErrMerchantNotFound},
		{name: "foreign program", merchantID: "M1", customerID: "C1", programID: "P2", wantErr: ErrProgramNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.merchant(t, "M1")
			env.merchant(t, "M2")
			env.customer(t, "C1")
			env.program(t, "P2", "M2", 5, "Free Tea")

			_, err := env.engine.IssueStamp(context.Background(), tt.merchantID, tt.customerID, tt.programID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("IssueStamp() error = %v, want %v", err, tt.wantErr)
			}
			if len(env.sink.all()) != 0 {
				t.Errorf("notification sent for a rejected stamp")
			}
		})
	}
}

func TestGetProgress(t *testing.T) {
	env := newTestEnv(t)
	env.merchant(t, "M1")
	env.customer(t, "C1")
	env.program(t, "P1", "M1", 5, "Free Coffee")
	ctx := context.Background()

	progress, err := env.engine.GetProgress(ctx, "C1", "P1")
	if err != nil {
		t.Fatalf("GetProgress() error = %v", err)
	}
	if progress.Stamps != 0 || progress.Remaining != 5 || progress.Joined {
		t.Errorf("progress before join = %+v", progress)
	}

	if _, err := env.engine.Join(ctx, "C1", "P1"); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	env.stamps(t, "C1", "M1", "", 6)

	progress, err = env.engine.GetProgress(ctx, "C1", "P1")
	if err != nil {
		t.Fatalf("GetProgress() error = %v", err)
	}
	want := Progress{Stamps: 7, Threshold: 5, Remaining: 0, Joined: true}
	if *progress != want {
		t.Errorf("progress = %+v, want %+v", *progress, want)
	}

	if _, err := env.engine.GetProgress(ctx, "ghost", "P1"); !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("GetProgress(ghost) error = %v, want %v", err, ErrCustomerNotFound)
	}
}

func TestDisassociateCustomer(t *testing.T) {
	env := newTestEnv(t)
	env.merchant(t, "M1")
	env.merchant(t, "M2")
	env.customer(t, "C1")
	env.program(t, "P1", "M1", 5, "Free Coffee")
	env.program(t, "P2", "M2", 5, "Free Tea")
	ctx := context.Background()

	for _, p := range []string{"P1", "P2"} {
		if _, err := env.engine.Join(ctx, "C1", p); err != nil {
			t.Fatalf("Join(%s) error = %v", p, err)
		}
	}
	env.stamps(t, "C1", "M1", "", 3)

	stamps, memberships, err := env.engine.DisassociateCustomer(ctx, "M1", "C1")
	if err != nil {
		t.Fatalf("DisassociateCustomer() error = %v", err)
	}
	if stamps != 4 || memberships != 1 {
		t.Errorf("deleted stamps/memberships = %d/%d, want 4/1", stamps, memberships)
	}
	if got := env.store.stampCount("C1", "M2"); got != 1 {
		t.Errorf("stamps at M2 = %d, want 1", got)
	}
	if got := env.store.membershipCount(); got != 1 {
		t.Errorf("memberships = %d, want 1", got)
	}

	// After disassociation the customer can join the merchant again.
	if _, err := env.engine.Join(ctx, "C1", "M1"); err != nil {
		t.Errorf("re-Join(M1) error = %v", err)
	}
}
