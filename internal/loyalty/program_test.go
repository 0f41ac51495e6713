package loyalty

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestParseThreshold(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "5", want: 5},
		{raw: " 12 ", want: 12},
		{raw: "1", want: 1},
		{raw: "0", wantErr: true},
		{raw: "-3", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "2.5", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseThreshold(tt.raw)
		if tt.wantErr {
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != "threshold" {
				t.Errorf("ParseThreshold(%q) error = %v, want threshold ValidationError", tt.raw, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseThreshold(%q) = %d, %v, want %d", tt.raw, got, err, tt.want)
		}
	}
}

func TestParseExpiry(t *testing.T) {
	day := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		raw     string
		want    *time.Time
		wantErr bool
	}{
		{raw: "", want: nil},
		{raw: "   ", want: nil},
		{raw: "2026-12-31", want: &day},
		{raw: "2026-12-31T09:00:00+09:00", want: &day},
		{raw: "31/12/2026", wantErr: true},
		{raw: "soon", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseExpiry(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseExpiry(%q) expected error", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseExpiry(%q) error = %v", tt.raw, err)
			continue
		}
		if (got == nil) != (tt.want == nil) || (got != nil && !got.Equal(*tt.want)) {
			t.Errorf("ParseExpiry(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestCreateProgram(t *testing.T) {
	env := newTestEnv(t)
	env.merchant(t, "M1")

	p, err := env.engine.CreateProgram(context.Background(), "M1", ProgramInput{
		RewardName: " Free Coffee ",
		Threshold:  "5",
		ExpiryDate: "2026-12-31",
	})
	if err != nil {
		t.Fatalf("CreateProgram() error = %v", err)
	}
	if p.RewardName != "Free Coffee" || p.Threshold != 5 || p.ExpiryDate == nil {
		t.Errorf("program = %+v", p)
	}
	if p.QRCodePayload == nil || *p.QRCodePayload != "https://app.example.com/join/"+p.ID {
		t.Errorf("qr payload = %v", p.QRCodePayload)
	}
	if _, ok := env.store.data.programs[p.ID]; !ok {
		t.Errorf("program %s not stored", p.ID)
	}
}

func TestCreateProgramRejects(t *testing.T) {
	tests := []struct {
		name       string
		merchantID string
		in         ProgramInput
		wantField  string
		wantErr    error
	}{
		{
			name:       "non-numeric threshold",
			merchantID: "M1",
			in:         ProgramInput{RewardName: "Tea", Threshold: "ten"},
			wantField:  "threshold",
		},
		{
			name:       "zero threshold",
			merchantID: "M1",
			in:         ProgramInput{RewardName: "Tea", Threshold: "0"},
			wantField:  "threshold",
		},
		{
			name:       "bad expiry",
			merchantID: "M1",
			in:         ProgramInput{RewardName: "Tea", Threshold: "3", ExpiryDate: "tomorrow"},
			wantField:  "expiryDate",
		},
		{
			name:       "missing reward",
			merchantID: "M1",
			in:         ProgramInput{Threshold: "3"},
			wantField:  "rewardName",
		},
		{
			name:       "unknown merchant",
			merchantID: "M404",
			in:         ProgramInput{RewardName: "Tea", Threshold: "3"},
			wantErr:    ErrMerchantNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.merchant(t, "M1")

			_, err := env.engine.CreateProgram(context.Background(), tt.merchantID, tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("CreateProgram() error = %v, want %v", err, tt.wantErr)
				}
			} else {
				var verr *ValidationError
				if !errors.As(err, &verr) || verr.Field != tt.wantField {
					t.Fatalf("CreateProgram() error = %v, want ValidationError on %s", err, tt.wantField)
				}
			}
			if len(env.store.data.programs) != 0 {
				t.Errorf("program stored despite error")
			}
		})
	}
}

func TestUpdateProgram(t *testing.T) {
	env := newTestEnv(t)
	env.merchant(t, "M1")
	env.merchant(t, "M2")
	env.program(t, "P1", "M1", 5, "Free Coffee")
	expiry := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	p := env.store.data.programs["P1"]
	p.ExpiryDate = &expiry
	env.store.data.programs["P1"] = p
	ctx := context.Background()

	threshold, clear := "8", ""
	got, err := env.engine.UpdateProgram(ctx, "M1", "P1", ProgramUpdate{Threshold: &threshold, ExpiryDate: &clear})
	if err != nil {
		t.Fatalf("UpdateProgram() error = %v", err)
	}
	if got.Threshold != 8 || got.ExpiryDate != nil || got.RewardName != "Free Coffee" {
		t.Errorf("program = %+v", got)
	}

	bad := "-1"
	if _, err := env.engine.UpdateProgram(ctx, "M1", "P1", ProgramUpdate{Threshold: &bad}); err == nil {
		t.Errorf("UpdateProgram() accepted threshold %q", bad)
	}
	if env.store.data.programs["P1"].Threshold != 8 {
		t.Errorf("rejected update was persisted")
	}

	name := "Free Tea"
	if _, err := env.engine.UpdateProgram(ctx, "M2", "P1", ProgramUpdate{RewardName: &name}); !errors.Is(err, ErrProgramNotFound) {
		t.Errorf("UpdateProgram() by another merchant error = %v, want %v", err, ErrProgramNotFound)
	}
}

func TestDeleteProgramCascades(t *testing.T) {
	env := newTestEnv(t)
	env.merchant(t, "M1")
	env.customer(t, "C1")
	env.customer(t, "C2")
	env.program(t, "P1", "M1", 5, "Free Coffee")
	env.program(t, "P2", "M1", 5, "Free Muffin")
	ctx := context.Background()

	if _, err := env.engine.Join(ctx, "C1", "P1"); err != nil {
		t.Fatalf("Join(P1) error = %v", err)
	}
	if _, err := env.engine.Join(ctx, "C2", "P2"); err != nil {
		t.Fatalf("Join(P2) error = %v", err)
	}
	env.stamps(t, "C1", "M1", "", 3)
	env.stamps(t, "C1", "M1", "P1", 2)

	if err := env.engine.DeleteProgram(ctx, "M2", "P1"); !errors.Is(err, ErrProgramNotFound) {
		t.Fatalf("DeleteProgram() by another merchant error = %v, want %v", err, ErrProgramNotFound)
	}
	if err := env.engine.DeleteProgram(ctx, "M1", "P1"); err != nil {
		t.Fatalf("DeleteProgram() error = %v", err)
	}

	if _, ok := env.store.data.programs["P1"]; ok {
		t.Errorf("program P1 still present")
	}
	if got := env.store.membershipCount(); got != 1 {
		t.Errorf("memberships = %d, want only C2's", got)
	}
	if got := env.store.stampCount("C1", "M1"); got != 4 {
		t.Errorf("C1 stamps = %d, want the enrollment stamp and 3 merchant-wide stamps", got)
	}
	if got := env.store.stampCount("C2", "M1"); got != 1 {
		t.Errorf("C2 stamps = %d, want 1", got)
	}
}

func TestListPrograms(t *testing.T) {
	env := newTestEnv(t)
	env.merchant(t, "M1")
	ctx := context.Background()

	for _, reward := range []string{"Coffee", "Bagel"} {
		if _, err := env.engine.CreateProgram(ctx, "M1", ProgramInput{RewardName: reward, Threshold: "3"}); err != nil {
			t.Fatalf("CreateProgram(%s) error = %v", reward, err)
		}
	}

	programs, err := env.engine.ListPrograms(ctx, "M1")
	if err != nil {
		t.Fatalf("ListPrograms() error = %v", err)
	}
	if len(programs) != 2 || programs[0].RewardName != "Coffee" || programs[1].RewardName != "Bagel" {
		t.Errorf("programs = %+v", programs)
	}

	if _, err := env.engine.ListPrograms(ctx, "M404"); !errors.Is(err, ErrMerchantNotFound) {
		t.Errorf("ListPrograms(M404) error = %v, want %v", err, ErrMerchantNotFound)
	}
}

func TestJoinLink(t *testing.T) {
	tests := []struct {
		base, id, want string
	}{
		{"https://app.example.com", "P1", "https://app.example.com/join/P1"},
		{"https://app.example.com///", "P1", "https://app.example.com/join/P1"},
		{"http://localhost:3000", "prog 7", "http://localhost:3000/join/prog%207"},
		{"", "M1", "/join/M1"},
	}
	for _, tt := range tests {
		if got := JoinLink(tt.base, tt.id); got != tt.want {
			t.Errorf("JoinLink(%q, %q) = %q, want %q", tt.base, tt.id, got, tt.want)
		}
	}
}
