// Package seed loads demo merchants, programs and customers from a YAML
// fixture and applies them through the loyalty engine.
package seed

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/kkkkikiki/punchcard/internal/loyalty"
	"github.com/kkkkikiki/punchcard/internal/model"
)

// Program is a loyalty program fixture
type Program struct {
	RewardName string `yaml:"reward_name"`
	Threshold  string `yaml:"threshold"`
	ExpiryDate string `yaml:"expiry_date"`
}

// Merchant is a merchant fixture with its programs
type Merchant struct {
	DisplayName  string    `yaml:"display_name"`
	Email        string    `yaml:"email"`
	Password     string    `yaml:"password"`
	BusinessType string    `yaml:"business_type"`
	Location     string    `yaml:"location"`
	ContactInfo  string    `yaml:"contact_info"`
	Plan         string    `yaml:"plan"`
	Programs     []Program `yaml:"programs"`
}

// Join enrolls a customer with a merchant, or with one of its programs when
// Program names a reward. Stamps extra stamps are issued afterwards.
type Join struct {
	Merchant string `yaml:"merchant"`
	Program  string `yaml:"program"`
	Stamps   int    `yaml:"stamps"`
}

// Customer is a customer fixture
type Customer struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Joins    []Join `yaml:"joins"`
}

// Fixture is a parsed seed file
type Fixture struct {
	Merchants []Merchant `yaml:"merchants"`
	Customers []Customer `yaml:"customers"`
}

// Engine is the part of the loyalty engine seeding needs
type Engine interface {
	CreateMerchant(ctx context.Context, in loyalty.MerchantInput) (*model.Merchant, error)
	CreateProgram(ctx context.Context, merchantID string, in loyalty.ProgramInput) (*model.LoyaltyProgram, error)
	RegisterCustomer(ctx context.Context, email, password string) (*model.Customer, error)
	Join(ctx context.Context, customerID, identifier string) (*loyalty.JoinResult, error)
	IssueStamp(ctx context.Context, merchantID, customerID, programID string) (*model.Stamp, error)
}

// Report counts what Apply created
type Report struct {
	Merchants int
	Programs  int
	Customers int
	Joins     int
	Stamps    int
}

// Load parses and checks a fixture
func Load(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing seed fixture: %w", err)
	}

	merchants := make(map[string]map[string]bool, len(f.Merchants))
	for i, m := range f.Merchants {
		key := strings.ToLower(strings.TrimSpace(m.Email))
		if key == "" {
			return nil, fmt.Errorf("merchant %d: email is required", i)
		}
		if _, dup := merchants[key]; dup {
			return nil, fmt.Errorf("merchant %q: listed twice", m.Email)
		}
		rewards := make(map[string]bool, len(m.Programs))
		for _, p := range m.Programs {
			rewards[p.RewardName] = true
		}
		merchants[key] = rewards
	}

	for _, c := range f.Customers {
		for _, j := range c.Joins {
			rewards, ok := merchants[strings.ToLower(strings.TrimSpace(j.Merchant))]
			if !ok {
				return nil, fmt.Errorf("customer %q: unknown merchant %q", c.Email, j.Merchant)
			}
			if j.Program != "" && !rewards[j.Program] {
				return nil, fmt.Errorf("customer %q: merchant %q has no program %q", c.Email, j.Merchant, j.Program)
			}
			if j.Stamps < 0 {
				return nil, fmt.Errorf("customer %q: negative stamp count", c.Email)
			}
		}
	}
	return &f, nil
}

type seededMerchant struct {
	merchant *model.Merchant
	programs map[string]*model.LoyaltyProgram
}

// Apply creates every fixture entry through engine. Joins go through the
// same identifier resolution a scanned QR code would: program joins use the
// program's QR payload and merchant joins use the merchant's join link path.
func (f *Fixture) Apply(ctx context.Context, engine Engine) (*Report, error) {
	log := zerolog.Ctx(ctx)
	report := &Report{}
	byEmail := make(map[string]*seededMerchant, len(f.Merchants))

	for _, m := range f.Merchants {
		merchant, err := engine.CreateMerchant(ctx, loyalty.MerchantInput{
			DisplayName:      m.DisplayName,
			Email:            m.Email,
			Password:         m.Password,
			BusinessType:     m.BusinessType,
			Location:         m.Location,
			ContactInfo:      m.ContactInfo,
			SubscriptionPlan: m.Plan,
		})
		if err != nil {
			return report, fmt.Errorf("merchant %q: %w", m.Email, err)
		}
		report.Merchants++

		seeded := &seededMerchant{merchant: merchant, programs: make(map[string]*model.LoyaltyProgram)}
		for _, p := range m.Programs {
			program, err := engine.CreateProgram(ctx, merchant.ID, loyalty.ProgramInput{
				RewardName: p.RewardName,
				Threshold:  p.Threshold,
				ExpiryDate: p.ExpiryDate,
			})
			if err != nil {
				return report, fmt.Errorf("merchant %q program %q: %w", m.Email, p.RewardName, err)
			}
			seeded.programs[p.RewardName] = program
			report.Programs++
		}
		byEmail[strings.ToLower(strings.TrimSpace(m.Email))] = seeded
		log.Debug().Str("merchant_id", merchant.ID).Int("programs", len(m.Programs)).Msg("seeded merchant")
	}

	for _, c := range f.Customers {
		customer, err := engine.RegisterCustomer(ctx, c.Email, c.Password)
		if err != nil {
			return report, fmt.Errorf("customer %q: %w", c.Email, err)
		}
		report.Customers++

		for _, j := range c.Joins {
			seeded := byEmail[strings.ToLower(strings.TrimSpace(j.Merchant))]
			identifier := seeded.merchant.JoinLinkPath()
			programID := ""
			if j.Program != "" {
				program := seeded.programs[j.Program]
				programID = program.ID
				if program.QRCodePayload != nil {
					identifier = *program.QRCodePayload
				} else {
					identifier = program.ID
				}
			}

			if _, err := engine.Join(ctx, customer.ID, identifier); err != nil {
				return report, fmt.Errorf("customer %q joining %q: %w", c.Email, j.Merchant, err)
			}
			report.Joins++

			for n := 0; n < j.Stamps; n++ {
				if _, err := engine.IssueStamp(ctx, seeded.merchant.ID, customer.ID, programID); err != nil {
					return report, fmt.Errorf("customer %q stamp at %q: %w", c.Email, j.Merchant, err)
				}
				report.Stamps++
			}
		}
	}

	log.Info().
		Int("merchants", report.Merchants).
		Int("programs", report.Programs).
		Int("customers", report.Customers).
		Int("joins", report.Joins).
		Int("stamps", report.Stamps).
		Msg("seed applied")
	return report, nil
}
