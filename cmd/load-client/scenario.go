package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kkkkikiki/punchcard/internal/api"
)

type clients struct {
	createMerchant   *connect.Client[api.CreateMerchantRequest, api.CreateMerchantResponse]
	createProgram    *connect.Client[api.CreateProgramRequest, api.CreateProgramResponse]
	registerCustomer *connect.Client[api.RegisterCustomerRequest, api.RegisterCustomerResponse]
	join             *connect.Client[api.JoinRequest, api.JoinResponse]
	issueStamp       *connect.Client[api.IssueStampRequest, api.IssueStampResponse]
	redeem           *connect.Client[api.RedeemRequest, api.RedeemResponse]
	getProgress      *connect.Client[api.GetProgressRequest, api.GetProgressResponse]
}

func newClients(httpClient *http.Client, base string) *clients {
	opts := []connect.ClientOption{connect.WithCodec(api.JSONCodec{})}
	return &clients{
		createMerchant:   connect.NewClient[api.CreateMerchantRequest, api.CreateMerchantResponse](httpClient, base+api.CreateMerchantProcedure, opts...),
		createProgram:    connect.NewClient[api.CreateProgramRequest, api.CreateProgramResponse](httpClient, base+api.CreateProgramProcedure, opts...),
		registerCustomer: connect.NewClient[api.RegisterCustomerRequest, api.RegisterCustomerResponse](httpClient, base+api.RegisterCustomerProcedure, opts...),
		join:             connect.NewClient[api.JoinRequest, api.JoinResponse](httpClient, base+api.JoinProcedure, opts...),
		issueStamp:       connect.NewClient[api.IssueStampRequest, api.IssueStampResponse](httpClient, base+api.IssueStampProcedure, opts...),
		redeem:           connect.NewClient[api.RedeemRequest, api.RedeemResponse](httpClient, base+api.RedeemProcedure, opts...),
		getProgress:      connect.NewClient[api.GetProgressRequest, api.GetProgressResponse](httpClient, base+api.GetProgressProcedure, opts...),
	}
}

type fixture struct {
	merchantID string
	programID  string
	joinLink   string
	threshold  int
	runID      string
}

// createFixture signs up a fresh merchant with one program
func createFixture(ctx context.Context, c *clients, threshold int) (*fixture, error) {
	runID := uuid.NewString()[:8]

	m, err := c.createMerchant.CallUnary(ctx, connect.NewRequest(&api.CreateMerchantRequest{
		DisplayName:  "Load Test " + runID,
		Email:        "load-" + runID + "@punchcard.test",
		Password:     "load-test-" + runID,
		BusinessType: "cafe",
	}))
	if err != nil {
		return nil, fmt.Errorf("create merchant failed: %w", err)
	}

	p, err := c.createProgram.CallUnary(ctx, connect.NewRequest(&api.CreateProgramRequest{
		MerchantID: m.Msg.Merchant.ID,
		RewardName: "Free Coffee",
		Threshold:  strconv.Itoa(threshold),
	}))
	if err != nil {
		return nil, fmt.Errorf("create program failed: %w", err)
	}

	link := p.Msg.Program.ID
	if p.Msg.Program.QRCodePayload != nil {
		link = *p.Msg.Program.QRCodePayload
	}
	return &fixture{
		merchantID: m.Msg.Merchant.ID,
		programID:  p.Msg.Program.ID,
		joinLink:   link,
		threshold:  threshold,
		runID:      runID,
	}, nil
}

// enroll registers a customer, joins through the QR link and tops the
// balance up to stamps
func enroll(ctx context.Context, c *clients, fx *fixture, n int64, stamps int) (string, error) {
	cust, err := c.registerCustomer.CallUnary(ctx, connect.NewRequest(&api.RegisterCustomerRequest{
		Email:    fmt.Sprintf("customer-%s-%d@punchcard.test", fx.runID, n),
		Password: "load-test-password",
	}))
	if err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	customerID := cust.Msg.Customer.ID

	if _, err := c.join.CallUnary(ctx, connect.NewRequest(&api.JoinRequest{
		CustomerID:        customerID,
		ProgramIdentifier: fx.joinLink,
	})); err != nil {
		return "", fmt.Errorf("join: %w", err)
	}

	// join grants the first stamp
	for i := 1; i < stamps; i++ {
		if _, err := c.issueStamp.CallUnary(ctx, connect.NewRequest(&api.IssueStampRequest{
			MerchantID:       fx.merchantID,
			CustomerID:       customerID,
			LoyaltyProgramID: fx.programID,
		})); err != nil {
			return "", fmt.Errorf("issue stamp: %w", err)
		}
	}
	return customerID, nil
}

// doJourney runs register, join, stamp up to threshold and redeem, then
// checks the balance is back to zero.
func doJourney(c *clients, fx *fixture, n int64, result *PerfResult, latencyChan chan<- time.Duration) {
	// Use independent context to avoid cancellation when test ends
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	start := time.Now()
	atomic.AddInt64(&result.TotalJourneys, 1)

	err := func() error {
		customerID, err := enroll(ctx, c, fx, n, fx.threshold)
		if err != nil {
			return err
		}
		if _, err := c.redeem.CallUnary(ctx, connect.NewRequest(&api.RedeemRequest{
			CustomerID:       customerID,
			LoyaltyProgramID: fx.programID,
		})); err != nil {
			return fmt.Errorf("redeem: %w", err)
		}
		progress, err := c.getProgress.CallUnary(ctx, connect.NewRequest(&api.GetProgressRequest{
			CustomerID:       customerID,
			LoyaltyProgramID: fx.programID,
		}))
		if err != nil {
			return fmt.Errorf("progress: %w", err)
		}
		if progress.Msg.Stamps != 0 {
			return fmt.Errorf("balance after redeem = %d, want 0", progress.Msg.Stamps)
		}
		return nil
	}()
	latency := time.Since(start)

	if err != nil {
		atomic.AddInt64(&result.ErrorCount, 1)
		return
	}
	atomic.AddInt64(&result.SuccessCount, 1)
	atomic.AddInt64(&result.LatencySum, latency.Nanoseconds())
	select {
	case latencyChan <- latency:
	default:
	}
}

// verifyRedeemOnce gives one customer exactly threshold stamps and fires
// racers concurrent redemptions. Exactly one may succeed; the rest must fail
// with FailedPrecondition.
func verifyRedeemOnce(ctx context.Context, c *clients, fx *fixture, racers int) error {
	customerID, err := enroll(ctx, c, fx, -1, fx.threshold)
	if err != nil {
		return err
	}

	var granted, refused atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < racers; i++ {
		g.Go(func() error {
			_, err := c.redeem.CallUnary(gctx, connect.NewRequest(&api.RedeemRequest{
				CustomerID:       customerID,
				LoyaltyProgramID: fx.programID,
			}))
			switch {
			case err == nil:
				granted.Add(1)
			case connect.CodeOf(err) == connect.CodeFailedPrecondition:
				refused.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("unexpected redeem error: %w", err)
	}

	fmt.Printf("Racers           : %d\n", racers)
	fmt.Printf("Granted          : %d\n", granted.Load())
	fmt.Printf("Refused          : %d\n", refused.Load())

	if granted.Load() != 1 {
		return errors.New("reward must be granted exactly once")
	}
	return nil
}
