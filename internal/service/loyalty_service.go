package service

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/kkkkikiki/punchcard/internal/api"
	"github.com/kkkkikiki/punchcard/internal/loyalty"
	"github.com/kkkkikiki/punchcard/internal/model"
)

// Engine is the part of *loyalty.Engine the server calls
type Engine interface {
	CreateMerchant(ctx context.Context, in loyalty.MerchantInput) (*model.Merchant, error)
	UpdateMerchantBranding(ctx context.Context, merchantID string, logoPath, theme *string) (*model.Merchant, error)
	RegisterCustomer(ctx context.Context, email, password string) (*model.Customer, error)
	CreateProgram(ctx context.Context, merchantID string, in loyalty.ProgramInput) (*model.LoyaltyProgram, error)
	UpdateProgram(ctx context.Context, merchantID, programID string, upd loyalty.ProgramUpdate) (*model.LoyaltyProgram, error)
	DeleteProgram(ctx context.Context, merchantID, programID string) error
	ListPrograms(ctx context.Context, merchantID string) ([]model.LoyaltyProgram, error)
	IssueStamp(ctx context.Context, merchantID, customerID, programID string) (*model.Stamp, error)
	Join(ctx context.Context, customerID, identifier string) (*loyalty.JoinResult, error)
	Redeem(ctx context.Context, customerID, programID string) (*loyalty.RedeemResult, error)
	GetProgress(ctx context.Context, customerID, programID string) (*loyalty.Progress, error)
	DisassociateCustomer(ctx context.Context, merchantID, customerID string) (int64, int64, error)
}

var _ Engine = (*loyalty.Engine)(nil)

// LoyaltyServer implements punchcard.v1.LoyaltyService on top of the engine
type LoyaltyServer struct {
	engine Engine
}

// NewLoyaltyServer creates a new LoyaltyServer instance
func NewLoyaltyServer(engine Engine) *LoyaltyServer {
	return &LoyaltyServer{engine: engine}
}

// Register mounts every procedure on mux. The JSON codec is always installed.
func (s *LoyaltyServer) Register(mux *http.ServeMux, opts ...connect.HandlerOption) {
	opts = append([]connect.HandlerOption{connect.WithCodec(api.JSONCodec{})}, opts...)

	mux.Handle(api.CreateMerchantProcedure, connect.NewUnaryHandler(api.CreateMerchantProcedure, s.CreateMerchant, opts...))
	mux.Handle(api.UpdateMerchantBrandingProcedure, connect.NewUnaryHandler(api.UpdateMerchantBrandingProcedure, s.UpdateMerchantBranding, opts...))
	mux.Handle(api.RegisterCustomerProcedure, connect.NewUnaryHandler(api.RegisterCustomerProcedure, s.RegisterCustomer, opts...))
	mux.Handle(api.CreateProgramProcedure, connect.NewUnaryHandler(api.CreateProgramProcedure, s.CreateProgram, opts...))
	mux.Handle(api.UpdateProgramProcedure, connect.NewUnaryHandler(api.UpdateProgramProcedure, s.UpdateProgram, opts...))
	mux.Handle(api.DeleteProgramProcedure, connect.NewUnaryHandler(api.DeleteProgramProcedure, s.DeleteProgram, opts...))
	mux.Handle(api.ListProgramsProcedure, connect.NewUnaryHandler(api.ListProgramsProcedure, s.ListPrograms, opts...))
	mux.Handle(api.IssueStampProcedure, connect.NewUnaryHandler(api.IssueStampProcedure, s.IssueStamp, opts...))
	mux.Handle(api.JoinProcedure, connect.NewUnaryHandler(api.JoinProcedure, s.Join, opts...))
	mux.Handle(api.RedeemProcedure, connect.NewUnaryHandler(api.RedeemProcedure, s.Redeem, opts...))
	mux.Handle(api.GetProgressProcedure, connect.NewUnaryHandler(api.GetProgressProcedure, s.GetProgress, opts...))
	mux.Handle(api.DisassociateCustomerProcedure, connect.NewUnaryHandler(api.DisassociateCustomerProcedure, s.DisassociateCustomer, opts...))
}

// CreateMerchant signs up a merchant
func (s *LoyaltyServer) CreateMerchant(
	ctx context.Context,
	req *connect.Request[api.CreateMerchantRequest],
) (*connect.Response[api.CreateMerchantResponse], error) {
	merchant, err := s.engine.CreateMerchant(ctx, loyalty.MerchantInput{
		DisplayName:      req.Msg.DisplayName,
		Email:            req.Msg.Email,
		Password:         req.Msg.Password,
		BusinessType:     req.Msg.BusinessType,
		Location:         req.Msg.Location,
		ContactInfo:      req.Msg.ContactInfo,
		SubscriptionPlan: req.Msg.SubscriptionPlan,
	})
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&api.CreateMerchantResponse{Merchant: api.NewMerchant(merchant)}), nil
}

// UpdateMerchantBranding sets or clears the merchant's logo and theme
func (s *LoyaltyServer) UpdateMerchantBranding(
	ctx context.Context,
	req *connect.Request[api.UpdateMerchantBrandingRequest],
) (*connect.Response[api.UpdateMerchantBrandingResponse], error) {
	merchant, err := s.engine.UpdateMerchantBranding(ctx, req.Msg.MerchantID, req.Msg.LogoPath, req.Msg.Theme)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&api.UpdateMerchantBrandingResponse{Merchant: api.NewMerchant(merchant)}), nil
}

// RegisterCustomer creates a customer account
func (s *LoyaltyServer) RegisterCustomer(
	ctx context.Context,
	req *connect.Request[api.RegisterCustomerRequest],
) (*connect.Response[api.RegisterCustomerResponse], error) {
	customer, err := s.engine.RegisterCustomer(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&api.RegisterCustomerResponse{Customer: api.NewCustomer(customer)}), nil
}

// CreateProgram defines a loyalty program for a merchant
func (s *LoyaltyServer) CreateProgram(
	ctx context.Context,
	req *connect.Request[api.CreateProgramRequest],
) (*connect.Response[api.CreateProgramResponse], error) {
	program, err := s.engine.CreateProgram(ctx, req.Msg.MerchantID, loyalty.ProgramInput{
		RewardName: req.Msg.RewardName,
		Threshold:  req.Msg.Threshold,
		ExpiryDate: req.Msg.ExpiryDate,
	})
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&api.CreateProgramResponse{Program: api.NewProgram(program)}), nil
}

// UpdateProgram edits a program's reward, threshold or expiry
func (s *LoyaltyServer) UpdateProgram(
	ctx context.Context,
	req *connect.Request[api.UpdateProgramRequest],
) (*connect.Response[api.UpdateProgramResponse], error) {
	program, err := s.engine.UpdateProgram(ctx, req.Msg.MerchantID, req.Msg.LoyaltyProgramID, loyalty.ProgramUpdate{
		RewardName: req.Msg.RewardName,
		Threshold:  req.Msg.Threshold,
		ExpiryDate: req.Msg.ExpiryDate,
	})
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&api.UpdateProgramResponse{Program: api.NewProgram(program)}), nil
}

// DeleteProgram removes a program with its memberships and tagged stamps
func (s *LoyaltyServer) DeleteProgram(
	ctx context.Context,
	req *connect.Request[api.DeleteProgramRequest],
) (*connect.Response[api.DeleteProgramResponse], error) {
	if err := s.engine.DeleteProgram(ctx, req.Msg.MerchantID, req.Msg.LoyaltyProgramID); err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&api.DeleteProgramResponse{}), nil
}

// ListPrograms lists a merchant's programs
func (s *LoyaltyServer) ListPrograms(
	ctx context.Context,
	req *connect.Request[api.ListProgramsRequest],
) (*connect.Response[api.ListProgramsResponse], error) {
	programs, err := s.engine.ListPrograms(ctx, req.Msg.MerchantID)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&api.ListProgramsResponse{Programs: api.NewPrograms(programs)}), nil
}

// IssueStamp grants the customer one stamp at the merchant
func (s *LoyaltyServer) IssueStamp(
	ctx context.Context,
	req *connect.Request[api.IssueStampRequest],
) (*connect.Response[api.IssueStampResponse], error) {
	stamp, err := s.engine.IssueStamp(ctx, req.Msg.MerchantID, req.Msg.CustomerID, req.Msg.LoyaltyProgramID)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&api.IssueStampResponse{Stamp: api.NewStamp(stamp)}), nil
}

// Join enrolls the customer through a scanned or pasted program identifier
func (s *LoyaltyServer) Join(
	ctx context.Context,
	req *connect.Request[api.JoinRequest],
) (*connect.Response[api.JoinResponse], error) {
	res, err := s.engine.Join(ctx, req.Msg.CustomerID, req.Msg.ProgramIdentifier)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&api.JoinResponse{
		Stamp:            api.NewStamp(res.Stamp),
		LoyaltyProgramID: res.LoyaltyProgramID,
	}), nil
}

// Redeem exchanges threshold stamps for the program's reward
func (s *LoyaltyServer) Redeem(
	ctx context.Context,
	req *connect.Request[api.RedeemRequest],
) (*connect.Response[api.RedeemResponse], error) {
	res, err := s.engine.Redeem(ctx, req.Msg.CustomerID, req.Msg.LoyaltyProgramID)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&api.RedeemResponse{
		Message:        res.Message,
		RedemptionID:   res.Redemption.ID,
		StampsConsumed: res.Redemption.StampsConsumed,
		RedeemedAt:     api.NewTimestamp(res.Redemption.CreatedAt),
	}), nil
}

// GetProgress reports the customer's stamp balance toward a program
func (s *LoyaltyServer) GetProgress(
	ctx context.Context,
	req *connect.Request[api.GetProgressRequest],
) (*connect.Response[api.GetProgressResponse], error) {
	p, err := s.engine.GetProgress(ctx, req.Msg.CustomerID, req.Msg.LoyaltyProgramID)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&api.GetProgressResponse{
		Stamps:    p.Stamps,
		Threshold: p.Threshold,
		Remaining: p.Remaining,
		Joined:    p.Joined,
	}), nil
}

// DisassociateCustomer drops every stamp and membership the customer holds
// with the merchant
func (s *LoyaltyServer) DisassociateCustomer(
	ctx context.Context,
	req *connect.Request[api.DisassociateCustomerRequest],
) (*connect.Response[api.DisassociateCustomerResponse], error) {
	stamps, memberships, err := s.engine.DisassociateCustomer(ctx, req.Msg.MerchantID, req.Msg.CustomerID)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&api.DisassociateCustomerResponse{
		StampsDeleted:      stamps,
		MembershipsDeleted: memberships,
	}), nil
}
