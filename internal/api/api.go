// Package api defines the wire contract of punchcard.v1.LoyaltyService:
// procedure paths, request and response messages, and the JSON codec both
// the server and its clients use.
package api

import (
	"github.com/kkkkikiki/punchcard/internal/model"
)

// ServiceName is the fully-qualified connect service name
const ServiceName = "punchcard.v1.LoyaltyService"

// Procedure paths
const (
	CreateMerchantProcedure         = "/" + ServiceName + "/CreateMerchant"
	UpdateMerchantBrandingProcedure = "/" + ServiceName + "/UpdateMerchantBranding"
	RegisterCustomerProcedure       = "/" + ServiceName + "/RegisterCustomer"
	CreateProgramProcedure          = "/" + ServiceName + "/CreateProgram"
	UpdateProgramProcedure          = "/" + ServiceName + "/UpdateProgram"
	DeleteProgramProcedure          = "/" + ServiceName + "/DeleteProgram"
	ListProgramsProcedure           = "/" + ServiceName + "/ListPrograms"
	IssueStampProcedure             = "/" + ServiceName + "/IssueStamp"
	JoinProcedure                   = "/" + ServiceName + "/Join"
	RedeemProcedure                 = "/" + ServiceName + "/Redeem"
	GetProgressProcedure            = "/" + ServiceName + "/GetProgress"
	DisassociateCustomerProcedure   = "/" + ServiceName + "/DisassociateCustomer"
)

// Merchant is the public view of a merchant
type Merchant struct {
	ID               string    `json:"id"`
	DisplayName      string    `json:"displayName"`
	Email            string    `json:"email"`
	BusinessType     string    `json:"businessType"`
	Location         string    `json:"location"`
	ContactInfo      string    `json:"contactInfo"`
	BrandingLogoPath *string   `json:"brandingLogoPath,omitempty"`
	BrandingTheme    *string   `json:"brandingTheme,omitempty"`
	SubscriptionPlan string    `json:"subscriptionPlan"`
	JoinLinkPath     string    `json:"joinLinkPath"`
	CreatedAt        Timestamp `json:"createdAt"`
}

// NewMerchant converts a stored merchant, dropping the password hash
func NewMerchant(m *model.Merchant) *Merchant {
	return &Merchant{
		ID:               m.ID,
		DisplayName:      m.DisplayName,
		Email:            m.Email,
		BusinessType:     m.BusinessType,
		Location:         m.Location,
		ContactInfo:      m.ContactInfo,
		BrandingLogoPath: m.BrandingLogoPath,
		BrandingTheme:    m.BrandingTheme,
		SubscriptionPlan: m.SubscriptionPlan,
		JoinLinkPath:     m.JoinLinkPath(),
		CreatedAt:        NewTimestamp(m.CreatedAt),
	}
}

// Customer is the public view of a customer
type Customer struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt Timestamp `json:"createdAt"`
}

// NewCustomer converts a stored customer, dropping the password hash
func NewCustomer(c *model.Customer) *Customer {
	return &Customer{ID: c.ID, Email: c.Email, CreatedAt: NewTimestamp(c.CreatedAt)}
}

// Program is the wire form of a loyalty program
type Program struct {
	ID            string     `json:"id"`
	MerchantID    string     `json:"merchantId"`
	RewardName    string     `json:"rewardName"`
	Threshold     int        `json:"threshold"`
	ExpiryDate    *Timestamp `json:"expiryDate,omitempty"`
	QRCodePayload *string    `json:"qrCodePayload,omitempty"`
	CreatedAt     Timestamp  `json:"createdAt"`
	UpdatedAt     Timestamp  `json:"updatedAt"`
}

// NewProgram converts a stored program
func NewProgram(p *model.LoyaltyProgram) *Program {
	out := &Program{
		ID:            p.ID,
		MerchantID:    p.MerchantID,
		RewardName:    p.RewardName,
		Threshold:     p.Threshold,
		QRCodePayload: p.QRCodePayload,
		CreatedAt:     NewTimestamp(p.CreatedAt),
		UpdatedAt:     NewTimestamp(p.UpdatedAt),
	}
	if p.ExpiryDate != nil {
		expiry := NewTimestamp(*p.ExpiryDate)
		out.ExpiryDate = &expiry
	}
	return out
}

// NewPrograms converts a list of stored programs
func NewPrograms(ps []model.LoyaltyProgram) []*Program {
	out := make([]*Program, len(ps))
	for i := range ps {
		out[i] = NewProgram(&ps[i])
	}
	return out
}

// Stamp is the wire form of a stamp
type Stamp struct {
	ID               string    `json:"id"`
	MerchantID       string    `json:"merchantId"`
	CustomerID       string    `json:"customerId"`
	LoyaltyProgramID string    `json:"loyaltyProgramId,omitempty"`
	CreatedAt        Timestamp `json:"createdAt"`
}

// NewStamp converts a stored stamp; merchant-wide stamps have no program id
func NewStamp(st *model.Stamp) *Stamp {
	out := &Stamp{
		ID:         st.ID,
		MerchantID: st.MerchantID,
		CustomerID: st.CustomerID,
		CreatedAt:  NewTimestamp(st.CreatedAt),
	}
	if st.LoyaltyProgramID != nil {
		out.LoyaltyProgramID = *st.LoyaltyProgramID
	}
	return out
}

type CreateMerchantRequest struct {
	DisplayName      string `json:"displayName"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	BusinessType     string `json:"businessType"`
	Location         string `json:"location"`
	ContactInfo      string `json:"contactInfo"`
	SubscriptionPlan string `json:"subscriptionPlan"`
}

type CreateMerchantResponse struct {
	Merchant *Merchant `json:"merchant"`
}

type UpdateMerchantBrandingRequest struct {
	MerchantID string  `json:"merchantId"`
	LogoPath   *string `json:"logoPath,omitempty"`
	Theme      *string `json:"theme,omitempty"`
}

type UpdateMerchantBrandingResponse struct {
	Merchant *Merchant `json:"merchant"`
}

type RegisterCustomerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterCustomerResponse struct {
	Customer *Customer `json:"customer"`
}

// CreateProgramRequest carries threshold and expiry as strings; they are
// validated server side.
type CreateProgramRequest struct {
	MerchantID string `json:"merchantId"`
	RewardName string `json:"rewardName"`
	Threshold  string `json:"threshold"`
	ExpiryDate string `json:"expiryDate,omitempty"`
}

type CreateProgramResponse struct {
	Program *Program `json:"program"`
}

// UpdateProgramRequest leaves omitted fields untouched; expiryDate "" clears it
type UpdateProgramRequest struct {
	MerchantID       string  `json:"merchantId"`
	LoyaltyProgramID string  `json:"loyaltyProgramId"`
	RewardName       *string `json:"rewardName,omitempty"`
	Threshold        *string `json:"threshold,omitempty"`
	ExpiryDate       *string `json:"expiryDate,omitempty"`
}

type UpdateProgramResponse struct {
	Program *Program `json:"program"`
}

type DeleteProgramRequest struct {
	MerchantID       string `json:"merchantId"`
	LoyaltyProgramID string `json:"loyaltyProgramId"`
}

type DeleteProgramResponse struct{}

type ListProgramsRequest struct {
	MerchantID string `json:"merchantId"`
}

type ListProgramsResponse struct {
	Programs []*Program `json:"programs"`
}

type IssueStampRequest struct {
	MerchantID       string `json:"merchantId"`
	CustomerID       string `json:"customerId"`
	LoyaltyProgramID string `json:"loyaltyProgramId,omitempty"`
}

type IssueStampResponse struct {
	Stamp *Stamp `json:"stamp"`
}

type JoinRequest struct {
	CustomerID        string `json:"customerId"`
	ProgramIdentifier string `json:"programIdentifier"`
}

type JoinResponse struct {
	Stamp            *Stamp `json:"stamp"`
	LoyaltyProgramID string `json:"loyaltyProgramId,omitempty"`
}

type RedeemRequest struct {
	CustomerID       string `json:"customerId"`
	LoyaltyProgramID string `json:"loyaltyProgramId"`
}

type RedeemResponse struct {
	Message        string    `json:"message"`
	RedemptionID   string    `json:"redemptionId"`
	StampsConsumed int       `json:"stampsConsumed"`
	RedeemedAt     Timestamp `json:"redeemedAt"`
}

type GetProgressRequest struct {
	CustomerID       string `json:"customerId"`
	LoyaltyProgramID string `json:"loyaltyProgramId"`
}

type GetProgressResponse struct {
	Stamps    int  `json:"stamps"`
	Threshold int  `json:"threshold"`
	Remaining int  `json:"remaining"`
	Joined    bool `json:"joined"`
}

type DisassociateCustomerRequest struct {
	MerchantID string `json:"merchantId"`
	CustomerID string `json:"customerId"`
}

type DisassociateCustomerResponse struct {
	StampsDeleted      int64 `json:"stampsDeleted"`
	MembershipsDeleted int64 `json:"membershipsDeleted"`
}
