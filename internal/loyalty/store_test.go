package loyalty

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/kkkkikiki/punchcard/internal/model"
	"github.com/kkkkikiki/punchcard/internal/repository"
)

// errStoreDown simulates an infrastructure failure
var errStoreDown = errors.New("store unavailable")

// memStore is an in-memory repository.Store. Atomic runs one transaction at a
// time and restores a snapshot when fn fails.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data memData

	// failOn makes the named method return errStoreDown
	failOn string
}

type memData struct {
	merchants   map[string]model.Merchant
	customers   map[string]model.Customer
	programs    map[string]model.LoyaltyProgram
	stamps      map[string]model.Stamp
	memberships map[[2]string]model.Membership
	redemptions []model.Redemption
}

var _ repository.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{data: memData{
		merchants:   map[string]model.Merchant{},
		customers:   map[string]model.Customer{},
		programs:    map[string]model.LoyaltyProgram{},
		stamps:      map[string]model.Stamp{},
		memberships: map[[2]string]model.Membership{},
	}}
}

func (d memData) clone() memData {
	c := memData{
		merchants:   make(map[string]model.Merchant, len(d.merchants)),
		customers:   make(map[string]model.Customer, len(d.customers)),
		programs:    make(map[string]model.LoyaltyProgram, len(d.programs)),
		stamps:      make(map[string]model.Stamp, len(d.stamps)),
		memberships: make(map[[2]string]model.Membership, len(d.memberships)),
		redemptions: append([]model.Redemption(nil), d.redemptions...),
	}
	for k, v := range d.merchants {
		c.merchants[k] = v
	}
	for k, v := range d.customers {
		c.customers[k] = v
	}
	for k, v := range d.programs {
		c.programs[k] = v
	}
	for k, v := range d.stamps {
		c.stamps[k] = v
	}
	for k, v := range d.memberships {
		c.memberships[k] = v
	}
	return c
}

func (s *memStore) Atomic(ctx context.Context, _ string, fn func(q repository.Queries) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) fail(method string) error {
	if s.failOn == method {
		return fmt.Errorf("%s: %w", method, errStoreDown)
	}
	return nil
}

func (s *memStore) CreateMerchant(_ context.Context, m *model.Merchant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.data.merchants {
		if existing.Email == m.Email {
			return model.ErrDuplicate
		}
	}
	s.data.merchants[m.ID] = *m
	return nil
}

func (s *memStore) GetMerchant(_ context.Context, id string) (*model.Merchant, error) {
	if err := s.fail("GetMerchant"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.data.merchants[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &m, nil
}

func (s *memStore) UpdateMerchantBranding(_ context.Context, m *model.Merchant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.merchants[m.ID]; !ok {
		return model.ErrNotFound
	}
	s.data.merchants[m.ID] = *m
	return nil
}

func (s *memStore) CreateCustomer(_ context.Context, c *model.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.data.customers {
		if existing.Email == c.Email {
			return model.ErrDuplicate
		}
	}
	s.data.customers[c.ID] = *c
	return nil
}

func (s *memStore) GetCustomer(_ context.Context, id string) (*model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data.customers[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &c, nil
}

func (s *memStore) CreateProgram(_ context.Context, p *model.LoyaltyProgram) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.programs[p.ID] = *p
	return nil
}

func (s *memStore) GetProgram(_ context.Context, id string) (*model.LoyaltyProgram, error) {
	if err := s.fail("GetProgram"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.programs[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &p, nil
}

func (s *memStore) UpdateProgram(_ context.Context, p *model.LoyaltyProgram) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.programs[p.ID]; !ok {
		return model.ErrNotFound
	}
	s.data.programs[p.ID] = *p
	return nil
}

func (s *memStore) DeleteProgram(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.programs[id]; !ok {
		return model.ErrNotFound
	}
	for _, st := range s.data.stamps {
		if st.LoyaltyProgramID != nil && *st.LoyaltyProgramID == id {
			return fmt.Errorf("foreign key violation: stamp %s references program %s", st.ID, id)
		}
	}
	for k := range s.data.memberships {
		if k[1] == id {
			return fmt.Errorf("foreign key violation: membership references program %s", id)
		}
	}
	delete(s.data.programs, id)
	return nil
}

func (s *memStore) ListProgramsByMerchant(_ context.Context, merchantID string) ([]model.LoyaltyProgram, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.LoyaltyProgram
	for _, p := range s.data.programs {
		if p.MerchantID == merchantID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *memStore) CreateMembership(_ context.Context, m *model.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]string{m.CustomerID, m.LoyaltyProgramID}
	if _, ok := s.data.memberships[key]; ok {
		return model.ErrDuplicate
	}
	s.data.memberships[key] = *m
	return nil
}

func (s *memStore) GetMembership(_ context.Context, customerID, programID string) (*model.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.data.memberships[[2]string{customerID, programID}]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &m, nil
}

func (s *memStore) DeleteMembershipsByProgram(_ context.Context, programID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k := range s.data.memberships {
		if k[1] == programID {
			delete(s.data.memberships, k)
			n++
		}
	}
	return n, nil
}

func (s *memStore) DeleteMembershipsForMerchant(_ context.Context, customerID, merchantID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k := range s.data.memberships {
		if k[0] == customerID && s.data.programs[k[1]].MerchantID == merchantID {
			delete(s.data.memberships, k)
			n++
		}
	}
	return n, nil
}

func (s *memStore) CreateStamp(_ context.Context, st *model.Stamp) error {
	if err := s.fail("CreateStamp"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.stamps[st.ID] = *st
	return nil
}

// sortedStamps returns the matching stamps oldest first; callers hold mu
func (s *memStore) sortedStamps(match func(model.Stamp) bool) []model.Stamp {
	var out []model.Stamp
	for _, st := range s.data.stamps {
		if match(st) {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *memStore) FirstStamp(_ context.Context, customerID, merchantID string) (*model.Stamp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamps := s.sortedStamps(func(st model.Stamp) bool {
		return st.CustomerID == customerID && st.MerchantID == merchantID
	})
	if len(stamps) == 0 {
		return nil, model.ErrNotFound
	}
	return &stamps[0], nil
}

func (s *memStore) ListRedeemableStamps(_ context.Context, customerID, merchantID, programID string) ([]model.Stamp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedStamps(func(st model.Stamp) bool {
		return st.CustomerID == customerID && st.MerchantID == merchantID &&
			(st.LoyaltyProgramID == nil || *st.LoyaltyProgramID == programID)
	}), nil
}

func (s *memStore) DeleteStamps(_ context.Context, ids []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := s.data.stamps[id]; ok {
			delete(s.data.stamps, id)
			n++
		}
	}
	return n, nil
}

func (s *memStore) DeleteStampsByProgram(_ context.Context, programID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, st := range s.data.stamps {
		if st.LoyaltyProgramID != nil && *st.LoyaltyProgramID == programID {
			delete(s.data.stamps, id)
			n++
		}
	}
	return n, nil
}

func (s *memStore) DeleteStampsForMerchant(_ context.Context, customerID, merchantID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, st := range s.data.stamps {
		if st.CustomerID == customerID && st.MerchantID == merchantID {
			delete(s.data.stamps, id)
			n++
		}
	}
	return n, nil
}

func (s *memStore) CreateRedemption(_ context.Context, r *model.Redemption) error {
	if err := s.fail("CreateRedemption"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.redemptions = append(s.data.redemptions, *r)
	return nil
}

// stampCount counts every stamp the customer holds with the merchant
func (s *memStore) stampCount(customerID, merchantID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sortedStamps(func(st model.Stamp) bool {
		return st.CustomerID == customerID && st.MerchantID == merchantID
	}))
}

func (s *memStore) membershipCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.memberships)
}
