package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samzcoder/hotel-control/internal/domain/registration"
)

// RegistrationsRepo mirrors the Postgres store: serial ids, unique customer
// ids, newest-first listing. State lives only as long as the process.
type RegistrationsRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]registration.Registration

	now func() time.Time
}

func NewRegistrationsRepo() *RegistrationsRepo {
	return &RegistrationsRepo{
		items: make(map[int64]registration.Registration),
		now:   time.Now,
	}
}

// nothing to provision
func (r *RegistrationsRepo) EnsureSchema(ctx context.Context) error {
	return ctx.Err()
}

func (r *RegistrationsRepo) List(ctx context.Context, filter registration.ListFilter) ([]registration.Registration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]registration.Registration, 0, len(r.items))
	for _, reg := range r.items {
		if filter.Matches(reg) {
			out = append(out, reg)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	return out, nil
}

func (r *RegistrationsRepo) Create(ctx context.Context, req registration.CreateRegistrationRequest) (registration.Registration, error) {
	if err := ctx.Err(); err != nil {
		return registration.Registration{}, err
	}

	req = req.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.customerTaken(req.CustomerID, 0) {
		return registration.Registration{}, registration.ErrDuplicateCustomerID
	}

	r.nextID++
	reg := registration.Registration{
		ID:           r.nextID,
		CustomerID:   req.CustomerID,
		FullName:     req.FullName,
		Email:        req.Email,
		CheckInDate:  req.CheckInDate,
		CheckOutDate: req.CheckOutDate,
		RoomType:     req.RoomType,
		CreatedAt:    r.now().UTC(),
	}
	r.items[reg.ID] = reg

	return reg, nil
}

func (r *RegistrationsRepo) Update(ctx context.Context, req registration.UpdateRegistrationRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req = req.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[req.ID]
	if !ok {
		return registration.ErrNotFound
	}

	if r.customerTaken(req.CustomerID, req.ID) {
		return registration.ErrDuplicateCustomerID
	}

	existing.CustomerID = req.CustomerID
	existing.FullName = req.FullName
	existing.Email = req.Email
	existing.CheckInDate = req.CheckInDate
	existing.CheckOutDate = req.CheckOutDate
	existing.RoomType = req.RoomType
	r.items[req.ID] = existing

	return nil
}

func (r *RegistrationsRepo) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return registration.ErrNotFound
	}
	delete(r.items, id)

	return nil
}

// caller holds r.mu
func (r *RegistrationsRepo) customerTaken(customerID string, exceptID int64) bool {
	for id, reg := range r.items {
		if id != exceptID && reg.CustomerID == customerID {
			return true
		}
	}
	return false
}
