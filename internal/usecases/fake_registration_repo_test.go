package usecases_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"partner-portal.backend/internal/domain/entities"
	domainerrors "partner-portal.backend/internal/domain/errors"
)

// memRegistrationRepo is an in-memory RegistrationRepository with the same
// write semantics as the SQL implementation.
type memRegistrationRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*entities.Registration
}

func newMemRegistrationRepo(regs ...*entities.Registration) *memRegistrationRepo {
	r := &memRegistrationRepo{rows: map[uuid.UUID]*entities.Registration{}}
	for _, reg := range regs {
		if reg.ID == uuid.Nil {
			reg.ID = uuid.New()
		}
		if reg.ExternalStatus == "" {
			reg.ExternalStatus = entities.ExternalStatusNotSubmitted
		}
		cp := *reg
		r.rows[reg.ID] = &cp
	}
	return r
}

func (r *memRegistrationRepo) snapshot(id uuid.UUID) *entities.Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *r.rows[id]
	return &cp
}

func (r *memRegistrationRepo) find(match func(*entities.Registration) bool) (*entities.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if match(row) {
			cp := *row
			return &cp, nil
		}
	}
	return nil, domainerrors.ErrNotFound
}

func (r *memRegistrationRepo) Create(_ context.Context, reg *entities.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.OwnerID == reg.OwnerID {
			return domainerrors.ErrConflict
		}
	}
	if reg.ID == uuid.Nil {
		reg.ID = uuid.New()
	}
	if reg.ExternalStatus == "" {
		reg.ExternalStatus = entities.ExternalStatusNotSubmitted
	}
	reg.CreatedAt = time.Now().UTC()
	reg.UpdatedAt = reg.CreatedAt
	cp := *reg
	r.rows[reg.ID] = &cp
	return nil
}

func (r *memRegistrationRepo) GetByOwnerID(_ context.Context, ownerID uuid.UUID) (*entities.Registration, error) {
	return r.find(func(row *entities.Registration) bool { return row.OwnerID == ownerID })
}

func (r *memRegistrationRepo) GetByExternalSellerID(_ context.Context, sellerID string) (*entities.Registration, error) {
	return r.find(func(row *entities.Registration) bool {
		return row.ExternalSellerID.Valid && row.ExternalSellerID.String == sellerID
	})
}

func (r *memRegistrationRepo) FindByRegistrationNumber(_ context.Context, number string) (*entities.Registration, error) {
	return r.find(func(row *entities.Registration) bool {
		return row.RegistrationNumber.Valid && row.RegistrationNumber.String == number
	})
}

func (r *memRegistrationRepo) FindCompletedByRepresentative(_ context.Context, name string, phones []string, excludeOwnerID uuid.UUID) (*entities.Registration, error) {
	return r.find(func(row *entities.Registration) bool {
		if !row.IsCompleted || row.RepresentativeName != name || row.OwnerID == excludeOwnerID {
			return false
		}
		for _, p := range phones {
			if row.ContactPhone == p {
				return true
			}
		}
		return false
	})
}

func (r *memRegistrationRepo) UpdateDetails(_ context.Context, reg *entities.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[reg.ID]
	if !ok {
		return domainerrors.ErrNotFound
	}
	status, raw, at, seller, completed := row.ExternalStatus, row.ExternalStatusRaw, row.ExternalStatusAt, row.ExternalSellerID, row.IsCompleted
	cp := *reg
	cp.ExternalStatus, cp.ExternalStatusRaw, cp.ExternalStatusAt, cp.ExternalSellerID, cp.IsCompleted = status, raw, at, seller, completed
	cp.UpdatedAt = time.Now().UTC()
	r.rows[reg.ID] = &cp
	return nil
}

func (r *memRegistrationRepo) UpdateContact(_ context.Context, id uuid.UUID, phone, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return domainerrors.ErrNotFound
	}
	row.ContactPhone = phone
	row.ContactEmail = email
	row.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memRegistrationRepo) ClaimProvisioning(_ context.Context, id uuid.UUID, expiredBefore time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || row.ExternalSellerID.Valid {
		return false, nil
	}
	if row.ProvisionClaimedAt.Valid && !row.ProvisionClaimedAt.Time.Before(expiredBefore) {
		return false, nil
	}
	row.ProvisionClaimedAt = null.TimeFrom(time.Now().UTC())
	return true, nil
}

func (r *memRegistrationRepo) ReleaseProvisioning(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[id]; ok && !row.ExternalSellerID.Valid {
		row.ProvisionClaimedAt = null.Time{}
	}
	return nil
}

func (r *memRegistrationRepo) MarkProvisioned(_ context.Context, id uuid.UUID, sellerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return domainerrors.ErrNotFound
	}
	if row.ExternalSellerID.Valid && row.ExternalSellerID.String != sellerID {
		return domainerrors.ErrConflict
	}
	row.ExternalSellerID.SetValid(sellerID)
	row.Step = 3
	row.IsCompleted = true
	row.ProvisionClaimedAt = null.Time{}
	row.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memRegistrationRepo) MarkStatusChecked(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[id]; ok {
		row.StatusCheckedAt = null.TimeFrom(at.UTC())
	}
	return nil
}

func (r *memRegistrationRepo) UpdateExternalStatus(_ context.Context, write entities.StatusWrite) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[write.RegistrationID]
	if !ok {
		return false, domainerrors.ErrNotFound
	}
	if write.RejectOlder && write.ChangedAt.Valid && row.ExternalStatusAt.Valid &&
		row.ExternalStatusAt.Time.After(write.ChangedAt.Time) {
		return false, nil
	}
	row.ExternalStatus = write.Status
	row.ExternalStatusRaw = write.Raw
	if write.ChangedAt.Valid {
		row.ExternalStatusAt = write.ChangedAt
	}
	row.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *memRegistrationRepo) ListStale(_ context.Context, statuses []entities.ExternalStatus, before time.Time, limit int) ([]*entities.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Registration
	for _, row := range r.rows {
		if !row.IsCompleted || !row.ExternalSellerID.Valid || !row.UpdatedAt.Before(before) {
			continue
		}
		if row.StatusCheckedAt.Valid && !row.StatusCheckedAt.Time.Before(before) {
			continue
		}
		for _, s := range statuses {
			if row.ExternalStatus == s {
				cp := *row
				out = append(out, &cp)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return lastTouched(out[i]).Before(lastTouched(out[j])) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func lastTouched(reg *entities.Registration) time.Time {
	if reg.StatusCheckedAt.Valid {
		return reg.StatusCheckedAt.Time
	}
	return reg.UpdatedAt
}

// memDraftRepo is an in-memory DraftRepository
type memDraftRepo struct {
	mu     sync.Mutex
	drafts map[uuid.UUID]entities.OnboardingDraft
}

func newMemDraftRepo() *memDraftRepo {
	return &memDraftRepo{drafts: map[uuid.UUID]entities.OnboardingDraft{}}
}

func (r *memDraftRepo) Get(_ context.Context, ownerID uuid.UUID) (*entities.OnboardingDraft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drafts[ownerID]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r *memDraftRepo) Save(_ context.Context, draft *entities.OnboardingDraft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	draft.UpdatedAt = time.Now().UTC()
	r.drafts[draft.OwnerID] = *draft
	return nil
}

func (r *memDraftRepo) Delete(_ context.Context, ownerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drafts, ownerID)
	return nil
}
