package availability

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository for tests and single-node use.
type MemoryRepository struct {
	mu        sync.RWMutex
	doctors   map[uuid.UUID]*Doctor
	overrides map[uuid.UUID][]Override // keyed by doctor ID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		doctors:   make(map[uuid.UUID]*Doctor),
		overrides: make(map[uuid.UUID][]Override),
	}
}

func (r *MemoryRepository) CreateDoctor(_ context.Context, d *Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now
	cp := *d
	r.doctors[d.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetDoctorByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *MemoryRepository) ListDoctors(_ context.Context, activeOnly bool) ([]Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Doctor
	for _, d := range r.doctors {
		if activeOnly && !d.Active {
			continue
		}
		result = append(result, *d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *MemoryRepository) UpdateDoctorPattern(_ context.Context, id uuid.UUID, p WeeklyPattern) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.doctors[id]
	if !ok {
		return ErrDoctorNotFound
	}
	d.Pattern = p
	d.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepository) SetDoctorActive(_ context.Context, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.doctors[id]
	if !ok {
		return ErrDoctorNotFound
	}
	d.Active = active
	d.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepository) InsertOverride(_ context.Context, ov Override) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ov.CreatedAt.IsZero() {
		ov.CreatedAt = time.Now()
	}
	r.overrides[ov.DoctorID] = append(r.overrides[ov.DoctorID], ov)
	return nil
}

func (r *MemoryRepository) ListOverrides(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]Override, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Override
	for _, ov := range r.overrides[doctorID] {
		if ov.Date.Before(from) || ov.Date.After(to) {
			continue
		}
		result = append(result, ov)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}
