// Package storetest provides an in-memory Repository for tests of the packages built on the store.
package storetest

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/LuisRivera1699/wedding-presents/internal/domain"
	"github.com/LuisRivera1699/wedding-presents/internal/store"
)

// Memory is a goroutine-safe in-memory store.Repository.
// SetErrors makes the matching operations fail.
type Memory struct {
	mu            sync.Mutex
	gifts         map[string]domain.Gift
	contributions map[string]domain.Contribution
	seq           int
	clock         time.Time

	errList   error
	errCreate error
	errUpdate error
	errDelete error

	statusWrites int
}

var _ store.Repository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		gifts:         map[string]domain.Gift{},
		contributions: map[string]domain.Contribution{},
		clock:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp so ordering is deterministic.
func (m *Memory) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *Memory) nextID(prefix string) string {
	m.seq++
	return prefix + "-" + strconv.Itoa(m.seq)
}

// SetErrors sets the failure injection fields under the lock.
func (m *Memory) SetErrors(list, create, update, del error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errList, m.errCreate, m.errUpdate, m.errDelete = list, create, update, del
}

func (m *Memory) ListGifts(ctx context.Context) ([]domain.Gift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errList != nil {
		return nil, m.errList
	}
	out := make([]domain.Gift, 0, len(m.gifts))
	for _, g := range m.gifts {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Memory) GetGift(ctx context.Context, id string) (*domain.Gift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.gifts[id]
	if !ok {
		return nil, store.ErrGiftNotFound
	}
	return &g, nil
}

func (m *Memory) CreateGift(ctx context.Context, gift *domain.Gift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errCreate != nil {
		return m.errCreate
	}
	if gift.ID == "" {
		gift.ID = m.nextID("gift")
	}
	gift.CreatedAt = m.tick()
	gift.UpdatedAt = gift.CreatedAt
	m.gifts[gift.ID] = *gift
	return nil
}

func (m *Memory) UpdateGift(ctx context.Context, id string, patch domain.GiftPatch) (*domain.Gift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errUpdate != nil {
		return nil, m.errUpdate
	}
	g, ok := m.gifts[id]
	if !ok {
		return nil, store.ErrGiftNotFound
	}
	if patch.Name != nil {
		g.Name = *patch.Name
	}
	if patch.Description != nil {
		g.Description = *patch.Description
	}
	if patch.ImageURL != nil {
		g.ImageURL = *patch.ImageURL
	}
	if patch.TotalCost != nil {
		g.TotalCost = *patch.TotalCost
	}
	g.UpdatedAt = m.tick()
	m.gifts[id] = g
	return &g, nil
}

func (m *Memory) DeleteGift(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errDelete != nil {
		return m.errDelete
	}
	if _, ok := m.gifts[id]; !ok {
		return store.ErrGiftNotFound
	}
	delete(m.gifts, id)
	return nil
}

func (m *Memory) ListContributions(ctx context.Context, q domain.ContributionQuery) ([]domain.Contribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errList != nil {
		return nil, m.errList
	}
	out := []domain.Contribution{}
	for _, c := range m.contributions {
		if q.Status != "" && c.Status != q.Status {
			continue
		}
		if q.GiftID != "" && c.GiftID != q.GiftID {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Memory) GetContribution(ctx context.Context, id string) (*domain.Contribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contributions[id]
	if !ok {
		return nil, store.ErrContributionNotFound
	}
	return &c, nil
}

func (m *Memory) CreateContribution(ctx context.Context, c *domain.Contribution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errCreate != nil {
		return m.errCreate
	}
	if c.ID == "" {
		c.ID = m.nextID("contribution")
	}
	if c.Status == "" {
		c.Status = domain.StatusPending
	}
	c.CreatedAt = m.tick()
	c.UpdatedAt = c.CreatedAt
	m.contributions[c.ID] = *c
	return nil
}

func (m *Memory) UpdateContributionStatus(ctx context.Context, id string, status domain.ContributionStatus) (*domain.Contribution, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errUpdate != nil {
		return nil, false, m.errUpdate
	}
	c, ok := m.contributions[id]
	if !ok {
		return nil, false, store.ErrContributionNotFound
	}
	if c.Status == status {
		return &c, false, nil
	}
	c.Status = status
	c.UpdatedAt = m.tick()
	m.contributions[id] = c
	m.statusWrites++
	return &c, true, nil
}

func (m *Memory) DeleteContribution(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errDelete != nil {
		return m.errDelete
	}
	if _, ok := m.contributions[id]; !ok {
		return store.ErrContributionNotFound
	}
	delete(m.contributions, id)
	return nil
}

func (m *Memory) ListReferencedURLs(ctx context.Context) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errList != nil {
		return nil, m.errList
	}
	refs := map[string]struct{}{}
	for _, c := range m.contributions {
		if c.ProofImageURL != "" {
			refs[c.ProofImageURL] = struct{}{}
		}
	}
	for _, g := range m.gifts {
		if g.ImageURL != "" {
			refs[g.ImageURL] = struct{}{}
		}
	}
	return refs, nil
}

// Writes returns the number of status writes that changed a record.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusWrites
}
