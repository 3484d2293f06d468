package repository

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/unclebandit/hoperise-backend/internal/address"
	appErrors "github.com/unclebandit/hoperise-backend/internal/errors"
	"github.com/unclebandit/hoperise-backend/internal/model"
)

var errReadOnly = errors.New("write attempted in a read-only transaction")

type memoryState struct {
	counter       *model.SequenceCounter
	campaigns     map[address.Address]model.Campaign
	contributions map[address.Address]model.Contribution
	milestones    map[address.Address]model.Milestone
	accounts      map[address.Address]model.TokenAccount
}

func newMemoryState() *memoryState {
	return &memoryState{
		campaigns:     make(map[address.Address]model.Campaign),
		contributions: make(map[address.Address]model.Contribution),
		milestones:    make(map[address.Address]model.Milestone),
		accounts:      make(map[address.Address]model.TokenAccount),
	}
}

// MemoryStore keeps the ledger in process. Updates are serialized by a
// single lock and staged in an overlay that is merged only on success.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memoryState
	byID  map[uint64]address.Address
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: newMemoryState(),
		byID:  make(map[uint64]address.Address),
	}
}

func (s *MemoryStore) Update(ctx context.Context, fn func(Ledger) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{store: s, staged: newMemoryState()}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *MemoryStore) View(ctx context.Context, fn func(Ledger) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(&memoryTx{store: s, readOnly: true})
}

type memoryTx struct {
	store    *MemoryStore
	staged   *memoryState
	readOnly bool
}

func (t *memoryTx) commit() {
	base := t.store.state
	if t.staged.counter != nil {
		base.counter = t.staged.counter
	}
	for k, v := range t.staged.campaigns {
		base.campaigns[k] = v
		t.store.byID[v.ID] = k
	}
	for k, v := range t.staged.contributions {
		base.contributions[k] = v
	}
	for k, v := range t.staged.milestones {
		base.milestones[k] = v
	}
	for k, v := range t.staged.accounts {
		base.accounts[k] = v
	}
}

func lookup[V any](staged, base map[address.Address]V, k address.Address) (V, bool) {
	if staged != nil {
		if v, ok := staged[k]; ok {
			return v, true
		}
	}
	v, ok := base[k]
	return v, ok
}

func merged[V any](staged, base map[address.Address]V) map[address.Address]V {
	out := make(map[address.Address]V, len(base)+len(staged))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range staged {
		out[k] = v
	}
	return out
}

// campaignIDFromAddress recovers the id seed for error reporting.
func campaignIDFromAddress(addr address.Address) uint64 {
	_, parts, err := address.Split(addr)
	if err != nil || len(parts) != 2 {
		return 0
	}
	id, _ := strconv.ParseUint(parts[1], 10, 64)
	return id
}

func (t *memoryTx) stagedState() *memoryState {
	if t.staged == nil {
		return &memoryState{}
	}
	return t.staged
}

// ====================== Sequence counter ======================

func (t *memoryTx) Counter(ctx context.Context) (*model.SequenceCounter, error) {
	c := t.stagedState().counter
	if c == nil {
		c = t.store.state.counter
	}
	if c == nil {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (t *memoryTx) PutCounter(ctx context.Context, c *model.SequenceCounter) error {
	if t.readOnly {
		return errReadOnly
	}
	cp := *c
	t.staged.counter = &cp
	return nil
}

// ====================== Campaigns ======================

func (t *memoryTx) Campaign(ctx context.Context, addr address.Address) (*model.Campaign, error) {
	c, ok := lookup(t.stagedState().campaigns, t.store.state.campaigns, addr)
	if !ok {
		return nil, appErrors.NewCampaignNotFound(campaignIDFromAddress(addr))
	}
	return &c, nil
}

func (t *memoryTx) CampaignByID(ctx context.Context, id uint64) (*model.Campaign, error) {
	for addr, c := range t.stagedState().campaigns {
		if c.ID == id {
			return t.Campaign(ctx, addr)
		}
	}
	addr, ok := t.store.byID[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return t.Campaign(ctx, addr)
}

func (t *memoryTx) PutCampaign(ctx context.Context, c *model.Campaign) error {
	if t.readOnly {
		return errReadOnly
	}
	t.staged.campaigns[c.Address] = *c
	return nil
}

func (t *memoryTx) ListCampaigns(ctx context.Context, filter CampaignFilter, offset, limit int) ([]*model.Campaign, int, error) {
	all := merged(t.stagedState().campaigns, t.store.state.campaigns)
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	matched := []*model.Campaign{}
	for _, c := range all {
		if filter.Category != "" && c.Category != filter.Category {
			continue
		}
		if filter.Creator != "" && c.Creator != filter.Creator {
			continue
		}
		if filter.Active != nil && c.IsActive != *filter.Active {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Title), search) &&
			!strings.Contains(strings.ToLower(c.ShortDescription), search) {
			continue
		}
		c := c
		matched = append(matched, &c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := len(matched)
	if offset < 0 || offset >= total {
		return []*model.Campaign{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

// ====================== Contributions ======================

func (t *memoryTx) Contribution(ctx context.Context, addr address.Address) (*model.Contribution, error) {
	c, ok := lookup(t.stagedState().contributions, t.store.state.contributions, addr)
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (t *memoryTx) PutContribution(ctx context.Context, c *model.Contribution) error {
	if t.readOnly {
		return errReadOnly
	}
	t.staged.contributions[c.Address] = *c
	return nil
}

func (t *memoryTx) ListContributions(ctx context.Context, campaign address.Address) ([]*model.Contribution, error) {
	out := []*model.Contribution{}
	for _, c := range merged(t.stagedState().contributions, t.store.state.contributions) {
		if c.Campaign != campaign {
			continue
		}
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ContributedAt != out[j].ContributedAt {
			return out[i].ContributedAt > out[j].ContributedAt
		}
		return out[i].Contributor < out[j].Contributor
	})
	return out, nil
}

// ====================== Milestones ======================

func (t *memoryTx) Milestone(ctx context.Context, addr address.Address) (*model.Milestone, error) {
	m, ok := lookup(t.stagedState().milestones, t.store.state.milestones, addr)
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (t *memoryTx) PutMilestone(ctx context.Context, m *model.Milestone) error {
	if t.readOnly {
		return errReadOnly
	}
	t.staged.milestones[m.Address] = *m
	return nil
}

func (t *memoryTx) ListMilestones(ctx context.Context, campaign address.Address) ([]*model.Milestone, error) {
	out := []*model.Milestone{}
	for _, m := range merged(t.stagedState().milestones, t.store.state.milestones) {
		if m.Campaign != campaign {
			continue
		}
		m := m
		out = append(out, &m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// ====================== Token accounts ======================

func (t *memoryTx) TokenAccount(ctx context.Context, addr address.Address) (*model.TokenAccount, error) {
	a, ok := lookup(t.stagedState().accounts, t.store.state.accounts, addr)
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (t *memoryTx) PutTokenAccount(ctx context.Context, a *model.TokenAccount) error {
	if t.readOnly {
		return errReadOnly
	}
	t.staged.accounts[a.Address] = *a
	return nil
}

var _ Store = (*MemoryStore)(nil)
var _ Ledger = (*memoryTx)(nil)
