package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophvote/internal/common"
	"github.com/dmitrijs2005/gophvote/internal/metrics"
	"github.com/dmitrijs2005/gophvote/internal/server/config"
	"github.com/dmitrijs2005/gophvote/internal/server/models"
	"github.com/dmitrijs2005/gophvote/internal/server/repositories/repomanager"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newSQLiteService(t *testing.T, cfg *config.Config, opts ...ProposalOption) (*ProposalService, *sql.DB) {
	t.Helper()
	db, m, err := repomanager.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	if cfg == nil {
		cfg = &config.Config{}
	}

	var seq int
	base := []ProposalOption{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { seq++; return fmt.Sprintf("p%d", seq) }),
	}
	return NewProposalService(db, m, cfg, append(base, opts...)...), db
}

func TestCreate_Validation(t *testing.T) {
	s, _ := newSQLiteService(t, nil)
	ctx := context.Background()

	tests := []struct {
		name, title, description string
	}{
		{"empty title", "", "d"},
		{"empty description", "t", ""},
		{"blank title", "   ", "d"},
		{"blank description", "t", "\t\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(ctx, "alice", tt.title, tt.description)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreate_ProducesFreshProposal(t *testing.T) {
	s, _ := newSQLiteService(t, nil)
	ctx := context.Background()

	p, err := s.Create(ctx, "alice", "  Budget  ", " Q3 plan ")
	require.NoError(t, err)

	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "alice", p.Owner)
	assert.Equal(t, "Budget", p.Title)
	assert.Equal(t, "Q3 plan", p.Description)
	assert.Equal(t, []string{}, p.Voters)
	assert.Zero(t, p.YesVotes)
	assert.Zero(t, p.NoVotes)
	assert.Nil(t, p.UpdatedAt)
	assert.True(t, fixedNow.Equal(p.CreatedAt))

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Title, got.Title)
	assert.Nil(t, got.UpdatedAt)
}

func TestCreate_RequiresCaller(t *testing.T) {
	s, _ := newSQLiteService(t, nil)
	_, err := s.Create(context.Background(), "", "t", "d")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestGet_EmptyOrUnknownID(t *testing.T) {
	s, _ := newSQLiteService(t, nil)
	ctx := context.Background()

	for _, id := range []string{"", "  ", "missing"} {
		_, err := s.Get(ctx, id)
		assert.ErrorIs(t, err, common.ErrorNotFound, "id %q", id)
	}
}

func TestVote_Twice(t *testing.T) {
	s, _ := newSQLiteService(t, nil)
	ctx := context.Background()

	p, err := s.Create(ctx, "alice", "t", "d")
	require.NoError(t, err)

	voted, err := s.VoteYes(ctx, "bob", p.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), voted.YesVotes)
	assert.Equal(t, []string{"bob"}, voted.Voters)
	require.NotNil(t, voted.UpdatedAt)

	_, err = s.VoteNo(ctx, "bob", p.ID)
	require.ErrorIs(t, err, common.ErrorAlreadyVoted)
	assert.EqualError(t, err, "already voted")

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.YesVotes)
	assert.Equal(t, uint64(0), got.NoVotes)
	assert.Equal(t, []string{"bob"}, got.Voters)
}

func TestVote_OwnerRejected(t *testing.T) {
	s, _ := newSQLiteService(t, nil)
	ctx := context.Background()

	p, err := s.Create(ctx, "alice", "t", "d")
	require.NoError(t, err)

	_, err = s.VoteYes(ctx, "alice", p.ID)
	require.ErrorIs(t, err, common.ErrorOwnerVote)
	assert.ErrorIs(t, err, common.ErrorForbidden)
	assert.Contains(t, err.Error(), "owners cannot vote on their own proposal")

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.YesVotes)
	assert.Nil(t, got.UpdatedAt)
}

func TestVote_MissingProposal(t *testing.T) {
	s, _ := newSQLiteService(t, nil)
	_, err := s.VoteNo(context.Background(), "bob", "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = s.VoteYes(context.Background(), "bob", "")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestVote_CountersMatchVoters(t *testing.T) {
	s, _ := newSQLiteService(t, nil)
	ctx := context.Background()

	p, err := s.Create(ctx, "owner", "t", "d")
	require.NoError(t, err)

	callers := []string{"a", "b", "c", "d", "e", "a", "owner", "c"}
	for i, c := range callers {
		if i%2 == 0 {
			_, _ = s.VoteYes(ctx, c, p.ID)
		} else {
			_, _ = s.VoteNo(ctx, c, p.ID)
		}
	}

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Voters, 5)
	assert.Equal(t, uint64(len(got.Voters)), got.YesVotes+got.NoVotes)
	assert.NotContains(t, got.Voters, "owner")
}

func TestVote_ConcurrentCallersSerialize(t *testing.T) {
	s, _ := newSQLiteService(t, nil)
	ctx := context.Background()

	p, err := s.Create(ctx, "owner", "t", "d")
	require.NoError(t, err)

	const voters = 20
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			caller := fmt.Sprintf("v%d", i%10)
			if i%2 == 0 {
				_, _ = s.VoteYes(ctx, caller, p.ID)
			} else {
				_, _ = s.VoteNo(ctx, caller, p.ID)
			}
		}(i)
	}
	wg.Wait()

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Voters, 10)
	assert.Equal(t, uint64(10), got.YesVotes+got.NoVotes)
}

func TestUpdate(t *testing.T) {
	s, _ := newSQLiteService(t, nil)
	ctx := context.Background()

	p, err := s.Create(ctx, "alice", "t", "d")
	require.NoError(t, err)
	_, err = s.VoteNo(ctx, "bob", p.ID)
	require.NoError(t, err)

	t.Run("blank title leaves record unchanged", func(t *testing.T) {
		_, err := s.Update(ctx, "alice", p.ID, "  ", "new")
		require.ErrorIs(t, err, common.ErrorValidation)

		got, err := s.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "t", got.Title)
		assert.Equal(t, "d", got.Description)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := s.Update(ctx, "alice", "ghost", "a", "b")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("replaces text and keeps votes", func(t *testing.T) {
		got, err := s.Update(ctx, "carol", p.ID, " New title ", "New text")
		require.NoError(t, err)
		assert.Equal(t, "New title", got.Title)
		assert.Equal(t, "New text", got.Description)
		assert.Equal(t, uint64(1), got.NoVotes)
		assert.Equal(t, []string{"bob"}, got.Voters)
		require.NotNil(t, got.UpdatedAt)
		assert.True(t, fixedNow.Equal(*got.UpdatedAt))
	})
}

func TestUpdate_RestrictedToOwner(t *testing.T) {
	s, _ := newSQLiteService(t, &config.Config{RestrictUpdatesToOwner: true})
	ctx := context.Background()

	p, err := s.Create(ctx, "alice", "t", "d")
	require.NoError(t, err)

	_, err = s.Update(ctx, "mallory", p.ID, "x", "y")
	assert.ErrorIs(t, err, common.ErrorNotOwner)

	got, err := s.Update(ctx, "alice", p.ID, "x", "y")
	require.NoError(t, err)
	assert.Equal(t, "x", got.Title)
}

func TestDelete(t *testing.T) {
	s, _ := newSQLiteService(t, nil)
	ctx := context.Background()

	p, err := s.Create(ctx, "alice", "t", "d")
	require.NoError(t, err)

	_, err = s.Delete(ctx, "alice", "")
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.Delete(ctx, "alice", "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = s.Delete(ctx, "bob", p.ID)
	require.ErrorIs(t, err, common.ErrorNotOwner)
	_, err = s.Get(ctx, p.ID)
	require.NoError(t, err, "non-owner delete must leave the proposal intact")

	deleted, err := s.Delete(ctx, "alice", p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, deleted.ID)
	assert.Equal(t, "t", deleted.Title)

	_, err = s.Get(ctx, p.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestList_ReturnsCopies(t *testing.T) {
	s, _ := newSQLiteService(t, nil)
	ctx := context.Background()

	_, err := s.Create(ctx, "alice", "one", "d")
	require.NoError(t, err)
	_, err = s.Create(ctx, "alice", "two", "d")
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	list[0].Title = "mutated"
	list[0].Voters = append(list[0].Voters, "intruder")

	again, err := s.List(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again[0].Title)
	assert.Empty(t, again[0].Voters)
}

type memCache struct {
	mu          sync.Mutex
	items       map[string]*models.Proposal
	versions    map[string]int64
	hits        int
	invalidated []string
}

func newMemCache() *memCache {
	return &memCache{items: map[string]*models.Proposal{}, versions: map[string]int64{}}
}

func (c *memCache) Get(_ context.Context, id string) (*models.Proposal, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.items[id]; ok {
		c.hits++
		return p.Clone(), c.versions[id], nil
	}
	return nil, c.versions[id], nil
}

func (c *memCache) Set(_ context.Context, p *models.Proposal, version int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[p.ID] != version {
		return nil
	}
	c.items[p.ID] = p.Clone()
	return nil
}

func (c *memCache) Invalidate(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
	c.versions[id]++
	c.invalidated = append(c.invalidated, id)
	return nil
}

// racingCache runs beforeSet between the storage read and the cache fill.
type racingCache struct {
	*memCache
	beforeSet func()
}

func (c *racingCache) Set(ctx context.Context, p *models.Proposal, version int64) error {
	if c.beforeSet != nil {
		run := c.beforeSet
		c.beforeSet = nil
		run()
	}
	return c.memCache.Set(ctx, p, version)
}

func TestCache_ReadThroughAndInvalidate(t *testing.T) {
	cache := newMemCache()
	s, _ := newSQLiteService(t, nil, WithCache(cache))
	ctx := context.Background()

	p, err := s.Create(ctx, "alice", "t", "d")
	require.NoError(t, err)

	_, err = s.Get(ctx, p.ID)
	require.NoError(t, err)
	_, err = s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)

	_, err = s.VoteYes(ctx, "bob", p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{p.ID}, cache.invalidated)

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.YesVotes, "stale cache entry must not be served after a vote")

	_, err = s.VoteYes(ctx, "alice", p.ID)
	require.Error(t, err)
	assert.Len(t, cache.invalidated, 1, "failed mutations do not touch the cache")
}

func TestCache_VoteDuringFillIsNotMasked(t *testing.T) {
	cache := &racingCache{memCache: newMemCache()}
	s, _ := newSQLiteService(t, nil, WithCache(cache))
	ctx := context.Background()

	p, err := s.Create(ctx, "alice", "t", "d")
	require.NoError(t, err)

	cache.beforeSet = func() {
		_, err := s.VoteYes(ctx, "bob", p.ID)
		require.NoError(t, err)
	}

	first, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, first.YesVotes, "the first read saw the row before the vote")

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.YesVotes)
	assert.Equal(t, []string{"bob"}, got.Voters)
	assert.Zero(t, cache.hits)

	again, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), again.YesVotes)
	assert.Equal(t, 1, cache.hits)
}

func TestMutations_RequireCaller(t *testing.T) {
	s, _ := newSQLiteService(t, nil)
	ctx := context.Background()

	p, err := s.Create(ctx, "alice", "t", "d")
	require.NoError(t, err)

	_, err = s.Update(ctx, "", p.ID, "new", "d")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	_, err = s.Delete(ctx, "", p.ID)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	_, err = s.VoteNo(ctx, "", p.ID)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "t", got.Title)
}

func TestMetrics_Outcomes(t *testing.T) {
	m := metrics.New(nil)
	s, _ := newSQLiteService(t, nil, WithMetrics(m))
	ctx := context.Background()

	p, err := s.Create(ctx, "alice", "t", "d")
	require.NoError(t, err)
	_, _ = s.Create(ctx, "alice", "", "d")
	_, _ = s.VoteYes(ctx, "alice", p.ID)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationTotal.WithLabelValues("create", metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationTotal.WithLabelValues("create", metrics.OutcomeRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationTotal.WithLabelValues("vote_yes", metrics.OutcomeRejected)))
}
