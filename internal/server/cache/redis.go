// Package cache keeps recently read proposals in Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophvote/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "gophvote:proposal:"

// versionTTL outlives any read that can still be in flight.
const versionTTL = time.Hour

// setScript writes the entry only while the version key still holds the
// value the reader saw before going to storage.
const setScript = `
local v = redis.call('GET', KEYS[2]) or '0'
if v ~= ARGV[1] then
	return 0
end
if ARGV[3] == '0' then
	redis.call('SET', KEYS[1], ARGV[2])
else
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
end
return 1
`

// invalidateScript bumps the version and drops the entry in one step, so a
// Set started before it cannot land after it.
const invalidateScript = `
redis.call('INCR', KEYS[2])
redis.call('PEXPIRE', KEYS[2], ARGV[1])
redis.call('DEL', KEYS[1])
return 1
`

// Client is the part of *redis.Client the cache needs.
type Client interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// NewClient parses a redis:// URL and returns a client. It does not dial.
func NewClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return redis.NewClient(opt), nil
}

// ProposalCache stores proposals as JSON under a fixed key prefix. Each id
// also has a version counter that Invalidate bumps and Set checks.
type ProposalCache struct {
	rdb Client
	ttl time.Duration
}

func NewProposalCache(rdb Client, ttl time.Duration) *ProposalCache {
	return &ProposalCache{rdb: rdb, ttl: ttl}
}

func key(id string) string { return keyPrefix + id }

func versionKey(id string) string { return keyPrefix + id + ":ver" }

// Get returns the cached proposal. On a miss the proposal is nil and the
// version is what a following Set must present.
func (c *ProposalCache) Get(ctx context.Context, id string) (*models.Proposal, int64, error) {
	vals, err := c.rdb.MGet(ctx, key(id), versionKey(id)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("cache get %s: %w", id, err)
	}
	if len(vals) != 2 {
		return nil, 0, fmt.Errorf("cache get %s: unexpected reply of %d values", id, len(vals))
	}

	var version int64
	if s, ok := vals[1].(string); ok {
		version, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("cache version %s: %w", id, err)
		}
	}

	s, ok := vals[0].(string)
	if !ok {
		return nil, version, nil
	}

	var p models.Proposal
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return nil, 0, fmt.Errorf("cache decode %s: %w", id, err)
	}
	if p.Voters == nil {
		p.Voters = []string{}
	}
	return &p, version, nil
}

// Set stores p unless the entry was invalidated after the Get that
// returned version. A skipped write is not an error.
func (c *ProposalCache) Set(ctx context.Context, p *models.Proposal, version int64) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", p.ID, err)
	}

	keys := []string{key(p.ID), versionKey(p.ID)}
	args := []interface{}{strconv.FormatInt(version, 10), string(raw), strconv.FormatInt(c.ttl.Milliseconds(), 10)}
	if err := c.rdb.Eval(ctx, setScript, keys, args...).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", p.ID, err)
	}
	return nil
}

func (c *ProposalCache) Invalidate(ctx context.Context, id string) error {
	keys := []string{key(id), versionKey(id)}
	ttl := strconv.FormatInt((versionTTL + c.ttl).Milliseconds(), 10)
	if err := c.rdb.Eval(ctx, invalidateScript, keys, ttl).Err(); err != nil {
		return fmt.Errorf("cache invalidate %s: %w", id, err)
	}
	return nil
}
