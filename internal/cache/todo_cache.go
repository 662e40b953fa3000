package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	dom "todoapi/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyList = "todo:list"
	// keyListGen is bumped by every invalidation; a list read from the store
	// under an older generation is never cached.
	keyListGen = "todo:list:gen"
)

// setListIfGen stores ARGV[2] under KEYS[2] only while KEYS[1] still holds
// the generation ARGV[1]. ARGV[3] is the TTL in milliseconds, 0 for none.
var setListIfGen = redis.NewScript(`
local gen = redis.call('GET', KEYS[1]) or '0'
if gen ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

// TodoCache caches the ordered todo list in Redis.
type TodoCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTodoCache returns a new TodoCache.
func NewTodoCache(rdb *redis.Client, ttl time.Duration) *TodoCache {
	return &TodoCache{rdb: rdb, ttl: ttl}
}

// Generation returns the current list generation; 0 before the first write.
func (c *TodoCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, keyListGen).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// GetList returns the cached list, or nil on a miss. An empty cached list is
// returned as a non-nil empty slice.
func (c *TodoCache) GetList(ctx context.Context) ([]dom.Todo, error) {
	b, err := c.rdb.Get(ctx, keyList).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	list := make([]dom.Todo, 0)
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SetList stores the list if no invalidation happened since gen was read.
// It reports whether the list was stored.
func (c *TodoCache) SetList(ctx context.Context, gen int64, list []dom.Todo) (bool, error) {
	if list == nil {
		list = []dom.Todo{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return false, err
	}
	stored, err := setListIfGen.Run(ctx, c.rdb,
		[]string{keyListGen, keyList},
		strconv.FormatInt(gen, 10), b, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}

// Invalidate drops the cached list and bumps the generation; called after
// every write.
func (c *TodoCache) Invalidate(ctx context.Context) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, keyListGen)
		pipe.Del(ctx, keyList)
		return nil
	})
	return err
}
