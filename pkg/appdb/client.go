// Package appdb reads and writes the P4RT_TABLE namespace of SONiC's APPL_DB
// (Redis DB 0). The P4RT application writes one hash per table entry at
// "P4RT_TABLE:<table>:<key>"; this package strips and adds the namespace so
// callers work with table-relative keys such as
// "REPLICATION_IP_MULTICAST_TABLE:a".
package appdb

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-redis/redis/v8"

	"github.com/newtron-network/replsync/pkg/replication"
	"github.com/newtron-network/replsync/pkg/util"
)

const (
	// DefaultNamespace is the APPL_DB table written by the P4RT application.
	DefaultNamespace = "P4RT_TABLE"

	// DefaultDB is the APPL_DB Redis database number.
	DefaultDB = 0

	// nullField is the SONiC sentinel for field-less hashes; Redis cannot
	// store an empty hash.
	nullField = "NULL"
)

// DB is the read/write contract shared by Client and MemoryDB.
type DB interface {
	replication.Store
	Apply(updates []replication.KeyOpFieldsValues) error
}

// Options configures a Client.
type Options struct {
	Addr      string // "127.0.0.1:6379"
	DB        int
	Namespace string // defaults to P4RT_TABLE
}

// Client wraps a Redis client for APPL_DB access. It implements
// replication.Store.
type Client struct {
	client    *redis.Client
	ctx       context.Context
	namespace string
}

// NewClient creates a new APPL_DB client. The connection is opened lazily;
// call Connect to check reachability.
func NewClient(opts Options) *Client {
	ns := opts.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	return &Client{
		client: redis.NewClient(&redis.Options{
			Addr: opts.Addr,
			DB:   opts.DB,
		}),
		ctx:       context.Background(),
		namespace: ns,
	}
}

// WithContext returns a shallow copy of the client that issues commands
// under ctx.
func (c *Client) WithContext(ctx context.Context) *Client {
	cp := *c
	cp.ctx = ctx
	return &cp
}

// Connect tests the connection.
func (c *Client) Connect() error {
	if err := c.client.Ping(c.ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", util.ErrNotConnected, err)
	}
	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) redisKey(key string) string {
	return c.namespace + ":" + key
}

// Keys returns every table-relative key under the namespace.
func (c *Client) Keys() ([]string, error) {
	redisKeys, err := scanKeys(c.ctx, c.client, c.namespace+":*", 100)
	if err != nil {
		return nil, fmt.Errorf("scanning %s keys: %w", c.namespace, err)
	}
	prefix := c.namespace + ":"
	keys := make([]string, 0, len(redisKeys))
	seen := make(map[string]bool, len(redisKeys))
	for _, k := range redisKeys {
		// SCAN may return a key more than once while the keyspace rehashes.
		if seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, strings.TrimPrefix(k, prefix))
	}
	return keys, nil
}

// Get returns the fields of key sorted by field name. The NULL sentinel of a
// field-less entry is dropped.
func (c *Client) Get(key string) ([]replication.FieldValue, error) {
	redisKey := c.redisKey(key)
	vals, err := c.client.HGetAll(c.ctx, redisKey).Result()
	if err != nil {
		return nil, fmt.Errorf("reading APPL_DB %s: %w", redisKey, err)
	}
	return sortedFields(vals), nil
}

// Exists checks if a key exists
func (c *Client) Exists(key string) (bool, error) {
	n, err := c.client.Exists(c.ctx, c.redisKey(key)).Result()
	return n > 0, err
}

// Apply writes a batch of updates in one MULTI/EXEC transaction: either all
// are applied or none. SET replaces the whole hash so replicas dropped by a
// modify do not linger.
func (c *Client) Apply(updates []replication.KeyOpFieldsValues) error {
	if len(updates) == 0 {
		return nil
	}
	if err := checkOps(updates); err != nil {
		return err
	}

	pipe := c.client.TxPipeline()
	for _, u := range updates {
		redisKey := c.redisKey(u.Key)
		pipe.Del(c.ctx, redisKey)
		if u.Op == replication.OpDel {
			continue
		}
		if len(u.Fields) == 0 {
			pipe.HSet(c.ctx, redisKey, nullField, nullField)
			continue
		}
		args := make([]interface{}, 0, len(u.Fields)*2)
		for _, fv := range u.Fields {
			args = append(args, fv.Field, fv.Value)
		}
		pipe.HSet(c.ctx, redisKey, args...)
	}

	_, err := pipe.Exec(c.ctx)
	if err != nil && err != redis.Nil {
		return fmt.Errorf("pipeline exec: %w", err)
	}
	util.WithTable(c.namespace).Debugf("applied %d updates", len(updates))
	return nil
}

// checkOps rejects unknown operations before anything is queued.
func checkOps(updates []replication.KeyOpFieldsValues) error {
	for _, u := range updates {
		if u.Op != replication.OpSet && u.Op != replication.OpDel {
			return util.NewUnsupportedOperationError(fmt.Sprintf("APPL_DB op %q for %s", u.Op, u.Key))
		}
	}
	return nil
}

func sortedFields(vals map[string]string) []replication.FieldValue {
	out := make([]replication.FieldValue, 0, len(vals))
	for f, v := range vals {
		if f == nullField {
			continue
		}
		out = append(out, replication.FieldValue{Field: f, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// scanKeys iterates Redis keys matching the given pattern using cursor-based
// SCAN instead of the blocking O(N) KEYS command. The count hint controls
// how many keys Redis returns per iteration (not an exact limit).
func scanKeys(ctx context.Context, client *redis.Client, pattern string, countHint int64) ([]string, error) {
	var cursor uint64
	var keys []string
	for {
		batch, nextCursor, err := client.Scan(ctx, cursor, pattern, countHint).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}
