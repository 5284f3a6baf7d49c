package cache

import (
	"time"

	"github.com/gomodule/redigo/redis"
)

// redisProvider is the optional Redis-backed Provider, grounded on
// registry/storage/cache/redis.go's pooled-connection idiom but built
// on gomodule/redigo rather than go-redis/v9, matching this module's
// go.mod. Each kind of cache (object-bytes, recipe, tag-resolution,
// tag-listing) gets its own key prefix so one Redis instance can back
// all four of a Set's Provider slots without key collisions.
type redisProvider struct {
	pool   *redis.Pool
	prefix string
	ttl    time.Duration
}

// NewRedis builds a Provider backed by a redigo connection pool. addr
// is a "host:port" address; prefix namespaces this Provider's keys
// (callers typically pass one prefix per cache.Kind); ttl is the
// expiry set on every key, or zero for no expiry.
func NewRedis(addr, prefix string, ttl time.Duration) Provider {
	pool := &redis.Pool{
		MaxIdle:     8,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", addr)
		},
	}
	return &redisProvider{pool: pool, prefix: prefix, ttl: ttl}
}

func (r *redisProvider) key(key string) string { return r.prefix + ":" + key }

func (r *redisProvider) Get(key string) ([]byte, bool) {
	conn := r.pool.Get()
	defer conn.Close()

	v, err := redis.Bytes(conn.Do("GET", r.key(key)))
	if err != nil {
		return nil, false
	}
	return v, true
}

func (r *redisProvider) Set(key string, value []byte) {
	conn := r.pool.Get()
	defer conn.Close()

	if r.ttl > 0 {
		_, _ = conn.Do("SET", r.key(key), value, "EX", int(r.ttl.Seconds()))
		return
	}
	_, _ = conn.Do("SET", r.key(key), value)
}

func (r *redisProvider) Delete(key string) {
	conn := r.pool.Get()
	defer conn.Close()
	_, _ = conn.Do("DEL", r.key(key))
}

// InvalidateAll scans and removes every key under this Provider's
// prefix. Redis has no namespaced flush, so this walks the keyspace in
// batches via SCAN rather than KEYS, which would block the server on a
// large keyspace.
func (r *redisProvider) InvalidateAll() {
	conn := r.pool.Get()
	defer conn.Close()

	cursor := "0"
	for {
		reply, err := redis.Values(conn.Do("SCAN", cursor, "MATCH", r.prefix+":*", "COUNT", 100))
		if err != nil {
			return
		}
		cursor, _ = redis.String(reply[0], nil)
		keys, _ := redis.Strings(reply[1], nil)
		for _, k := range keys {
			_, _ = conn.Do("DEL", k)
		}
		if cursor == "0" {
			return
		}
	}
}
