package cache

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/redis/go-redis/v9"
)

// Idempotency record states.
const (
	IdempotencyPending  = "pending"
	IdempotencyComplete = "complete"
)

// IdempotencyRecord is what is remembered about a client-supplied key.
type IdempotencyRecord struct {
	State       string `json:"state"`
	Fingerprint uint64 `json:"fp"`
	ResourceID  uint   `json:"id,omitempty"`
}

// Idempotency remembers the outcome of keyed create requests.
type Idempotency struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotency(client *redis.Client, ttl time.Duration) *Idempotency {
	return &Idempotency{client: client, ttl: ttl}
}

// Enabled reports whether keys can be remembered at all.
func (i *Idempotency) Enabled() bool {
	return i != nil && i.client != nil
}

// Begin claims key for a new request. When the key is already known it
// returns the existing record and claimed=false.
func (i *Idempotency) Begin(ctx context.Context, key string, fingerprint uint64) (*IdempotencyRecord, bool, error) {
	if !i.Enabled() {
		return nil, false, ErrUnavailable
	}
	pending, err := json.Marshal(IdempotencyRecord{State: IdempotencyPending, Fingerprint: fingerprint})
	if err != nil {
		return nil, false, err
	}
	ok, err := i.client.SetNX(ctx, key, pending, i.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if ok {
		return nil, true, nil
	}

	raw, err := i.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; try once more.
		ok, err = i.client.SetNX(ctx, key, pending, i.ttl).Result()
		if err != nil {
			return nil, false, err
		}
		if ok {
			return nil, true, nil
		}
		raw, err = i.client.Get(ctx, key).Bytes()
	}
	if err != nil {
		return nil, false, err
	}
	var rec IdempotencyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, err
	}
	return &rec, false, nil
}

// Complete records the created resource for key.
func (i *Idempotency) Complete(ctx context.Context, key string, fingerprint uint64, resourceID uint) error {
	if !i.Enabled() {
		return ErrUnavailable
	}
	done, err := json.Marshal(IdempotencyRecord{State: IdempotencyComplete, Fingerprint: fingerprint, ResourceID: resourceID})
	if err != nil {
		return err
	}
	return i.client.Set(ctx, key, done, i.ttl).Err()
}

// Release forgets a claimed key so the client may retry after a failure.
func (i *Idempotency) Release(ctx context.Context, key string) error {
	if !i.Enabled() {
		return nil
	}
	return i.client.Del(ctx, key).Err()
}

// Fingerprint hashes request parts in order. Each part is length-prefixed
// so ("ab","c") and ("a","bc") differ.
func Fingerprint(parts ...string) uint64 {
	h := xxhash.New64()
	var n [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		_, _ = h.Write(n[:])
		_, _ = h.Write([]byte(p))
	}
	return h.Sum64()
}
