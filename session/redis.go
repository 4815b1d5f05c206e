package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisapi "github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "zeroauth-session"

	defaultOpTimeout = 10 * time.Second
)

// RedisStore keeps sessions in redis as JSON documents with a key TTL
// matching the session deadline. Reads still guard on expires_at, since a
// document can outlive its logical deadline by a sweep cycle.
type RedisStore struct {
	client    *redisapi.Client
	opTimeout time.Duration
}

func NewRedisStore(client *redisapi.Client) *RedisStore {
	return &RedisStore{
		client:    client,
		opTimeout: defaultOpTimeout,
	}
}

func (s *RedisStore) Create(ctx context.Context, sess *Session) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %v", err)
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := s.client.Set(ctx, resolveRedisKey(sess.ID), b, ttl).Err(); err != nil {
		return fmt.Errorf("session set failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	sess, err := s.get(ctx, s.client, id)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *RedisStore) get(ctx context.Context, c redisapi.Cmdable, id string) (*Session, error) {
	b, err := c.Get(ctx, resolveRedisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redisapi.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session find failed: %w", err)
	}

	sess := &Session{}
	if err := json.Unmarshal(b, sess); err != nil {
		return nil, fmt.Errorf("session decode failed: %w", err)
	}
	if sess.Expired(time.Now()) {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Complete performs the PENDING to COMPLETED transition under an optimistic
// WATCH so two concurrent submissions cannot both win.
func (s *RedisStore) Complete(ctx context.Context, id string, proof json.RawMessage, proofHash string) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	key := resolveRedisKey(id)
	var completed *Session

	txf := func(tx *redisapi.Tx) error {
		sess, err := s.get(ctx, tx, id)
		if err != nil {
			return err
		}
		if sess.Status == StatusCompleted {
			if sess.ProofHash == proofHash {
				return ErrDuplicateProof
			}
			return ErrAlreadyCompleted
		}

		sess.Status = StatusCompleted
		sess.Proof = proof
		sess.ProofHash = proofHash

		b, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("failed to encode session: %v", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redisapi.Pipeliner) error {
			pipe.Set(ctx, key, b, redisapi.KeepTTL)
			return nil
		})
		if err != nil {
			return err
		}
		completed = sess
		return nil
	}

	for {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redisapi.TxFailedErr) {
			// Lost the race; re-read and report the losing condition.
			continue
		}
		if err != nil {
			return nil, err
		}
		return completed, nil
	}
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.client.Del(ctx, resolveRedisKey(id)).Err(); err != nil {
		return fmt.Errorf("session delete failed: %w", err)
	}
	return nil
}

// DeleteExpired removes documents whose logical deadline passed before the
// redis key TTL reclaimed them. Redis handles the common case on its own.
func (s *RedisStore) DeleteExpired(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	var (
		cursor  uint64
		deleted int
		now     = time.Now()
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, redisKeyPrefix+"-*", 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("session scan failed: %w", err)
		}
		for _, key := range keys {
			b, err := s.client.Get(ctx, key).Bytes()
			if err != nil {
				continue
			}
			sess := &Session{}
			if err := json.Unmarshal(b, sess); err != nil || !sess.Expired(now) {
				continue
			}
			if err := s.client.Del(ctx, key).Err(); err == nil {
				deleted++
			}
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

func resolveRedisKey(id string) string {
	return fmt.Sprintf("%s-%s", redisKeyPrefix, id)
}
