// Package redisrepo backs the session store with Redis so session state
// survives process restarts and can be shared by replicas. Records are
// stored as JSON under "session:<scope>:<sessionID>" with the configured
// max-age as TTL, so cookie-scope expiry is enforced by Redis itself.
package redisrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/jrsteele09/go-tenant-bridge/sessions"
)

type Repo struct {
	client *redis.Client
	maxAge time.Duration
}

func New(client *redis.Client, maxAge time.Duration) *Repo {
	return &Repo{
		client: client,
		maxAge: maxAge,
	}
}

var _ sessions.Repo = (*Repo)(nil)

func (r *Repo) Get(ctx context.Context, scope sessions.Scope, sessionID string) (sessions.Record, error) {
	data, err := r.client.Get(ctx, sessionKey(scope, sessionID)).Bytes()
	if err == redis.Nil {
		return sessions.Record{}, sessions.ErrNotFound
	}
	if err != nil {
		return sessions.Record{}, errors.Wrap(err, "[redisrepo.Get] redis GET")
	}

	var record sessions.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return sessions.Record{}, errors.Wrap(err, "[redisrepo.Get] unmarshal record")
	}
	return record, nil
}

// Set writes the record and returns only after Redis acknowledges the
// write, so a subsequent Get observes it.
func (r *Repo) Set(ctx context.Context, scope sessions.Scope, sessionID string, record sessions.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "[redisrepo.Set] marshal record")
	}
	if err := r.client.Set(ctx, sessionKey(scope, sessionID), data, r.maxAge).Err(); err != nil {
		return errors.Wrap(err, "[redisrepo.Set] redis SET")
	}
	return nil
}

func (r *Repo) Destroy(ctx context.Context, scope sessions.Scope, sessionID string) error {
	if err := r.client.Del(ctx, sessionKey(scope, sessionID)).Err(); err != nil {
		return errors.Wrap(err, "[redisrepo.Destroy] redis DEL")
	}
	return nil
}

func sessionKey(scope sessions.Scope, sessionID string) string {
	return fmt.Sprintf("session:%s:%s", scope, sessionID)
}
