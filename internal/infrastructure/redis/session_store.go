package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/prestamos-api/internal/application/ports"
	"github.com/jhoicas/prestamos-api/internal/domain/loan"
)

const (
	draftPrefix  = "prestamos:draft:"
	returnPrefix = "prestamos:return:"
)

// SessionStore implementa ports.SessionStore. Cada guardado renueva la expiración.
type SessionStore struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewSessionStore(rdb *goredis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &SessionStore{rdb: rdb, ttl: ttl}
}

var _ ports.SessionStore = (*SessionStore)(nil)

func (s *SessionStore) SaveDraft(ctx context.Context, d *loan.Draft) error {
	return s.set(ctx, draftPrefix+d.ID, d)
}

func (s *SessionStore) GetDraft(ctx context.Context, id string) (*loan.Draft, error) {
	var d loan.Draft
	found, err := s.get(ctx, draftPrefix+id, &d)
	if err != nil || !found {
		return nil, err
	}
	return &d, nil
}

func (s *SessionStore) DeleteDraft(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, draftPrefix+id).Err()
}

func (s *SessionStore) SaveReturnSession(ctx context.Context, rs *loan.ReturnSession) error {
	return s.set(ctx, returnPrefix+rs.ID, rs)
}

func (s *SessionStore) GetReturnSession(ctx context.Context, id string) (*loan.ReturnSession, error) {
	var rs loan.ReturnSession
	found, err := s.get(ctx, returnPrefix+id, &rs)
	if err != nil || !found {
		return nil, err
	}
	return &rs, nil
}

func (s *SessionStore) DeleteReturnSession(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, returnPrefix+id).Err()
}

func (s *SessionStore) set(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("redis: serializar %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, key, b, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis: guardar %s: %w", key, err)
	}
	return nil
}

func (s *SessionStore) get(ctx context.Context, key string, out any) (bool, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis: leer %s: %w", key, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, fmt.Errorf("redis: decodificar %s: %w", key, err)
	}
	return true, nil
}
