package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/sales_report_backend/config"
	"github.com/mmdatafocus/sales_report_backend/utils"
	"github.com/sirupsen/logrus"
)

const (
	sessionLockTTL     = 30 * time.Second
	sessionLockRefresh = 10 * time.Second
)

func logSlowReport(ctx context.Context, name string, started time.Time, extra map[string]any) {
	d := time.Since(started)
	if d < config.ReportSlowThreshold() {
		return
	}
	biz, _ := utils.GetBusinessIdFromContext(ctx)
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	config.GetLogger().WithFields(logrus.Fields{
		"report":         name,
		"ms":             d.Milliseconds(),
		"business_id":    biz,
		"correlation_id": cid,
		"extra":          extra,
	}).Warn("slow_report")
}

// SessionStore keeps report sessions between requests. Lock serializes
// updates of one report; the returned func releases it.
type SessionStore interface {
	Load(ctx context.Context, kind string, id string, dest any) (bool, error)
	Save(ctx context.Context, kind string, id string, report any) error
	Delete(ctx context.Context, kind string, id string) error
	Lock(ctx context.Context, kind string, id string) (func(), error)
}

// sessionKey scopes a report id to the caller's business.
func sessionKey(ctx context.Context, kind string, id string) string {
	biz, _ := utils.GetBusinessIdFromContext(ctx)
	if biz == "" {
		return fmt.Sprintf("report:%s:%s", kind, id)
	}
	return fmt.Sprintf("report:%s:%s:%s", kind, biz, id)
}

// RedisSessionStore keeps sessions as JSON in the shared Redis client.
type RedisSessionStore struct {
	ttl time.Duration
}

func NewRedisSessionStore() *RedisSessionStore {
	return &RedisSessionStore{ttl: config.ReportSessionTTL()}
}

func (s *RedisSessionStore) Load(ctx context.Context, kind string, id string, dest any) (bool, error) {
	if config.GetRedisDB() == nil {
		return false, utils.ErrorRedisNotReady
	}
	return config.GetRedisObject(ctx, sessionKey(ctx, kind, id), dest)
}

func (s *RedisSessionStore) Save(ctx context.Context, kind string, id string, report any) error {
	if config.GetRedisDB() == nil {
		return utils.ErrorRedisNotReady
	}
	return config.SetRedisObject(ctx, sessionKey(ctx, kind, id), report, s.ttl)
}

func (s *RedisSessionStore) Delete(ctx context.Context, kind string, id string) error {
	return config.RemoveRedisKey(ctx, sessionKey(ctx, kind, id))
}

// Lock takes the report lock in a single attempt; a held lock is
// ErrReportBusy. The lock is refreshed until released so a long rebuild
// keeps it.
func (s *RedisSessionStore) Lock(ctx context.Context, kind string, id string) (func(), error) {
	locker := config.GetRedisLock()
	if locker == nil {
		return nil, utils.ErrorRedisNotReady
	}
	lockKey := "lock:" + sessionKey(ctx, kind, id)
	lock, err := locker.Obtain(ctx, lockKey, sessionLockTTL, &redislock.Options{
		RetryStrategy: redislock.NoRetry(),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrReportBusy
	} else if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(sessionLockRefresh)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := lock.Refresh(context.Background(), sessionLockTTL, nil); err != nil {
					config.GetLogger().WithFields(logrus.Fields{"lock": lockKey}).Warn("report lock refresh failed: " + err.Error())
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			// release with a fresh context; the request context may be cancelled
			_ = lock.Release(context.Background())
		})
	}, nil
}

// MemorySessionStore is a process-local SessionStore for the CLI and tests.
type MemorySessionStore struct {
	mu   sync.Mutex
	data map[string][]byte
	held map[string]bool
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		data: make(map[string][]byte),
		held: make(map[string]bool),
	}
}

func (s *MemorySessionStore) Load(ctx context.Context, kind string, id string, dest any) (bool, error) {
	s.mu.Lock()
	raw, ok := s.data[sessionKey(ctx, kind, id)]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *MemorySessionStore) Save(ctx context.Context, kind string, id string, report any) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[sessionKey(ctx, kind, id)] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, kind string, id string) error {
	s.mu.Lock()
	delete(s.data, sessionKey(ctx, kind, id))
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Lock(ctx context.Context, kind string, id string) (func(), error) {
	key := sessionKey(ctx, kind, id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.held[key] {
		return nil, ErrReportBusy
	}
	s.held[key] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.held, key)
			s.mu.Unlock()
		})
	}, nil
}

// UpdateSession loads a report under its lock, applies fn and saves the
// result. Nothing is saved when fn fails.
func UpdateSession[T any](ctx context.Context, store SessionStore, kind string, id string, fn func(*T) error) (*T, error) {
	unlock, err := store.Lock(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	report := new(T)
	found, err := store.Load(ctx, kind, id, report)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrReportNotFound
	}
	if err := fn(report); err != nil {
		return nil, err
	}
	if err := store.Save(ctx, kind, id, report); err != nil {
		return nil, err
	}
	return report, nil
}

// LoadSession reads a report without locking it.
func LoadSession[T any](ctx context.Context, store SessionStore, kind string, id string) (*T, error) {
	report := new(T)
	found, err := store.Load(ctx, kind, id, report)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrReportNotFound
	}
	return report, nil
}
