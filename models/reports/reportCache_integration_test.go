package reports

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mmdatafocus/sales_report_backend/config"
	"github.com/mmdatafocus/sales_report_backend/utils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func startRedis(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "start redis container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opt, err := redis.ParseURL(uri)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	require.NoError(t, client.Ping(ctx).Err())

	config.SetRedisClient(client)
	t.Cleanup(func() {
		config.SetRedisClient(nil)
		_ = client.Close()
	})
}

func TestRedisSessionStore(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}
	startRedis(t)

	t.Setenv("REPORT_SESSION_TTL_SECONDS", "120")
	store := NewRedisSessionStore()
	ctx := utils.SetBusinessIdInContext(context.Background(), "biz-1")

	report := &CategorySalesReport{ID: "r-1", Breadcrumb: MonthlyBreadcrumb(), BreadcrumbText: "Main Report"}
	require.NoError(t, store.Save(ctx, SessionKindCategory, report.ID, report))

	ttl, err := config.GetRedisDB().TTL(ctx, "report:category:biz-1:r-1").Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= 120*time.Second, "ttl = %s", ttl)

	loaded, err := LoadSession[CategorySalesReport](ctx, store, SessionKindCategory, "r-1")
	require.NoError(t, err)
	assert.Equal(t, "Main Report", loaded.BreadcrumbText)

	other := utils.SetBusinessIdInContext(context.Background(), "biz-2")
	_, err = LoadSession[CategorySalesReport](other, store, SessionKindCategory, "r-1")
	assert.ErrorIs(t, err, ErrReportNotFound)

	updated, err := UpdateSession(ctx, store, SessionKindCategory, "r-1", func(r *CategorySalesReport) error {
		r.BreadcrumbText = "changed"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "changed", updated.BreadcrumbText)

	// A failing update leaves the stored report alone.
	_, err = UpdateSession(ctx, store, SessionKindCategory, "r-1", func(r *CategorySalesReport) error {
		r.BreadcrumbText = "lost"
		return ErrMissingContext
	})
	assert.ErrorIs(t, err, ErrMissingContext)
	loaded, err = LoadSession[CategorySalesReport](ctx, store, SessionKindCategory, "r-1")
	require.NoError(t, err)
	assert.Equal(t, "changed", loaded.BreadcrumbText)

	require.NoError(t, store.Delete(ctx, SessionKindCategory, "r-1"))
	_, err = LoadSession[CategorySalesReport](ctx, store, SessionKindCategory, "r-1")
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestRedisSessionLockIsExclusive(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}
	startRedis(t)

	store := NewRedisSessionStore()
	ctx := utils.SetBusinessIdInContext(context.Background(), "biz-1")

	unlock, err := store.Lock(ctx, SessionKindSupplier, "r-2")
	require.NoError(t, err)

	started := time.Now()
	_, err = store.Lock(ctx, SessionKindSupplier, "r-2")
	assert.True(t, errors.Is(err, ErrReportBusy), "second lock err = %v", err)
	assert.Less(t, time.Since(started), time.Second, "a held lock is reported without waiting")

	ttl, err := config.GetRedisDB().PTTL(ctx, "lock:report:supplier:biz-1:r-2").Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= sessionLockTTL, "lock ttl = %s", ttl)

	unlock()
	unlockAgain, err := store.Lock(ctx, SessionKindSupplier, "r-2")
	require.NoError(t, err)
	unlockAgain()
}

func TestRedisSessionStoreNotReady(t *testing.T) {
	config.SetRedisClient(nil)
	store := NewRedisSessionStore()
	ctx := utils.SetBusinessIdInContext(context.Background(), "biz-1")

	_, err := store.Lock(ctx, SessionKindCategory, "r-1")
	assert.ErrorIs(t, err, utils.ErrorRedisNotReady)
	err = store.Save(ctx, SessionKindCategory, "r-1", &CategorySalesReport{})
	assert.ErrorIs(t, err, utils.ErrorRedisNotReady)
}
