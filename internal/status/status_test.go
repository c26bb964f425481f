package status

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"Tabcast/internal/entity"
	"Tabcast/internal/session"
	"Tabcast/internal/tab"
	"Tabcast/internal/test"
	"Tabcast/pkg/clock"
	"Tabcast/pkg/db"
	"Tabcast/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logger log.Logger

var ctx = context.Background()

func TestMain(m *testing.M) {
	logger = log.Nop()
	os.Exit(m.Run())
}

func newSQLiteRepository(t *testing.T) Repository {
	t.Helper()
	sqlite, dberr := db.OpenSQLite(ctx, logger, filepath.Join(t.TempDir(), "status.db"))
	require.NoError(t, dberr)
	t.Cleanup(func() { _ = sqlite.CloseDbConnection(ctx) })
	return NewSQLiteRepository(sqlite)
}

// Redis repository on test db 1, skipped when no server answers.
func newRedisRepository(t *testing.T) Repository {
	t.Helper()
	port, _ := strconv.Atoi(os.Getenv("REDIS_PORT"))
	if port == 0 {
		port = 6379
	}
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost"
	}
	client, dberr := db.NewDbConnection(ctx, logger, db.RedisOptions{Addr: addr, Port: port, Password: os.Getenv("REDIS_PASSWORD"), DB: 1})
	require.NoError(t, dberr)
	if client.CheckDbConnection(ctx, logger) != nil {
		t.Skip("redis-server is not reachable")
	}
	t.Cleanup(func() {
		client.CleanTestDbData(ctx, logger)
		_ = client.CloseDbConnection(ctx)
	})
	return NewRepository(client)
}

func exerciseRepository(t *testing.T, repo Repository) {
	sessionID := session.NewSessionID()
	first := entity.TabStatus{SessionID: sessionID, TabID: 2, UserID: "alice", QueueDepth: 3, Timestamp: 1000, Served: false}
	second := entity.TabStatus{SessionID: sessionID, TabID: 1, Timestamp: 1001, Served: true}

	require.NoError(t, repo.SaveTabStatus(ctx, logger, first))
	require.NoError(t, repo.SaveTabStatus(ctx, logger, second))
	require.NoError(t, repo.SaveTabStatus(ctx, logger, entity.TabStatus{SessionID: "other", TabID: 1, Timestamp: 5}))

	statuses, err := repo.ListTabStatus(ctx, logger, sessionID)
	require.NoError(t, err)
	assert.Equal(t, []entity.TabStatus{second, first}, statuses)

	first.QueueDepth = 0
	first.Served = true
	first.Timestamp = 2000
	require.NoError(t, repo.SaveTabStatus(ctx, logger, first))
	require.NoError(t, repo.DeleteTabStatus(ctx, logger, sessionID, 1))

	statuses, err = repo.ListTabStatus(ctx, logger, sessionID)
	require.NoError(t, err)
	assert.Equal(t, []entity.TabStatus{first}, statuses)

	statuses, err = repo.ListTabStatus(ctx, logger, "missing")
	require.NoError(t, err)
	assert.Empty(t, statuses)
}

func TestSQLiteRepository(t *testing.T) {
	exerciseRepository(t, newSQLiteRepository(t))
}

func TestRedisRepository(t *testing.T) {
	exerciseRepository(t, newRedisRepository(t))
}

func TestListenerPersistsTabLifecycle(t *testing.T) {
	repo := newSQLiteRepository(t)
	service := NewService(repo, logger)
	go service.Listen(ctx)

	clk := clock.NewManual(time.Unix(1_700_000_000, 0))
	table := session.NewTable(tab.Config{
		Policy:   tab.TimeoutPolicy{PollTimeout: time.Minute, IdleTimeout: time.Hour},
		Clock:    clk,
		Listener: service,
	}, nil)
	sess := table.GetOrCreate(session.NewSessionID())
	kept := sess.CreateTab("bob")
	closed := sess.CreateTab("")
	require.NoError(t, sess.Send(kept, json.RawMessage(`1`)))
	require.NoError(t, sess.Send(closed, json.RawMessage(`1`)))
	require.NoError(t, sess.CloseTab(closed))

	// Cleanup flushes every queued write
	require.NoError(t, service.Cleanup(ctx))

	statuses, err := repo.ListTabStatus(ctx, logger, sess.ID())
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, kept, statuses[0].TabID)
	assert.Equal(t, "bob", statuses[0].UserID)
	assert.Equal(t, 1, statuses[0].QueueDepth)
	assert.Equal(t, clk.Now().UnixMilli(), statuses[0].Timestamp)
}

func TestSessionStatusWithoutStore(t *testing.T) {
	service := NewService(nil, logger)
	require.NoError(t, service.Cleanup(ctx))

	table := session.NewTable(tab.Config{Policy: tab.TimeoutPolicy{PollTimeout: time.Minute, IdleTimeout: time.Hour}, Listener: service}, nil)
	sess := table.GetOrCreate(session.NewSessionID())
	id := sess.CreateTab("carol")
	require.NoError(t, sess.Send(id, json.RawMessage(`{}`)))

	statuses, err := service.SessionStatus(ctx, sess)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, 1, statuses[0].QueueDepth)
	assert.Equal(t, "carol", statuses[0].UserID)
}

func TestStatusAPI(t *testing.T) {
	service := NewService(nil, logger)
	table := session.NewTable(tab.Config{Policy: tab.TimeoutPolicy{PollTimeout: time.Minute, IdleTimeout: time.Hour}}, nil)
	sess := table.GetOrCreate(session.NewSessionID())
	sess.CreateTab("")
	sess.CreateTab("")

	router := test.MockRouter()
	withSession := func(gctx *gin.Context) {
		gctx.Set("Session", sess)
		gctx.Next()
	}
	APIHandlers(router, service, withSession, logger)

	res := test.ExecuteAPITest(logger, t, router, test.RequestAPITest{
		Method:       http.MethodGet,
		Path:         "/api/tabs/status",
		WantResponse: []int{http.StatusOK},
	})
	var body struct {
		Tabs []entity.TabStatus `json:"tabs"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Len(t, body.Tabs, 2)
	assert.Equal(t, uint64(1), body.Tabs[0].TabID)
	assert.Equal(t, uint64(2), body.Tabs[1].TabID)

	broken := test.MockRouter()
	APIHandlers(broken, service, func(gctx *gin.Context) { gctx.Next() }, logger)
	test.ExecuteAPITest(logger, t, broken, test.RequestAPITest{
		Method:       http.MethodGet,
		Path:         "/api/tabs/status",
		WantResponse: []int{http.StatusInternalServerError},
	})
}
