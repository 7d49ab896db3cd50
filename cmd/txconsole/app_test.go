package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type coordinator struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]string
	url   string
}

func (c *coordinator) called(call string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, v := range c.calls {
		if v == call {
			return true
		}
	}
	return false
}

func newCoordinator(t *testing.T) *coordinator {
	gin.SetMode(gin.TestMode)
	co := &coordinator{fail: map[string]string{}}
	router := gin.New()
	router.Use(func(c *gin.Context) {
		call := c.Request.Method + " " + c.Request.URL.Path
		co.mu.Lock()
		co.calls = append(co.calls, call)
		msg, failed := co.fail[call]
		co.mu.Unlock()
		if failed {
			c.AbortWithStatusJSON(http.StatusOK, gin.H{"success": false, "message": msg})
		}
	})
	router.GET("/console/globalSession/query", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "total": 1, "data": []gin.H{{
			"xid": "a", "transactionId": 1, "applicationId": "order", "status": 10, "beginTime": 1700000000000,
			"branchSessionVOs": []gin.H{{"xid": "a", "branchId": 7, "branchType": "TCC", "status": 6, "resourceId": "stock"}},
		}}})
	})
	router.GET("/console/globalLock/query", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "total": 1, "data": []gin.H{{
			"xid": "a", "branchId": 7, "tableName": "stock", "pk": "1", "gmtCreate": 1700000000000,
		}}})
	})
	router.GET("/console/globalLock/check", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": true})
	})
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	co.url = srv.URL
	return co
}

func executeRootCommand(t *testing.T, co *coordinator, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TXCONSOLE_CONFIG", "")
	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stdout)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--server", co.url}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestSessionsList(t *testing.T) {
	co := newCoordinator(t)
	out, err := executeRootCommand(t, co, "", "sessions", "list", "--status", "CommitFailed", "-b")
	require.NoError(t, err)
	assert.Contains(t, out, "2023-11-14 22:13:20")
	assert.Contains(t, out, "CommitFailed")
	assert.Contains(t, out, "page 1, 1 of 1 sessions")
	assert.Contains(t, out, "Branches of a")
	assert.Contains(t, out, "PhaseTwo_CommitFailed_Retryable")

	_, err = executeRootCommand(t, co, "", "sessions", "list", "--status", "Sleeping")
	assert.Error(t, err)
}

func TestSessionsShow(t *testing.T) {
	co := newCoordinator(t)
	out, err := executeRootCommand(t, co, "", "sessions", "show", "a")
	require.NoError(t, err)
	assert.Contains(t, out, "stock")

	_, err = executeRootCommand(t, co, "", "sessions", "show", "missing")
	assert.EqualError(t, err, "global session missing not found")
}

func TestSessionsDeleteAndAudit(t *testing.T) {
	co := newCoordinator(t)
	out, err := executeRootCommand(t, co, "y\nn\n", "sessions", "delete", "a")
	require.NoError(t, err)
	assert.Contains(t, out, "Are you sure you want to delete global transactions")
	assert.Contains(t, out, "Cancelled")
	assert.False(t, co.called("POST /console/globalSession/delete"))

	out, err = executeRootCommand(t, co, "", "sessions", "delete", "a", "-y", "--operator", "ops")
	require.NoError(t, err)
	assert.Contains(t, out, "Warning")
	assert.Contains(t, out, "Delete successfully")
	assert.True(t, co.called("POST /console/globalSession/delete"))

	out, err = executeRootCommand(t, co, "", "audit", "list", "a")
	require.NoError(t, err)
	assert.Contains(t, out, "deleteGlobalSession")
	assert.Contains(t, out, "ops")
}

func TestActionFailure(t *testing.T) {
	co := newCoordinator(t)
	co.fail["PUT /console/globalSession/start"] = "xid not found"
	_, err := executeRootCommand(t, co, "y\n", "sessions", "start", "a")
	assert.EqualError(t, err, "xid not found")
}

func TestBranches(t *testing.T) {
	co := newCoordinator(t)
	out, err := executeRootCommand(t, co, "", "branches", "retry", "a", "7", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Please check if this may affect the logic of other branches.")
	assert.Contains(t, out, "Stop successfully")
	assert.True(t, co.called("PUT /console/branchSession/stop"))

	_, err = executeRootCommand(t, co, "", "branches", "delete", "a", "99", "-y")
	assert.EqualError(t, err, "branch 99 not found in global session a")
}

func TestLocks(t *testing.T) {
	co := newCoordinator(t)
	out, err := executeRootCommand(t, co, "", "locks", "list", "--table", "stock")
	require.NoError(t, err)
	assert.Contains(t, out, "page 1, 1 of 1 locks")

	out, err = executeRootCommand(t, co, "", "locks", "check", "a", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "held")

	out, err = executeRootCommand(t, co, "", "locks", "delete", "a", "7", "-y")
	require.NoError(t, err)
	assert.Contains(t, out, "Delete successfully")
	assert.True(t, co.called("DELETE /console/globalLock/delete"))
}

func TestWatchOnce(t *testing.T) {
	co := newCoordinator(t)
	out, err := executeRootCommand(t, co, "", "watch", "--count", "1", "--interval", "10ms")
	require.NoError(t, err)
	assert.Contains(t, out, "CommitFailed")

	_, err = executeRootCommand(t, co, "", "watch", "--interval", "0s")
	assert.Error(t, err)
}

func TestMetricsRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := metricsRouter()
	for _, path := range []string{"/healthz", "/metrics"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestStatusesAndBadConfig(t *testing.T) {
	co := newCoordinator(t)
	out, err := executeRootCommand(t, co, "", "statuses")
	require.NoError(t, err)
	assert.Contains(t, out, "TimeoutRollbackRetrying")
	assert.Contains(t, out, "Stop_Retry")

	co.url = "localhost:7091"
	_, err = executeRootCommand(t, co, "", "statuses")
	assert.Error(t, err)
}

func TestAuditStoreUnreachable(t *testing.T) {
	co := newCoordinator(t)
	t.Setenv("TXCONSOLE_STORE_DRIVER", "mysql")
	t.Setenv("TXCONSOLE_STORE_HOST", "127.0.0.1")
	t.Setenv("TXCONSOLE_STORE_PORT", "1")
	_, err := executeRootCommand(t, co, "", "audit", "list")
	assert.Error(t, err)
}
