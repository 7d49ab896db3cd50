package console

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeBackend struct {
	mu        sync.Mutex
	queryFn   func(q GlobalSessionQuery) (*GlobalSessionPage, error)
	queries   []GlobalSessionQuery
	actions   []string
	actionErr error
	locks     []RawGlobalLock
	lockQuery []GlobalLockQuery
	held      bool
}

func (f *fakeBackend) QueryGlobalSessions(ctx context.Context, q GlobalSessionQuery) (*GlobalSessionPage, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	fn := f.queryFn
	f.mu.Unlock()
	if fn == nil {
		return &GlobalSessionPage{}, nil
	}
	return fn(q)
}

func (f *fakeBackend) GlobalAction(ctx context.Context, a Action, s GlobalSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, a.String()+":"+s.Xid)
	return f.actionErr
}

func (f *fakeBackend) BranchAction(ctx context.Context, a Action, b BranchSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, a.String()+":"+b.Xid+"/"+b.BranchID)
	return f.actionErr
}

func (f *fakeBackend) QueryGlobalLocks(ctx context.Context, q GlobalLockQuery) (*GlobalLockPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lockQuery = append(f.lockQuery, q)
	return &GlobalLockPage{Data: f.locks, Total: int64(len(f.locks))}, nil
}

func (f *fakeBackend) DeleteGlobalLock(ctx context.Context, l GlobalLock) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, "deleteGlobalLock:"+l.Xid+"/"+l.Pk)
	return f.actionErr
}

func (f *fakeBackend) CheckGlobalLock(ctx context.Context, xid, branchID string) (bool, error) {
	return f.held, nil
}

func (f *fakeBackend) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeBackend) sentActions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.actions...)
}

func pageOf(rows ...RawGlobalSession) func(q GlobalSessionQuery) (*GlobalSessionPage, error) {
	return func(q GlobalSessionQuery) (*GlobalSessionPage, error) {
		return &GlobalSessionPage{Data: rows, Total: int64(len(rows))}, nil
	}
}

func TestNotificationText(t *testing.T) {
	assert.Equal(t, "xid not found", NotificationText(&BackendError{Status: 400, Message: "xid not found"}, FailureText))
	assert.Equal(t, FailureText, NotificationText(&BackendError{Status: 500}, FailureText))

	terr := &TransportError{Op: "GET /x", Err: context.DeadlineExceeded}
	assert.Equal(t, FailureText, NotificationText(terr, FailureText))
	assert.True(t, errors.Is(terr, ErrTransport))
	assert.True(t, errors.Is(terr, context.DeadlineExceeded))
	assert.False(t, errors.Is(&BackendError{}, ErrTransport))
}

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", RequestIDFrom(ctx))
	assert.Equal(t, "r1", RequestIDFrom(WithRequestID(ctx, "r1")))
}
