package console

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/slievrly/seata/console/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedPrompter struct {
	answers []bool
	prompts []Prompt
	err     error
}

func (p *scriptedPrompter) Confirm(ctx context.Context, pr Prompt) (bool, error) {
	p.prompts = append(p.prompts, pr)
	if p.err != nil {
		return false, p.err
	}
	if len(p.answers) == 0 {
		return false, nil
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

type countingRefresher struct{ n int }

func (r *countingRefresher) Search(ctx context.Context) error {
	r.n++
	return nil
}

var sessionA = GlobalSession{Xid: "a", Status: GlobalCommitFailed}

func TestDeleteGlobalWalksBothConfirmations(t *testing.T) {
	b := &fakeBackend{}
	r := &countingRefresher{}
	d := NewDispatcher(b, WithRefresher(r))
	ctx := context.Background()

	inv, err := d.Begin(ActionDeleteGlobal, GlobalTarget(sessionA))
	require.NoError(t, err)
	assert.Equal(t, StageConfirmRequested, inv.Stage())
	p, ok := inv.Prompt()
	require.True(t, ok)
	assert.Equal(t, Prompt{Title: "Confirm", Content: "Are you sure you want to delete global transactions"}, p)

	n, err := inv.Confirm(ctx)
	require.NoError(t, err)
	assert.Nil(t, n)
	assert.Equal(t, StageRiskConfirmRequested, inv.Stage())
	p, _ = inv.Prompt()
	assert.Equal(t, "Warning", p.Title)
	assert.Equal(t, CommonWarning+"\n", p.Content)
	assert.Empty(t, b.sentActions())

	n, err = inv.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Notice{Level: NoticeSuccess, Text: "Delete successfully"}, n)
	assert.Equal(t, StageSucceeded, inv.Stage())
	assert.Equal(t, []string{"deleteGlobalSession:a"}, b.sentActions())
	assert.Equal(t, 1, r.n)
	_, ok = inv.Prompt()
	assert.False(t, ok)

	_, err = inv.Confirm(ctx)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.True(t, errors.Is(inv.Cancel(), ErrInvalidTransition))
}

func TestCancelReturnsToIdle(t *testing.T) {
	b := &fakeBackend{}
	d := NewDispatcher(b)
	ctx := context.Background()

	inv, err := d.Begin(ActionForceDeleteGlobal, GlobalTarget(sessionA))
	require.NoError(t, err)
	require.NoError(t, inv.Cancel())
	assert.Equal(t, StageIdle, inv.Stage())

	inv, _ = d.Begin(ActionForceDeleteBranch, BranchTarget(BranchSession{Xid: "a", BranchID: "1", BranchType: BranchSAGA}))
	_, err = inv.Confirm(ctx)
	require.NoError(t, err)
	p, _ := inv.Prompt()
	assert.Equal(t, CommonWarning+"\n"+forceDeleteWarning, p.Content)
	require.NoError(t, inv.Cancel())
	assert.Equal(t, StageIdle, inv.Stage())
	assert.Empty(t, b.sentActions())
	assert.Nil(t, inv.Notice())
}

func TestSafeActionsSkipRiskConfirmation(t *testing.T) {
	for _, a := range []Action{ActionStartGlobal, ActionStopGlobal, ActionCommitOrRollbackGlobal, ActionChangeGlobalStatus} {
		b := &fakeBackend{}
		d := NewDispatcher(b)
		inv, err := d.Begin(a, GlobalTarget(sessionA))
		require.NoError(t, err)
		n, err := inv.Confirm(context.Background())
		require.NoError(t, err)
		require.NotNil(t, n, a.String())
		assert.Equal(t, NoticeSuccess, n.Level)
		assert.Equal(t, []string{a.String() + ":a"}, b.sentActions())
	}
}

func TestFailedActionKeepsList(t *testing.T) {
	b := &fakeBackend{queryFn: pageOf(RawGlobalSession{Xid: "a", Status: int(GlobalCommitFailed)})}
	sessions := newTestSessions(b)
	ctx := context.Background()
	require.NoError(t, sessions.Search(ctx))
	before := sessions.Snapshot()

	b.actionErr = &BackendError{Op: "POST /console/globalSession/delete", Status: 400, Message: "xid not found"}
	d := NewDispatcher(b, WithRefresher(sessions))
	failedBefore := testutil.ToFloat64(actionTotal.WithLabelValues("deleteGlobalSession", "failed"))
	n, err := d.Run(ctx, ActionDeleteGlobal, GlobalTarget(before.Rows[0]), &scriptedPrompter{answers: []bool{true, true}})
	require.NoError(t, err)
	assert.Equal(t, &Notice{Level: NoticeError, Text: "xid not found"}, n)

	after := sessions.Snapshot()
	assert.False(t, after.Loading)
	assert.Equal(t, before.Rows, after.Rows)
	assert.Equal(t, 1, b.queryCount())
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(actionTotal.WithLabelValues("deleteGlobalSession", "failed")))
}

func TestFailureWithoutMessage(t *testing.T) {
	b := &fakeBackend{actionErr: &TransportError{Op: "PUT /x", Err: errors.New("connection refused")}}
	d := NewDispatcher(b)
	inv, _ := d.Begin(ActionStartGlobal, GlobalTarget(sessionA))
	n, err := inv.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Notice{Level: NoticeError, Text: FailureText}, n)
	assert.Equal(t, StageFailed, inv.Stage())
	assert.True(t, errors.Is(inv.Err(), ErrTransport))
}

func TestRunWithPrompter(t *testing.T) {
	b := &fakeBackend{}
	d := NewDispatcher(b)
	ctx := context.Background()
	branch := BranchTarget(BranchSession{Xid: "a", BranchID: "7", BranchType: BranchTCC})

	p := &scriptedPrompter{answers: []bool{true, false}}
	n, err := d.Run(ctx, ActionStopBranch, branch, p)
	require.NoError(t, err)
	assert.Nil(t, n)
	require.Len(t, p.prompts, 2)
	assert.Equal(t, "Are you sure you want to stop branch transactions retry", p.prompts[0].Content)
	assert.Contains(t, p.prompts[1].Content, "Please check if this may affect the logic of other branches.")
	assert.Empty(t, b.sentActions())

	p = &scriptedPrompter{answers: []bool{true, true}}
	n, err = d.Run(ctx, ActionStopBranch, branch, p)
	require.NoError(t, err)
	assert.Equal(t, "Stop successfully", n.Text)
	assert.Equal(t, []string{"stopBranchSession:a/7"}, b.sentActions())

	p = &scriptedPrompter{answers: []bool{true}}
	n, err = d.Run(ctx, ActionStartBranch, branch, p)
	require.NoError(t, err)
	assert.Equal(t, "Start successfully", n.Text)
	assert.Len(t, p.prompts, 1)

	p = &scriptedPrompter{err: context.Canceled}
	_, err = d.Run(ctx, ActionDeleteBranch, branch, p)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBeginChecksTarget(t *testing.T) {
	d := NewDispatcher(&fakeBackend{})
	_, err := d.Begin(ActionStopBranch, GlobalTarget(sessionA))
	assert.Error(t, err)
	_, err = d.Begin(ActionStopGlobal, BranchTarget(BranchSession{Xid: "a"}))
	assert.Error(t, err)
	_, err = d.Begin(ActionDeleteGlobalLock, GlobalTarget(sessionA))
	assert.Error(t, err)
	_, err = d.Begin(ActionNone, GlobalTarget(sessionA))
	assert.Error(t, err)
}

func TestDeleteGlobalLockRefreshesLocks(t *testing.T) {
	b := &fakeBackend{locks: []RawGlobalLock{{Xid: "a", Pk: "1"}}}
	c := &Console{Sessions: newTestSessions(b), Locks: NewLockConsole(b, WithLocation(time.UTC))}
	c.Dispatcher = NewDispatcher(b, WithRefresher(c.Sessions))
	n, err := c.LockDispatcher().Run(context.Background(), ActionDeleteGlobalLock,
		LockTarget(GlobalLock{Xid: "a", Pk: "1"}), &scriptedPrompter{answers: []bool{true}})
	require.NoError(t, err)
	assert.Equal(t, NoticeSuccess, n.Level)
	assert.Equal(t, []string{"deleteGlobalLock:a/1"}, b.sentActions())
	assert.Len(t, b.lockQuery, 1)
	assert.Equal(t, 0, b.queryCount())
}

func TestActionsAreAudited(t *testing.T) {
	st := &storage.MemStore{}
	b := &fakeBackend{}
	d := NewDispatcher(b, WithAuditStore(st), WithOperator("ops@test"))
	ctx := context.Background()
	branch := BranchTarget(BranchSession{Xid: "audit-x", BranchID: "9", BranchType: BranchXA})

	_, err := d.Run(ctx, ActionDeleteBranch, branch, &scriptedPrompter{answers: []bool{true, true}})
	require.NoError(t, err)
	b.actionErr = &BackendError{Status: 500, Message: "branch busy"}
	_, err = d.Run(ctx, ActionForceDeleteBranch, branch, &scriptedPrompter{answers: []bool{true, true}})
	require.NoError(t, err)

	recs, err := st.ListActionRecords("audit-x", 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "forceDeleteBranchSession", recs[0].Action)
	assert.Equal(t, storage.ResultFailed, recs[0].Result)
	assert.Equal(t, "branch busy", recs[0].Message)
	assert.Equal(t, "deleteBranchSession", recs[1].Action)
	assert.Equal(t, storage.ResultSucceed, recs[1].Result)
	assert.Equal(t, "9", recs[1].BranchID)
	assert.Equal(t, "XA", recs[1].BranchType)
	assert.Equal(t, "ops@test", recs[1].Operator)
	assert.NotEmpty(t, recs[1].RequestID)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "RiskConfirmRequested", StageRiskConfirmRequested.String())
	assert.Equal(t, "9", Stage(9).String())
	assert.Equal(t, "-1", Stage(-1).String())
	to, ok := nextStage(StageConfirmRequested, evConfirm, true)
	assert.True(t, ok)
	assert.Equal(t, StageRiskConfirmRequested, to)
	to, ok = nextStage(StageConfirmRequested, evConfirm, false)
	assert.True(t, ok)
	assert.Equal(t, StageInFlight, to)
	_, ok = nextStage(StageIdle, evConfirm, false)
	assert.False(t, ok)
}
