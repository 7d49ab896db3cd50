/*
 * Copyright (c) 2021 yedf. All rights reserved.
 * Use of this source code is governed by a BSD-style
 * license that can be found in the LICENSE file.
 */

package console

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/slievrly/seata/common"
	"github.com/slievrly/seata/console/storage"
)

// Stage of a control action invocation
type Stage int

// invocation stages
const (
	StageIdle Stage = iota
	StageConfirmRequested
	StageRiskConfirmRequested
	StageInFlight
	StageSucceeded
	StageFailed
)

var stageNames = [...]string{"Idle", "ConfirmRequested", "RiskConfirmRequested", "InFlight", "Succeeded", "Failed"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return strconv.Itoa(int(s))
	}
	return stageNames[s]
}

type event int

const (
	evBegin event = iota
	evConfirm
	evCancel
	evSucceed
	evFail
)

type riskGuard int

const (
	anyRisk riskGuard = iota
	onlyRisky
	onlySafe
)

type transition struct {
	from  Stage
	ev    event
	guard riskGuard
	to    Stage
}

var transitions = []transition{
	{StageIdle, evBegin, anyRisk, StageConfirmRequested},
	{StageConfirmRequested, evConfirm, onlyRisky, StageRiskConfirmRequested},
	{StageConfirmRequested, evConfirm, onlySafe, StageInFlight},
	{StageConfirmRequested, evCancel, anyRisk, StageIdle},
	{StageRiskConfirmRequested, evConfirm, anyRisk, StageInFlight},
	{StageRiskConfirmRequested, evCancel, anyRisk, StageIdle},
	{StageInFlight, evSucceed, anyRisk, StageSucceeded},
	{StageInFlight, evFail, anyRisk, StageFailed},
}

func nextStage(from Stage, ev event, risky bool) (Stage, bool) {
	for _, t := range transitions {
		if t.from != from || t.ev != ev {
			continue
		}
		if t.guard == onlyRisky && !risky || t.guard == onlySafe && risky {
			continue
		}
		return t.to, true
	}
	return from, false
}

// ErrInvalidTransition is returned when an invocation is driven out of order
var ErrInvalidTransition = errors.New("console: invalid action transition")

// FailureText is shown when a failed action carries no message from the coordinator
const FailureText = "Operation failed"

// Prompt is a yes/no question put to the operator
type Prompt struct {
	Title   string
	Content string
}

// NoticeLevel of a notification
type NoticeLevel int

// notification levels
const (
	NoticeSuccess NoticeLevel = iota
	NoticeError
)

// Notice is the notification shown when an action finishes
type Notice struct {
	Level NoticeLevel
	Text  string
}

// Target is the row an action applies to. Exactly one field is set.
type Target struct {
	Global *GlobalSession
	Branch *BranchSession
	Lock   *GlobalLock
}

// GlobalTarget targets a global session
func GlobalTarget(s GlobalSession) Target { return Target{Global: &s} }

// BranchTarget targets a branch session
func BranchTarget(b BranchSession) Target { return Target{Branch: &b} }

// LockTarget targets a global lock
func LockTarget(l GlobalLock) Target { return Target{Lock: &l} }

func (t Target) xid() string {
	switch {
	case t.Global != nil:
		return t.Global.Xid
	case t.Branch != nil:
		return t.Branch.Xid
	case t.Lock != nil:
		return t.Lock.Xid
	}
	return ""
}

func (t Target) check(a Action) error {
	switch {
	case !a.Valid():
		return fmt.Errorf("unknown action %d", a)
	case a == ActionDeleteGlobalLock:
		if t.Lock == nil {
			return fmt.Errorf("%s needs a global lock target", a)
		}
	case a.IsBranch():
		if t.Branch == nil {
			return fmt.Errorf("%s needs a branch session target", a)
		}
	case t.Global == nil:
		return fmt.Errorf("%s needs a global session target", a)
	}
	return nil
}

// Refresher re-runs the current page fetch
type Refresher interface {
	Search(ctx context.Context) error
}

// Prompter asks the operator to confirm a prompt
type Prompter interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// Dispatcher runs control actions through confirm, risk confirm and execution
type Dispatcher struct {
	sessions  SessionBackend
	locks     LockBackend
	refresher Refresher
	store     storage.Store
	operator  string
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithRefresher sets the view refreshed after a successful action
func WithRefresher(r Refresher) DispatcherOption {
	return func(d *Dispatcher) { d.refresher = r }
}

// WithAuditStore records every executed action in store
func WithAuditStore(store storage.Store) DispatcherOption {
	return func(d *Dispatcher) { d.store = store }
}

// WithOperator names the operator in audit records
func WithOperator(name string) DispatcherOption {
	return func(d *Dispatcher) { d.operator = name }
}

// WithLockBackend enables global lock deletion
func WithLockBackend(l LockBackend) DispatcherOption {
	return func(d *Dispatcher) { d.locks = l }
}

// NewDispatcher creates a dispatcher sending session actions to backend
func NewDispatcher(backend SessionBackend, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{sessions: backend}
	if l, ok := backend.(LockBackend); ok {
		d.locks = l
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Invocation is one click of an action button
type Invocation struct {
	d      *Dispatcher
	action Action
	target Target

	mu     sync.Mutex
	stage  Stage
	notice *Notice
	err    error
}

// Begin starts an invocation of a on target, waiting for the first confirmation
func (d *Dispatcher) Begin(a Action, target Target) (*Invocation, error) {
	if err := target.check(a); err != nil {
		return nil, err
	}
	inv := &Invocation{d: d, action: a, target: target}
	inv.stage, _ = nextStage(StageIdle, evBegin, false)
	return inv, nil
}

// Action of the invocation
func (inv *Invocation) Action() Action { return inv.action }

// Stage returns the current stage
func (inv *Invocation) Stage() Stage {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.stage
}

// Err is the failure cause once the invocation failed
func (inv *Invocation) Err() error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.err
}

// Notice is the final notification, nil until the action finished
func (inv *Invocation) Notice() *Notice {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.notice
}

func (inv *Invocation) risky() bool {
	return HasRisk(inv.action)
}

func (inv *Invocation) branchType() BranchType {
	if inv.target.Branch != nil {
		return inv.target.Branch.BranchType
	}
	return ""
}

// Prompt returns the question of a confirmation stage
func (inv *Invocation) Prompt() (Prompt, bool) {
	switch inv.Stage() {
	case StageConfirmRequested:
		return Prompt{Title: "Confirm", Content: actionInfos[inv.action].confirm}, true
	case StageRiskConfirmRequested:
		return Prompt{Title: "Warning", Content: RiskMessage(inv.action, inv.branchType())}, true
	}
	return Prompt{}, false
}

// Cancel returns a waiting invocation to idle
func (inv *Invocation) Cancel() error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	to, ok := nextStage(inv.stage, evCancel, inv.risky())
	if !ok {
		return fmt.Errorf("%w: cancel in %s", ErrInvalidTransition, inv.stage)
	}
	inv.stage = to
	return nil
}

// Confirm answers yes to the current prompt. When no further confirmation is needed the
// action is sent and the resulting notice returned; otherwise the notice is nil.
// Coordinator failures end up in the notice, not in the returned error.
func (inv *Invocation) Confirm(ctx context.Context) (*Notice, error) {
	inv.mu.Lock()
	to, ok := nextStage(inv.stage, evConfirm, inv.risky())
	if !ok {
		defer inv.mu.Unlock()
		return nil, fmt.Errorf("%w: confirm in %s", ErrInvalidTransition, inv.stage)
	}
	inv.stage = to
	inv.mu.Unlock()
	if to != StageInFlight {
		return nil, nil
	}
	return inv.execute(ctx), nil
}

func (inv *Invocation) execute(ctx context.Context) *Notice {
	requestID := uuid.NewString()
	err := inv.d.send(WithRequestID(ctx, requestID), inv.action, inv.target)
	actionMetrics(inv.action, err)
	inv.d.audit(inv, requestID, err)

	inv.mu.Lock()
	ev := evSucceed
	n := &Notice{Level: NoticeSuccess, Text: actionInfos[inv.action].success}
	if err != nil {
		ev = evFail
		n = &Notice{Level: NoticeError, Text: NotificationText(err, FailureText)}
		inv.err = err
		common.Warnf("%s %s failed: %v", inv.action, inv.target.xid(), err)
	} else {
		common.Infof("%s %s succeed", inv.action, inv.target.xid())
	}
	inv.stage, _ = nextStage(inv.stage, ev, inv.risky())
	inv.notice = n
	inv.mu.Unlock()

	if err == nil && inv.d.refresher != nil {
		if rerr := inv.d.refresher.Search(ctx); rerr != nil {
			common.Warnf("refresh after %s failed: %v", inv.action, rerr)
		}
	}
	return n
}

func (d *Dispatcher) send(ctx context.Context, a Action, t Target) error {
	switch {
	case a == ActionDeleteGlobalLock:
		if d.locks == nil {
			return errors.New("no global lock backend configured")
		}
		return d.locks.DeleteGlobalLock(ctx, *t.Lock)
	case a.IsBranch():
		return d.sessions.BranchAction(ctx, a, *t.Branch)
	}
	return d.sessions.GlobalAction(ctx, a, *t.Global)
}

func (d *Dispatcher) audit(inv *Invocation, requestID string, err error) {
	if d.store == nil {
		return
	}
	rec := &storage.ActionRecord{
		Xid:       inv.target.xid(),
		Action:    inv.action.String(),
		Operator:  d.operator,
		RequestID: requestID,
		Result:    storage.ResultSucceed,
	}
	if b := inv.target.Branch; b != nil {
		rec.BranchID = b.BranchID
		rec.BranchType = string(b.BranchType)
	}
	if l := inv.target.Lock; l != nil {
		rec.BranchID = l.BranchID
	}
	if err != nil {
		rec.Result = storage.ResultFailed
		rec.Message = NotificationText(err, err.Error())
	}
	if serr := d.store.SaveActionRecord(rec); serr != nil {
		common.Errorf("save action record of %s failed: %v", rec.Xid, serr)
	}
}

// Run drives a whole invocation through p. It returns a nil notice when the operator cancelled.
func (d *Dispatcher) Run(ctx context.Context, a Action, target Target, p Prompter) (*Notice, error) {
	inv, err := d.Begin(a, target)
	if err != nil {
		return nil, err
	}
	for {
		prompt, waiting := inv.Prompt()
		if !waiting {
			return inv.Notice(), nil
		}
		yes, err := p.Confirm(ctx, prompt)
		if err != nil {
			_ = inv.Cancel()
			return nil, err
		}
		if !yes {
			return nil, inv.Cancel()
		}
		if n, err := inv.Confirm(ctx); err != nil || n != nil {
			return n, err
		}
	}
}
