/*
 * Copyright (c) 2021 yedf. All rights reserved.
 * Use of this source code is governed by a BSD-style
 * license that can be found in the LICENSE file.
 */

package console

// Action is a mutating control action the console can send to the coordinator
type Action int

// control actions
const (
	ActionNone Action = iota
	ActionDeleteGlobal
	ActionForceDeleteGlobal
	ActionStopGlobal
	ActionStartGlobal
	ActionCommitOrRollbackGlobal
	ActionChangeGlobalStatus
	ActionDeleteBranch
	ActionForceDeleteBranch
	ActionStopBranch
	ActionStartBranch
	ActionDeleteGlobalLock
)

type actionInfo struct {
	name    string // key of the advisory table and metrics label
	op      string // last path segment of the endpoint
	scope   Scope
	title   string
	confirm string
	success string
}

var actionInfos = map[Action]actionInfo{
	ActionDeleteGlobal: {"deleteGlobalSession", "delete", ScopeGlobal, "Delete global session",
		"Are you sure you want to delete global transactions", "Delete successfully"},
	ActionForceDeleteGlobal: {"forceDeleteGlobalSession", "forceDelete", ScopeGlobal, "Force delete global session",
		"Are you sure you want to force delete global transactions", "Delete successfully"},
	ActionStopGlobal: {"stopGlobalSession", "stop", ScopeGlobal, "Stop global session retry",
		"Are you sure you want to stop global transactions retry", "Stop successfully"},
	ActionStartGlobal: {"startGlobalSession", "start", ScopeGlobal, "Start global session retry",
		"Are you sure you want to start global transactions retry", "Start successfully"},
	ActionCommitOrRollbackGlobal: {"sendGlobalSession", "commitOrRollback", ScopeGlobal, "Commit or rollback global session",
		"Are you sure you want to send commit or rollback to global transactions", "Send successfully"},
	ActionChangeGlobalStatus: {"changeGlobalSession", "changeStatus", ScopeGlobal, "Change global session status",
		"Are you sure you want to change the global transactions status", "Change successfully"},
	ActionDeleteBranch: {"deleteBranchSession", "delete", ScopeBranch, "Delete branch session",
		"Are you sure you want to delete branch transactions", "Delete successfully"},
	ActionForceDeleteBranch: {"forceDeleteBranchSession", "forceDelete", ScopeBranch, "Force delete branch session",
		"Are you sure you want to force delete branch transactions", "Delete successfully"},
	ActionStopBranch: {"stopBranchSession", "stop", ScopeBranch, "Stop branch session retry",
		"Are you sure you want to stop branch transactions retry", "Stop successfully"},
	ActionStartBranch: {"startBranchSession", "start", ScopeBranch, "Start branch session retry",
		"Are you sure you want to start branch transactions retry", "Start successfully"},
	ActionDeleteGlobalLock: {"deleteGlobalLock", "delete", ScopeGlobal, "Delete global lock",
		"Are you sure you want to delete global lock", "Delete successfully"},
}

func (a Action) String() string {
	return actionInfos[a].name
}

// Op is the endpoint verb of the action, e.g. "forceDelete"
func (a Action) Op() string {
	return actionInfos[a].op
}

// Title is the button caption of the action
func (a Action) Title() string {
	return actionInfos[a].title
}

// IsBranch reports whether the action targets a branch session
func (a Action) IsBranch() bool {
	_, ok := actionInfos[a]
	return ok && actionInfos[a].scope == ScopeBranch
}

// Valid reports whether a is a known action
func (a Action) Valid() bool {
	_, ok := actionInfos[a]
	return ok
}

// GlobalRetryAction selects start or stop retry for a global session:
// sessions whose retry has been stopped offer start, all the others offer stop
func GlobalRetryAction(status GlobalStatus) Action {
	if status == GlobalStopCommitRetry || status == GlobalStopRollbackRetry {
		return ActionStartGlobal
	}
	return ActionStopGlobal
}

// BranchRetryAction selects start or stop retry for a branch session
func BranchRetryAction(status BranchStatus) Action {
	if status == BranchStopRetry {
		return ActionStartBranch
	}
	return ActionStopBranch
}

// GlobalActions lists the control actions offered on a global session row
func GlobalActions(s *GlobalSession) []Action {
	return []Action{
		ActionDeleteGlobal,
		ActionForceDeleteGlobal,
		GlobalRetryAction(s.Status),
		ActionCommitOrRollbackGlobal,
		ActionChangeGlobalStatus,
	}
}

// BranchActions lists the control actions offered on a branch session row
func BranchActions(b *BranchSession) []Action {
	return []Action{
		ActionDeleteBranch,
		ActionForceDeleteBranch,
		BranchRetryAction(b.Status),
	}
}

var (
	retryCommitStatus   = []GlobalStatus{GlobalCommitRetrying}
	retryRollbackStatus = []GlobalStatus{GlobalRollbackRetrying, GlobalTimeoutRollbackRetrying, GlobalTimeoutRollbacking}
	failCommitStatus    = []GlobalStatus{GlobalCommitFailed, GlobalCommitRetryTimeout}
	failRollbackStatus  = []GlobalStatus{GlobalTimeoutRollbacked, GlobalRollbackFailed, GlobalRollbackRetryTimeout}
	finishStatus        = []GlobalStatus{GlobalCommitted, GlobalFinished, GlobalRollbacked}
)

func statusIn(s GlobalStatus, lists ...[]GlobalStatus) bool {
	for _, l := range lists {
		for _, v := range l {
			if v == s {
				return true
			}
		}
	}
	return false
}

// Eligible reports whether the coordinator is expected to accept a global action
// for a session in status. It is a hint only; the coordinator decides.
// Branch actions and lock deletion are always reported eligible.
func Eligible(a Action, status GlobalStatus) bool {
	switch a {
	case ActionDeleteGlobal:
		return statusIn(status, failCommitStatus, failRollbackStatus, retryCommitStatus, retryRollbackStatus, finishStatus,
			[]GlobalStatus{GlobalDeleting, GlobalStopCommitRetry, GlobalStopRollbackRetry})
	case ActionStopGlobal:
		return statusIn(status, retryCommitStatus, retryRollbackStatus, []GlobalStatus{GlobalCommitting, GlobalRollbacking})
	case ActionStartGlobal:
		return status == GlobalStopCommitRetry || status == GlobalStopRollbackRetry
	case ActionCommitOrRollbackGlobal:
		return statusIn(status, retryCommitStatus, retryRollbackStatus,
			[]GlobalStatus{GlobalCommitting, GlobalStopCommitRetry, GlobalRollbacking, GlobalStopRollbackRetry})
	case ActionChangeGlobalStatus:
		return statusIn(status, failCommitStatus, failRollbackStatus)
	}
	return true
}
