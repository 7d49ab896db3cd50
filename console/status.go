/*
 * Copyright (c) 2021 yedf. All rights reserved.
 * Use of this source code is governed by a BSD-style
 * license that can be found in the LICENSE file.
 */

package console

import "strconv"

// Severity classifies a status for display
type Severity int

const (
	// SeverityNone is used for codes the catalog does not know
	SeverityNone Severity = iota
	// SeverityPending marks in-progress states (ellipsis icon)
	SeverityPending
	// SeveritySuccess marks successfully finished states
	SeveritySuccess
	// SeverityError marks failed or rolled back states
	SeverityError
	// SeverityWarning marks unknown/deleting states
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityPending:
		return "pending"
	case SeveritySuccess:
		return "success"
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	}
	return ""
}

// Scope tells whether a status code belongs to a global or a branch session
type Scope int

const (
	// ScopeGlobal global session status codes
	ScopeGlobal Scope = iota
	// ScopeBranch branch session status codes
	ScopeBranch
)

// GlobalStatus is the status code of a global session
type GlobalStatus int

// global session status codes, as reported by the coordinator
const (
	GlobalUnKnown                 GlobalStatus = 0
	GlobalBegin                   GlobalStatus = 1
	GlobalCommitting              GlobalStatus = 2
	GlobalCommitRetrying          GlobalStatus = 3
	GlobalRollbacking             GlobalStatus = 4
	GlobalRollbackRetrying        GlobalStatus = 5
	GlobalTimeoutRollbacking      GlobalStatus = 6
	GlobalTimeoutRollbackRetrying GlobalStatus = 7
	GlobalAsyncCommitting         GlobalStatus = 8
	GlobalCommitted               GlobalStatus = 9
	GlobalCommitFailed            GlobalStatus = 10
	GlobalRollbacked              GlobalStatus = 11
	GlobalRollbackFailed          GlobalStatus = 12
	GlobalTimeoutRollbacked       GlobalStatus = 13
	GlobalTimeoutRollbackFailed   GlobalStatus = 14
	GlobalFinished                GlobalStatus = 15
	GlobalCommitRetryTimeout      GlobalStatus = 16
	GlobalRollbackRetryTimeout    GlobalStatus = 17
	GlobalDeleting                GlobalStatus = 18
	GlobalStopCommitRetry         GlobalStatus = 19
	GlobalStopRollbackRetry       GlobalStatus = 20
)

// BranchStatus is the status code of a branch session
type BranchStatus int

// branch session status codes, as reported by the coordinator
const (
	BranchUnKnown                                 BranchStatus = 0
	BranchRegistered                              BranchStatus = 1
	BranchPhaseOneDone                            BranchStatus = 2
	BranchPhaseOneFailed                          BranchStatus = 3
	BranchPhaseOneTimeout                         BranchStatus = 4
	BranchPhaseTwoCommitted                       BranchStatus = 5
	BranchPhaseTwoCommitFailedRetryable           BranchStatus = 6
	BranchPhaseTwoCommitFailedUnretryable         BranchStatus = 7
	BranchPhaseTwoRollbacked                      BranchStatus = 8
	BranchPhaseTwoRollbackFailedRetryable         BranchStatus = 9
	BranchPhaseTwoRollbackFailedUnretryable       BranchStatus = 10
	BranchPhaseTwoCommitFailedXAERNOTARetryable   BranchStatus = 11
	BranchPhaseTwoRollbackFailedXAERNOTARetryable BranchStatus = 12
	BranchPhaseOneRDONLY                          BranchStatus = 13
	BranchStopRetry                               BranchStatus = 14
)

type statusEntry struct {
	label    string
	severity Severity
}

var globalStatusCatalog = map[GlobalStatus]statusEntry{
	GlobalUnKnown:                 {"UnKnown", SeverityWarning},
	GlobalBegin:                   {"Begin", SeverityPending},
	GlobalCommitting:              {"Committing", SeverityPending},
	GlobalCommitRetrying:          {"CommitRetrying", SeverityPending},
	GlobalRollbacking:             {"Rollbacking", SeverityPending},
	GlobalRollbackRetrying:        {"RollbackRetrying", SeverityPending},
	GlobalTimeoutRollbacking:      {"TimeoutRollbacking", SeverityPending},
	GlobalTimeoutRollbackRetrying: {"TimeoutRollbackRetrying", SeverityPending},
	GlobalAsyncCommitting:         {"AsyncCommitting", SeverityPending},
	GlobalCommitted:               {"Committed", SeveritySuccess},
	GlobalCommitFailed:            {"CommitFailed", SeverityError},
	GlobalRollbacked:              {"Rollbacked", SeverityError},
	GlobalRollbackFailed:          {"RollbackFailed", SeverityError},
	GlobalTimeoutRollbacked:       {"TimeoutRollbacked", SeverityError},
	GlobalTimeoutRollbackFailed:   {"TimeoutRollbackFailed", SeverityError},
	GlobalFinished:                {"Finished", SeveritySuccess},
	GlobalCommitRetryTimeout:      {"CommitRetryTimeout", SeverityError},
	GlobalRollbackRetryTimeout:    {"RollbackRetryTimeout", SeverityError},
	GlobalDeleting:                {"Deleting", SeverityWarning},
	GlobalStopCommitRetry:         {"StopCommitRetry", SeverityPending},
	GlobalStopRollbackRetry:       {"StopRollbackRetry", SeverityPending},
}

var branchStatusCatalog = map[BranchStatus]statusEntry{
	BranchUnKnown:                                 {"UnKnown", SeverityWarning},
	BranchRegistered:                              {"Registered", SeverityPending},
	BranchPhaseOneDone:                            {"PhaseOne_Done", SeverityPending},
	BranchPhaseOneFailed:                          {"PhaseOne_Failed", SeverityError},
	BranchPhaseOneTimeout:                         {"PhaseOne_Timeout", SeverityError},
	BranchPhaseTwoCommitted:                       {"PhaseTwo_Committed", SeveritySuccess},
	BranchPhaseTwoCommitFailedRetryable:           {"PhaseTwo_CommitFailed_Retryable", SeverityPending},
	BranchPhaseTwoCommitFailedUnretryable:         {"PhaseTwo_CommitFailed_Unretryable", SeverityError},
	BranchPhaseTwoRollbacked:                      {"PhaseTwo_Rollbacked", SeverityError},
	BranchPhaseTwoRollbackFailedRetryable:         {"PhaseTwo_RollbackFailed_Retryable", SeverityPending},
	BranchPhaseTwoRollbackFailedUnretryable:       {"PhaseTwo_RollbackFailed_Unretryable", SeverityError},
	BranchPhaseTwoCommitFailedXAERNOTARetryable:   {"PhaseTwo_CommitFailed_XAER_NOTA_Retryable", SeverityError},
	BranchPhaseTwoRollbackFailedXAERNOTARetryable: {"PhaseTwo_RollbackFailed_XAER_NOTA_Retryable", SeverityError},
	BranchPhaseOneRDONLY:                          {"PhaseOne_RDONLY", SeverityError},
	BranchStopRetry:                               {"Stop_Retry", SeverityPending},
}

// StatusLabel is what the presentation shows for a status code
type StatusLabel struct {
	Label    string
	Severity Severity
	// Known is false when the code is not in the catalog. Label is then the raw number.
	Known bool
}

// LabelFor looks up the label and severity of code in the given scope.
// Unknown codes degrade to their decimal value without severity.
func LabelFor(code int, scope Scope) StatusLabel {
	var e statusEntry
	var ok bool
	if scope == ScopeBranch {
		e, ok = branchStatusCatalog[BranchStatus(code)]
	} else {
		e, ok = globalStatusCatalog[GlobalStatus(code)]
	}
	if !ok {
		return StatusLabel{Label: strconv.Itoa(code), Severity: SeverityNone}
	}
	return StatusLabel{Label: e.label, Severity: e.severity, Known: true}
}

func (s GlobalStatus) String() string {
	return LabelFor(int(s), ScopeGlobal).Label
}

func (s BranchStatus) String() string {
	return LabelFor(int(s), ScopeBranch).Label
}

// ParseGlobalStatus accepts either a label ("Begin") or a numeric code ("1")
func ParseGlobalStatus(s string) (GlobalStatus, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		_, ok := globalStatusCatalog[GlobalStatus(n)]
		return GlobalStatus(n), ok
	}
	for code, e := range globalStatusCatalog {
		if e.label == s {
			return code, true
		}
	}
	return 0, false
}

// GlobalStatuses returns all known global status codes in ascending order
func GlobalStatuses() []GlobalStatus {
	r := make([]GlobalStatus, 0, len(globalStatusCatalog))
	for s := GlobalUnKnown; s <= GlobalStopRollbackRetry; s++ {
		if _, ok := globalStatusCatalog[s]; ok {
			r = append(r, s)
		}
	}
	return r
}
