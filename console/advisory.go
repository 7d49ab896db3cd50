/*
 * Copyright (c) 2021 yedf. All rights reserved.
 * Use of this source code is governed by a BSD-style
 * license that can be found in the LICENSE file.
 */

package console

import "strings"

// BranchType is the resource manager protocol of a branch
type BranchType string

// branch types
const (
	BranchAT   BranchType = "AT"
	BranchXA   BranchType = "XA"
	BranchTCC  BranchType = "TCC"
	BranchSAGA BranchType = "SAGA"
)

// BranchTypes in the order advisories are listed
var BranchTypes = []BranchType{BranchAT, BranchXA, BranchTCC, BranchSAGA}

// ParseBranchType normalizes s, e.g. "tcc" to TCC. Unknown types are returned upper-cased.
func ParseBranchType(s string) BranchType {
	return BranchType(strings.ToUpper(strings.TrimSpace(s)))
}

// CommonWarning is shown before the advisory of every risky action
const CommonWarning = "Global transaction commit or rollback inconsistency problem exists."

const forceDeleteWarning = "The force delete will only delete session in server."

var advisories = map[Action]map[BranchType]string{
	ActionStopBranch: {
		BranchTCC: "Please check if this may affect the logic of other branches.",
	},
	ActionDeleteBranch: {
		BranchAT: "The global lock and undo log will be deleted too, dirty write problem exists.",
		BranchXA: "The xa branch will rollback",
	},
	ActionDeleteGlobal: {},
	ActionForceDeleteBranch: {
		BranchAT: forceDeleteWarning, BranchXA: forceDeleteWarning, BranchTCC: forceDeleteWarning, BranchSAGA: forceDeleteWarning,
	},
	ActionForceDeleteGlobal: {
		BranchAT: forceDeleteWarning, BranchXA: forceDeleteWarning, BranchTCC: forceDeleteWarning, BranchSAGA: forceDeleteWarning,
	},
}

// HasRisk reports whether the action asks for a second, risk-aware confirmation
func HasRisk(a Action) bool {
	_, ok := advisories[a]
	return ok
}

// AdvisoryFor returns the extra warning for running a on a branch of type bt.
// Global actions ignore bt and list every protocol with a non-empty sentence.
// The result may be empty.
func AdvisoryFor(a Action, bt BranchType) string {
	table, ok := advisories[a]
	if !ok {
		return ""
	}
	if a.IsBranch() {
		return table[ParseBranchType(string(bt))]
	}
	var sb strings.Builder
	for _, t := range BranchTypes {
		if table[t] == "" {
			continue
		}
		sb.WriteString(string(t) + ":\n" + table[t] + "\n")
	}
	return sb.String()
}

// RiskMessage is the content of the second confirmation
func RiskMessage(a Action, bt BranchType) string {
	return CommonWarning + "\n" + AdvisoryFor(a, bt)
}
