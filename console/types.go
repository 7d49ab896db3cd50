/*
 * Copyright (c) 2021 yedf. All rights reserved.
 * Use of this source code is governed by a BSD-style
 * license that can be found in the LICENSE file.
 */

package console

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/slievrly/seata/common"
)

// TimeLayout is the display format of normalized timestamps
const TimeLayout = "2006-01-02 15:04:05"

// RawMillis is an epoch-millisecond timestamp as sent by the coordinator.
// It accepts a JSON number, a numeric string, an empty string or null.
type RawMillis struct {
	Millis int64
	Valid  bool
}

// UnmarshalJSON implements json.Unmarshaler
func (r *RawMillis) UnmarshalJSON(b []byte) error {
	*r = RawMillis{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("bad epoch millis %q: %w", s, err)
		}
		n = int64(f)
	}
	r.Millis, r.Valid = n, true
	return nil
}

// MarshalJSON implements json.Marshaler
func (r RawMillis) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(r.Millis, 10)), nil
}

// Format renders r in TimeLayout. Absent values give nil.
func (r RawMillis) Format(loc *time.Location) *string {
	if !r.Valid {
		return nil
	}
	s := common.MillisToTime(r.Millis, loc).Format(TimeLayout)
	return &s
}

// ID is a numeric or textual identifier. The coordinator sends transaction and branch ids as numbers.
type ID string

// UnmarshalJSON implements json.Unmarshaler
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("bad id %s: %w", b, err)
	}
	*id = ID(n.String())
	return nil
}

// RawBranchSession is a branch session row as received
type RawBranchSession struct {
	Xid             string `json:"xid"`
	TransactionID   ID     `json:"transactionId"`
	BranchID        ID     `json:"branchId"`
	ResourceGroupID string `json:"resourceGroupId"`
	BranchType      string `json:"branchType"`
	Status          int    `json:"status"`
	ResourceID      string `json:"resourceId"`
	ClientID        string `json:"clientId"`
	ApplicationData string `json:"applicationData"`
}

// RawGlobalSession is a global session row as received
type RawGlobalSession struct {
	Xid                     string             `json:"xid"`
	TransactionID           ID                 `json:"transactionId"`
	ApplicationID           string             `json:"applicationId"`
	TransactionServiceGroup string             `json:"transactionServiceGroup"`
	TransactionName         string             `json:"transactionName"`
	Status                  int                `json:"status"`
	Timeout                 int64              `json:"timeout"`
	BeginTime               RawMillis          `json:"beginTime"`
	ApplicationData         string             `json:"applicationData"`
	BranchSessions          []RawBranchSession `json:"branchSessionVOs"`
}

// GlobalSessionPage is one page of the global session query
type GlobalSessionPage struct {
	Data  []RawGlobalSession `json:"data"`
	Total int64              `json:"total"`
}

// BranchSession is a normalized branch session
type BranchSession struct {
	Xid             string       `json:"xid"`
	TransactionID   string       `json:"transactionId"`
	BranchID        string       `json:"branchId"`
	ResourceGroupID string       `json:"resourceGroupId"`
	BranchType      BranchType   `json:"branchType"`
	Status          BranchStatus `json:"status"`
	ResourceID      string       `json:"resourceId"`
	ClientID        string       `json:"clientId"`
	ApplicationData string       `json:"applicationData"`
}

// GlobalSession is a normalized global session
type GlobalSession struct {
	Xid                     string          `json:"xid"`
	TransactionID           string          `json:"transactionId"`
	ApplicationID           string          `json:"applicationId"`
	TransactionServiceGroup string          `json:"transactionServiceGroup"`
	TransactionName         string          `json:"transactionName"`
	Status                  GlobalStatus    `json:"status"`
	Timeout                 int64           `json:"timeout"`
	BeginTime               *string         `json:"beginTime"`
	BeginMillis             RawMillis       `json:"-"`
	ApplicationData         string          `json:"applicationData"`
	BranchSessions          []BranchSession `json:"branchSessionVOs,omitempty"`
}

// StatusLabel of the global session
func (g *GlobalSession) StatusLabel() StatusLabel {
	return LabelFor(int(g.Status), ScopeGlobal)
}

// StatusLabel of the branch session
func (b *BranchSession) StatusLabel() StatusLabel {
	return LabelFor(int(b.Status), ScopeBranch)
}

// BranchTypes returns the distinct branch types of the loaded branches
func (g *GlobalSession) BranchTypes() []BranchType {
	seen := map[BranchType]bool{}
	r := []BranchType{}
	for _, b := range g.BranchSessions {
		if !seen[b.BranchType] {
			seen[b.BranchType] = true
			r = append(r, b.BranchType)
		}
	}
	return r
}

func normalizeBranch(xid string, rb RawBranchSession) BranchSession {
	return BranchSession{
		Xid:             common.OrString(rb.Xid, xid),
		TransactionID:   string(rb.TransactionID),
		BranchID:        string(rb.BranchID),
		ResourceGroupID: rb.ResourceGroupID,
		BranchType:      ParseBranchType(rb.BranchType),
		Status:          BranchStatus(rb.Status),
		ResourceID:      rb.ResourceID,
		ClientID:        rb.ClientID,
		ApplicationData: rb.ApplicationData,
	}
}

// NormalizeGlobalSession formats the raw row for display
func NormalizeGlobalSession(rg RawGlobalSession, loc *time.Location) GlobalSession {
	g := GlobalSession{
		Xid:                     rg.Xid,
		TransactionID:           string(rg.TransactionID),
		ApplicationID:           rg.ApplicationID,
		TransactionServiceGroup: rg.TransactionServiceGroup,
		TransactionName:         rg.TransactionName,
		Status:                  GlobalStatus(rg.Status),
		Timeout:                 rg.Timeout,
		BeginTime:               rg.BeginTime.Format(loc),
		BeginMillis:             rg.BeginTime,
		ApplicationData:         rg.ApplicationData,
	}
	if rg.BranchSessions != nil {
		g.BranchSessions = make([]BranchSession, len(rg.BranchSessions))
		for i, rb := range rg.BranchSessions {
			g.BranchSessions[i] = normalizeBranch(rg.Xid, rb)
		}
	}
	return g
}

// RawGlobalLock is a global lock row as received
type RawGlobalLock struct {
	Xid           string    `json:"xid"`
	TransactionID ID        `json:"transactionId"`
	BranchID      ID        `json:"branchId"`
	ResourceID    string    `json:"resourceId"`
	TableName     string    `json:"tableName"`
	Pk            string    `json:"pk"`
	RowKey        string    `json:"rowKey"`
	GmtCreate     RawMillis `json:"gmtCreate"`
	GmtModified   RawMillis `json:"gmtModified"`
}

// GlobalLockPage is one page of the global lock query
type GlobalLockPage struct {
	Data  []RawGlobalLock `json:"data"`
	Total int64           `json:"total"`
}

// GlobalLock is a normalized global lock row
type GlobalLock struct {
	Xid           string  `json:"xid"`
	TransactionID string  `json:"transactionId"`
	BranchID      string  `json:"branchId"`
	ResourceID    string  `json:"resourceId"`
	TableName     string  `json:"tableName"`
	Pk            string  `json:"pk"`
	RowKey        string  `json:"rowKey"`
	GmtCreate     *string `json:"gmtCreate"`
	GmtModified   *string `json:"gmtModified"`
}

// NormalizeGlobalLock formats the raw lock row for display
func NormalizeGlobalLock(rl RawGlobalLock, loc *time.Location) GlobalLock {
	return GlobalLock{
		Xid:           rl.Xid,
		TransactionID: string(rl.TransactionID),
		BranchID:      string(rl.BranchID),
		ResourceID:    rl.ResourceID,
		TableName:     rl.TableName,
		Pk:            rl.Pk,
		RowKey:        rl.RowKey,
		GmtCreate:     rl.GmtCreate.Format(loc),
		GmtModified:   rl.GmtModified.Format(loc),
	}
}
