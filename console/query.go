/*
 * Copyright (c) 2021 yedf. All rights reserved.
 * Use of this source code is governed by a BSD-style
 * license that can be found in the LICENSE file.
 */

package console

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/slievrly/seata/common"
)

const (
	// DefaultPageSize of a new query
	DefaultPageSize = 10
	// MaxPageSize accepted by SetPageSize
	MaxPageSize = 100
)

// filter keys accepted by SetFilter
const (
	FilterXid           = "xid"
	FilterApplicationID = "applicationId"
	FilterStatus        = "status"
	FilterTimeStart     = "timeStart"
	FilterTimeEnd       = "timeEnd"
	FilterWithBranch    = "withBranch"
	FilterTableName     = "tableName"
	FilterTransactionID = "transactionId"
	FilterBranchID      = "branchId"
	FilterPk            = "pk"
	FilterResourceID    = "resourceId"
)

// Page is the pagination shared by every query. PageNum is 1-based.
type Page struct {
	PageSize int `json:"pageSize"`
	PageNum  int `json:"pageNum"`
}

// DefaultPage is the pagination of a freshly mounted console
func DefaultPage() Page {
	return Page{PageSize: DefaultPageSize, PageNum: 1}
}

func (p Page) normalize() Page {
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	if p.PageNum <= 0 {
		p.PageNum = 1
	}
	return p
}

// GlobalSessionQuery is the immutable query of the global session list.
// Nil filters impose no constraint.
type GlobalSessionQuery struct {
	Page
	WithBranch    bool          `json:"withBranch"`
	Xid           *string       `json:"xid,omitempty"`
	ApplicationID *string       `json:"applicationId,omitempty"`
	Status        *GlobalStatus `json:"status,omitempty"`
	TimeStart     *int64        `json:"timeStart,omitempty"`
	TimeEnd       *int64        `json:"timeEnd,omitempty"`
}

// NewGlobalSessionQuery returns the default query: withBranch=false, pageSize=10, pageNum=1
func NewGlobalSessionQuery() GlobalSessionQuery {
	return GlobalSessionQuery{Page: DefaultPage()}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func millisPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := common.TimeToMillis(*t)
	return &ms
}

// WithXid returns q filtered by xid. An empty xid clears the filter.
func (q GlobalSessionQuery) WithXid(xid string) GlobalSessionQuery {
	q.Xid = strPtr(xid)
	return q
}

// WithApplicationID returns q filtered by application id
func (q GlobalSessionQuery) WithApplicationID(id string) GlobalSessionQuery {
	q.ApplicationID = strPtr(id)
	return q
}

// WithStatus returns q filtered by status, nil clears it
func (q GlobalSessionQuery) WithStatus(s *GlobalStatus) GlobalSessionQuery {
	if s != nil {
		v := *s
		s = &v
	}
	q.Status = s
	return q
}

// WithTimeRange returns q restricted to beginTime in [start, end]. A nil end is unbounded.
func (q GlobalSessionQuery) WithTimeRange(start, end *time.Time) GlobalSessionQuery {
	q.TimeStart, q.TimeEnd = millisPtr(start), millisPtr(end)
	return q
}

// WithBranches returns q with branch inclusion set
func (q GlobalSessionQuery) WithBranches(flag bool) GlobalSessionQuery {
	q.WithBranch = flag
	return q
}

// WithPage returns q on page n
func (q GlobalSessionQuery) WithPage(n int) GlobalSessionQuery {
	q.PageNum = n
	q.Page = q.Page.normalize()
	return q
}

// WithPageSize returns q with size rows per page
func (q GlobalSessionQuery) WithPageSize(size int) GlobalSessionQuery {
	q.PageSize = size
	q.Page = q.Page.normalize()
	return q
}

// Reset clears every filter and withBranch, keeping the pagination
func (q GlobalSessionQuery) Reset() GlobalSessionQuery {
	return GlobalSessionQuery{Page: q.Page}
}

func parseMillis(value string) (*int64, error) {
	if value == "" {
		return nil, nil
	}
	ms, err := strconv.ParseInt(value, 10, 64)
	if err == nil {
		return &ms, nil
	}
	for _, layout := range []string{TimeLayout, "2006-01-02", time.RFC3339} {
		if t, terr := time.ParseInLocation(layout, value, common.Config.Location()); terr == nil {
			ms = common.TimeToMillis(t)
			return &ms, nil
		}
	}
	return nil, fmt.Errorf("bad time value: %q", value)
}

// SetFilter returns q with the form field key set from its text value.
// An empty value clears the field.
func (q GlobalSessionQuery) SetFilter(key, value string) (GlobalSessionQuery, error) {
	value = strings.TrimSpace(value)
	switch key {
	case FilterXid:
		return q.WithXid(value), nil
	case FilterApplicationID:
		return q.WithApplicationID(value), nil
	case FilterStatus:
		if value == "" {
			return q.WithStatus(nil), nil
		}
		s, ok := ParseGlobalStatus(value)
		if !ok {
			if _, err := strconv.Atoi(value); err != nil {
				return q, fmt.Errorf("unknown global status: %q", value)
			}
		}
		return q.WithStatus(&s), nil
	case FilterTimeStart, FilterTimeEnd:
		ms, err := parseMillis(value)
		if err != nil {
			return q, err
		}
		if key == FilterTimeStart {
			q.TimeStart = ms
		} else {
			q.TimeEnd = ms
		}
		return q, nil
	case FilterWithBranch:
		b := false
		if value != "" {
			var err error
			if b, err = strconv.ParseBool(value); err != nil {
				return q, fmt.Errorf("bad withBranch value: %q", value)
			}
		}
		return q.WithBranches(b), nil
	}
	return q, fmt.Errorf("unknown global session filter: %q", key)
}

// GlobalLockQuery is the immutable query of the global lock list
type GlobalLockQuery struct {
	Page
	Xid           *string `json:"xid,omitempty"`
	TableName     *string `json:"tableName,omitempty"`
	TransactionID *string `json:"transactionId,omitempty"`
	BranchID      *string `json:"branchId,omitempty"`
	Pk            *string `json:"pk,omitempty"`
	ResourceID    *string `json:"resourceId,omitempty"`
	TimeStart     *int64  `json:"timeStart,omitempty"`
	TimeEnd       *int64  `json:"timeEnd,omitempty"`
}

// NewGlobalLockQuery returns the default lock query
func NewGlobalLockQuery() GlobalLockQuery {
	return GlobalLockQuery{Page: DefaultPage()}
}

// WithPage returns q on page n
func (q GlobalLockQuery) WithPage(n int) GlobalLockQuery {
	q.PageNum = n
	q.Page = q.Page.normalize()
	return q
}

// WithPageSize returns q with size rows per page
func (q GlobalLockQuery) WithPageSize(size int) GlobalLockQuery {
	q.PageSize = size
	q.Page = q.Page.normalize()
	return q
}

// WithTimeRange returns q restricted to lock creation in [start, end]
func (q GlobalLockQuery) WithTimeRange(start, end *time.Time) GlobalLockQuery {
	q.TimeStart, q.TimeEnd = millisPtr(start), millisPtr(end)
	return q
}

// Reset clears every filter, keeping the pagination
func (q GlobalLockQuery) Reset() GlobalLockQuery {
	return GlobalLockQuery{Page: q.Page}
}

// SetFilter returns q with the form field key set from its text value
func (q GlobalLockQuery) SetFilter(key, value string) (GlobalLockQuery, error) {
	value = strings.TrimSpace(value)
	switch key {
	case FilterXid:
		q.Xid = strPtr(value)
	case FilterTableName:
		q.TableName = strPtr(value)
	case FilterTransactionID:
		q.TransactionID = strPtr(value)
	case FilterBranchID:
		q.BranchID = strPtr(value)
	case FilterPk:
		q.Pk = strPtr(value)
	case FilterResourceID:
		q.ResourceID = strPtr(value)
	case FilterTimeStart, FilterTimeEnd:
		ms, err := parseMillis(value)
		if err != nil {
			return q, err
		}
		if key == FilterTimeStart {
			q.TimeStart = ms
		} else {
			q.TimeEnd = ms
		}
	default:
		return q, fmt.Errorf("unknown global lock filter: %q", key)
	}
	return q, nil
}
