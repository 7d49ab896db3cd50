/*
 * Copyright (c) 2021 yedf. All rights reserved.
 * Use of this source code is governed by a BSD-style
 * license that can be found in the LICENSE file.
 */

package console

import (
	"context"
	"sync"
	"time"

	"github.com/slievrly/seata/common"
)

// DetailView is the branch list currently shown for one global session
type DetailView struct {
	Xid      string
	Branches []BranchSession
}

// SessionState is a snapshot of the global session view
type SessionState struct {
	Query   GlobalSessionQuery
	Rows    []GlobalSession
	Total   int64
	Loading bool
	Detail  *DetailView
}

// Option configures a console view
type Option func(*viewOptions)

type viewOptions struct {
	loc       *time.Location
	dropStale bool
	pageSize  int
}

// WithLocation sets the time zone used to format timestamps
func WithLocation(loc *time.Location) Option {
	return func(o *viewOptions) { o.loc = loc }
}

// WithDropStaleResponses discards a page that arrives after a newer one was applied
func WithDropStaleResponses(drop bool) Option {
	return func(o *viewOptions) { o.dropStale = drop }
}

// WithInitialPageSize sets the page size of the initial query
func WithInitialPageSize(size int) Option {
	return func(o *viewOptions) { o.pageSize = size }
}

func newViewOptions(opts []Option) viewOptions {
	o := viewOptions{
		loc:       common.Config.Location(),
		dropStale: common.Config.DropStaleResponses,
		pageSize:  common.Config.PageSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// SessionConsole is the global session list of the console.
// Requests run on the caller's goroutine; the state lock is never held while a request is out.
type SessionConsole struct {
	backend SessionBackend
	opts    viewOptions

	mu       sync.Mutex
	state    SessionState
	seq      uint64 // last issued request
	applied  uint64 // newest applied response
	inflight int
}

// NewSessionConsole creates the view with the default query
func NewSessionConsole(backend SessionBackend, opts ...Option) *SessionConsole {
	o := newViewOptions(opts)
	return &SessionConsole{
		backend: backend,
		opts:    o,
		state:   SessionState{Query: NewGlobalSessionQuery().WithPageSize(o.pageSize)},
	}
}

// Search fetches the page of the current query and applies it.
// On failure the previous rows are kept and the error is returned.
func (c *SessionConsole) Search(ctx context.Context) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	q := c.state.Query
	c.inflight++
	c.state.Loading = true
	c.mu.Unlock()

	begin := time.Now()
	page, err := c.backend.QueryGlobalSessions(ctx, q)
	fetchMetrics("globalSession", begin, err)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	c.state.Loading = c.inflight > 0
	if err != nil {
		common.Warnf("query global sessions failed: %v", err)
		return err
	}
	if c.opts.dropStale && seq < c.applied {
		common.Debugf("drop stale global session page, seq %d < applied %d", seq, c.applied)
		return nil
	}
	c.applied = seq
	c.applyPage(page)
	return nil
}

func (c *SessionConsole) applyPage(page *GlobalSessionPage) {
	if page == nil || page.Total == 0 {
		c.state.Rows = []GlobalSession{}
		c.state.Total = 0
		c.state.Query.PageNum = 1
		sessionMetrics(nil)
		return
	}
	rows := make([]GlobalSession, len(page.Data))
	for i, rg := range page.Data {
		rows[i] = NormalizeGlobalSession(rg, c.opts.loc)
	}
	// an xid missing from the new page leaves the shown branches as they were
	if d := c.state.Detail; d != nil {
		for i := range rows {
			if rows[i].Xid == d.Xid {
				d.Branches = rows[i].BranchSessions
			}
		}
	}
	c.state.Rows = rows
	c.state.Total = page.Total
	sessionMetrics(rows)
}

// Update replaces the query by fn(query) without fetching
func (c *SessionConsole) Update(fn func(q GlobalSessionQuery) GlobalSessionQuery) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Query = fn(c.state.Query)
}

// SetFilter sets one form field of the query without fetching
func (c *SessionConsole) SetFilter(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, err := c.state.Query.SetFilter(key, value)
	if err != nil {
		return err
	}
	c.state.Query = q
	return nil
}

// SetTimeRange sets the beginTime range, a nil endpoint is unbounded
func (c *SessionConsole) SetTimeRange(start, end *time.Time) {
	c.Update(func(q GlobalSessionQuery) GlobalSessionQuery { return q.WithTimeRange(start, end) })
}

// ResetFilters restores the default filters, keeping the pagination
func (c *SessionConsole) ResetFilters() {
	c.Update(GlobalSessionQuery.Reset)
}

// SetPage moves to page n and fetches it
func (c *SessionConsole) SetPage(ctx context.Context, n int) error {
	c.Update(func(q GlobalSessionQuery) GlobalSessionQuery { return q.WithPage(n) })
	return c.Search(ctx)
}

// SetPageSize changes the page size and fetches
func (c *SessionConsole) SetPageSize(ctx context.Context, size int) error {
	c.Update(func(q GlobalSessionQuery) GlobalSessionQuery { return q.WithPageSize(size) })
	return c.Search(ctx)
}

// SetWithBranch toggles branch inclusion. Only switching it on fetches.
func (c *SessionConsole) SetWithBranch(ctx context.Context, flag bool) error {
	c.mu.Lock()
	prev := c.state.Query.WithBranch
	c.state.Query = c.state.Query.WithBranches(flag)
	c.mu.Unlock()
	if flag && !prev {
		return c.Search(ctx)
	}
	return nil
}

// OpenDetail shows the branches of the row with xid. It reports false if no such row is loaded.
func (c *SessionConsole) OpenDetail(xid string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.state.Rows {
		if r.Xid == xid {
			c.state.Detail = &DetailView{Xid: xid, Branches: r.BranchSessions}
			return true
		}
	}
	return false
}

// CloseDetail hides the branch list
func (c *SessionConsole) CloseDetail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Detail = nil
}

// Row returns the loaded row with xid
func (c *SessionConsole) Row(xid string) (GlobalSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.state.Rows {
		if r.Xid == xid {
			return r, true
		}
	}
	return GlobalSession{}, false
}

// Query returns the current query
func (c *SessionConsole) Query() GlobalSessionQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Query
}

// Snapshot returns a copy of the view state
func (c *SessionConsole) Snapshot() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Rows = append([]GlobalSession(nil), c.state.Rows...)
	if d := c.state.Detail; d != nil {
		s.Detail = &DetailView{Xid: d.Xid, Branches: append([]BranchSession(nil), d.Branches...)}
	}
	return s
}
