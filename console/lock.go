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

// LockState is a snapshot of the global lock view
type LockState struct {
	Query   GlobalLockQuery
	Rows    []GlobalLock
	Total   int64
	Loading bool
}

// LockConsole is the global lock list of the console
type LockConsole struct {
	backend LockBackend
	opts    viewOptions

	mu       sync.Mutex
	state    LockState
	seq      uint64
	applied  uint64
	inflight int
}

// NewLockConsole creates the lock view with the default query
func NewLockConsole(backend LockBackend, opts ...Option) *LockConsole {
	o := newViewOptions(opts)
	return &LockConsole{
		backend: backend,
		opts:    o,
		state:   LockState{Query: NewGlobalLockQuery().WithPageSize(o.pageSize)},
	}
}

// Search fetches the page of the current lock query
func (c *LockConsole) Search(ctx context.Context) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	q := c.state.Query
	c.inflight++
	c.state.Loading = true
	c.mu.Unlock()

	begin := time.Now()
	page, err := c.backend.QueryGlobalLocks(ctx, q)
	fetchMetrics("globalLock", begin, err)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	c.state.Loading = c.inflight > 0
	if err != nil {
		common.Warnf("query global locks failed: %v", err)
		return err
	}
	if c.opts.dropStale && seq < c.applied {
		return nil
	}
	c.applied = seq
	if page == nil || page.Total == 0 {
		c.state.Rows = []GlobalLock{}
		c.state.Total = 0
		c.state.Query.PageNum = 1
		return nil
	}
	rows := make([]GlobalLock, len(page.Data))
	for i, rl := range page.Data {
		rows[i] = NormalizeGlobalLock(rl, c.opts.loc)
	}
	c.state.Rows = rows
	c.state.Total = page.Total
	return nil
}

// Update replaces the query by fn(query) without fetching
func (c *LockConsole) Update(fn func(q GlobalLockQuery) GlobalLockQuery) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Query = fn(c.state.Query)
}

// SetFilter sets one form field of the lock query
func (c *LockConsole) SetFilter(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, err := c.state.Query.SetFilter(key, value)
	if err != nil {
		return err
	}
	c.state.Query = q
	return nil
}

// ResetFilters restores the default filters, keeping the pagination
func (c *LockConsole) ResetFilters() {
	c.Update(GlobalLockQuery.Reset)
}

// SetPage moves to page n and fetches it
func (c *LockConsole) SetPage(ctx context.Context, n int) error {
	c.Update(func(q GlobalLockQuery) GlobalLockQuery { return q.WithPage(n) })
	return c.Search(ctx)
}

// SetPageSize changes the page size and fetches
func (c *LockConsole) SetPageSize(ctx context.Context, size int) error {
	c.Update(func(q GlobalLockQuery) GlobalLockQuery { return q.WithPageSize(size) })
	return c.Search(ctx)
}

// Check asks the coordinator whether the lock of (xid, branchID) is still held
func (c *LockConsole) Check(ctx context.Context, xid, branchID string) (bool, error) {
	return c.backend.CheckGlobalLock(ctx, xid, branchID)
}

// Snapshot returns a copy of the lock view state
func (c *LockConsole) Snapshot() LockState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Rows = append([]GlobalLock(nil), c.state.Rows...)
	return s
}
