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
)

// SessionBackend is the part of the coordinator serving global sessions
type SessionBackend interface {
	QueryGlobalSessions(ctx context.Context, q GlobalSessionQuery) (*GlobalSessionPage, error)
	GlobalAction(ctx context.Context, a Action, s GlobalSession) error
	BranchAction(ctx context.Context, a Action, b BranchSession) error
}

// LockBackend is the part of the coordinator serving global locks
type LockBackend interface {
	QueryGlobalLocks(ctx context.Context, q GlobalLockQuery) (*GlobalLockPage, error)
	DeleteGlobalLock(ctx context.Context, l GlobalLock) error
	CheckGlobalLock(ctx context.Context, xid, branchID string) (bool, error)
}

// Backend is the whole coordinator console API
type Backend interface {
	SessionBackend
	LockBackend
}

// ErrTransport is matched by errors.Is for every transport failure
var ErrTransport = errors.New("console: transport failure")

// TransportError is returned when a request never got an answer from the coordinator
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the cause
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrTransport) hold
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// BackendError is returned when the coordinator rejected a request
type BackendError struct {
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *BackendError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.Status)
}

// NotificationText is the user visible text for err: the backend message verbatim
// when the coordinator sent one, fallback otherwise
func NotificationText(err error, fallback string) string {
	var be *BackendError
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return fallback
}

type requestIDKey struct{}

// WithRequestID attaches the id sent as X-Request-ID by the client
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the id attached by WithRequestID
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
