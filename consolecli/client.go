/*
 * Copyright (c) 2021 yedf. All rights reserved.
 * Use of this source code is governed by a BSD-style
 * license that can be found in the LICENSE file.
 */

package consolecli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/slievrly/seata/common"
	"github.com/slievrly/seata/console"
)

// endpoints of the coordinator console API
const (
	PathGlobalSession = "/console/globalSession"
	PathBranchSession = "/console/branchSession"
	PathGlobalLock    = "/console/globalLock"
)

// HeaderRequestID carries the id of each request
const HeaderRequestID = "X-Request-ID"

// Client talks JSON over HTTP to the coordinator console API
type Client struct {
	rc *resty.Client
}

var _ console.Backend = (*Client)(nil)

// New creates a client for the coordinator at server
func New(server string, timeout time.Duration) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(server, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	rc.OnBeforeRequest(func(c *resty.Client, r *resty.Request) error {
		common.Debugf("requesting: %s %s %v", r.Method, r.URL, r.QueryParam)
		return nil
	})
	rc.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		r := resp.Request
		common.Debugf("requested: %s %s status %d cost %s", r.Method, r.URL, resp.StatusCode(), resp.Time())
		return nil
	})
	return &Client{rc: rc}
}

// NewFromConfig creates a client from the loaded config
func NewFromConfig() *Client {
	return New(common.Config.Server, common.Config.Timeout())
}

type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Total   int64           `json:"total"`
}

func (e *envelope) message() string {
	if e.Message != "" {
		return e.Message
	}
	var inner struct {
		Message string `json:"message"`
	}
	if len(e.Data) > 0 && e.Data[0] == '{' && json.Unmarshal(e.Data, &inner) == nil {
		return inner.Message
	}
	return ""
}

func (c *Client) call(ctx context.Context, method, path string, params map[string]string, body interface{}) (*envelope, error) {
	op := method + " " + path
	reqID := common.OrString(console.RequestIDFrom(ctx), uuid.NewString())
	req := c.rc.R().SetContext(ctx).SetHeader(HeaderRequestID, reqID).SetQueryParams(params)
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, &console.TransportError{Op: op, Err: err}
	}
	env := &envelope{}
	raw := bytes.TrimSpace(resp.Body())
	if len(raw) > 0 {
		if jerr := json.Unmarshal(raw, env); jerr != nil && !resp.IsError() {
			common.Warnf("%s: undecodable response body: %v", op, jerr)
			return nil, &console.BackendError{Op: op, Status: resp.StatusCode()}
		}
	}
	if resp.IsError() || env.Success != nil && !*env.Success {
		return nil, &console.BackendError{Op: op, Status: resp.StatusCode(), Message: env.message()}
	}
	return env, nil
}

func setStr(m map[string]string, k string, v *string) {
	if v != nil {
		m[k] = *v
	}
}

func setMillis(m map[string]string, k string, v *int64) {
	if v != nil {
		m[k] = strconv.FormatInt(*v, 10)
	}
}

func pageParams(p console.Page) map[string]string {
	return map[string]string{
		"pageSize": strconv.Itoa(p.PageSize),
		"pageNum":  strconv.Itoa(p.PageNum),
	}
}

// QueryGlobalSessions fetches a page of global sessions
func (c *Client) QueryGlobalSessions(ctx context.Context, q console.GlobalSessionQuery) (*console.GlobalSessionPage, error) {
	params := pageParams(q.Page)
	params["withBranch"] = strconv.FormatBool(q.WithBranch)
	setStr(params, "xid", q.Xid)
	setStr(params, "applicationId", q.ApplicationID)
	if q.Status != nil {
		params["status"] = strconv.Itoa(int(*q.Status))
	}
	setMillis(params, "timeStart", q.TimeStart)
	setMillis(params, "timeEnd", q.TimeEnd)
	env, err := c.call(ctx, http.MethodGet, PathGlobalSession+"/query", params, nil)
	if err != nil {
		return nil, err
	}
	page := &console.GlobalSessionPage{Total: env.Total}
	if err := decodeData(env, &page.Data); err != nil {
		return nil, &console.BackendError{Op: "query global sessions", Status: http.StatusOK, Message: err.Error()}
	}
	return page, nil
}

func decodeData(env *envelope, v interface{}) error {
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil
	}
	return json.Unmarshal(env.Data, v)
}

func methodOf(a console.Action) string {
	switch a {
	case console.ActionStopGlobal, console.ActionStartGlobal, console.ActionChangeGlobalStatus,
		console.ActionStopBranch, console.ActionStartBranch:
		return http.MethodPut
	}
	return http.MethodPost
}

type globalBody struct {
	Xid                     string                  `json:"xid"`
	TransactionID           string                  `json:"transactionId"`
	ApplicationID           string                  `json:"applicationId"`
	TransactionServiceGroup string                  `json:"transactionServiceGroup"`
	TransactionName         string                  `json:"transactionName"`
	Status                  int                     `json:"status"`
	Timeout                 int64                   `json:"timeout"`
	BeginTime               console.RawMillis       `json:"beginTime"`
	ApplicationData         string                  `json:"applicationData"`
	BranchSessions          []console.BranchSession `json:"branchSessionVOs,omitempty"`
}

// GlobalAction sends a global session control action
func (c *Client) GlobalAction(ctx context.Context, a console.Action, s console.GlobalSession) error {
	if a.IsBranch() || !a.Valid() || a == console.ActionDeleteGlobalLock {
		return fmt.Errorf("%s is not a global session action", a)
	}
	body := globalBody{
		Xid:                     s.Xid,
		TransactionID:           s.TransactionID,
		ApplicationID:           s.ApplicationID,
		TransactionServiceGroup: s.TransactionServiceGroup,
		TransactionName:         s.TransactionName,
		Status:                  int(s.Status),
		Timeout:                 s.Timeout,
		BeginTime:               s.BeginMillis,
		ApplicationData:         s.ApplicationData,
		BranchSessions:          s.BranchSessions,
	}
	_, err := c.call(ctx, methodOf(a), PathGlobalSession+"/"+a.Op(), map[string]string{"xid": s.Xid}, body)
	return err
}

// BranchAction sends a branch session control action
func (c *Client) BranchAction(ctx context.Context, a console.Action, b console.BranchSession) error {
	if !a.IsBranch() {
		return fmt.Errorf("%s is not a branch session action", a)
	}
	params := map[string]string{"xid": b.Xid, "branchId": b.BranchID}
	_, err := c.call(ctx, methodOf(a), PathBranchSession+"/"+a.Op(), params, b)
	return err
}

func lockParams(q console.GlobalLockQuery) map[string]string {
	params := pageParams(q.Page)
	setStr(params, "xid", q.Xid)
	setStr(params, "tableName", q.TableName)
	setStr(params, "transactionId", q.TransactionID)
	setStr(params, "branchId", q.BranchID)
	setStr(params, "pk", q.Pk)
	setStr(params, "resourceId", q.ResourceID)
	setMillis(params, "timeStart", q.TimeStart)
	setMillis(params, "timeEnd", q.TimeEnd)
	return params
}

// QueryGlobalLocks fetches a page of global locks
func (c *Client) QueryGlobalLocks(ctx context.Context, q console.GlobalLockQuery) (*console.GlobalLockPage, error) {
	env, err := c.call(ctx, http.MethodGet, PathGlobalLock+"/query", lockParams(q), nil)
	if err != nil {
		return nil, err
	}
	page := &console.GlobalLockPage{Total: env.Total}
	if err := decodeData(env, &page.Data); err != nil {
		return nil, &console.BackendError{Op: "query global locks", Status: http.StatusOK, Message: err.Error()}
	}
	return page, nil
}

// DeleteGlobalLock deletes the lock row l
func (c *Client) DeleteGlobalLock(ctx context.Context, l console.GlobalLock) error {
	params := map[string]string{
		"xid":           l.Xid,
		"tableName":     l.TableName,
		"transactionId": l.TransactionID,
		"branchId":      l.BranchID,
		"pk":            l.Pk,
		"resourceId":    l.ResourceID,
	}
	for k, v := range params {
		if v == "" {
			delete(params, k)
		}
	}
	_, err := c.call(ctx, http.MethodDelete, PathGlobalLock+"/delete", params, nil)
	return err
}

// CheckGlobalLock reports whether the coordinator still holds locks of (xid, branchID)
func (c *Client) CheckGlobalLock(ctx context.Context, xid, branchID string) (bool, error) {
	env, err := c.call(ctx, http.MethodGet, PathGlobalLock+"/check", map[string]string{"xid": xid, "branchId": branchID}, nil)
	if err != nil {
		return false, err
	}
	held := false
	if err := decodeData(env, &held); err != nil {
		return false, &console.BackendError{Op: "check global lock", Status: http.StatusOK, Message: err.Error()}
	}
	return held, nil
}
