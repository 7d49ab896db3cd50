/*
 * Copyright (c) 2021 yedf. All rights reserved.
 * Use of this source code is governed by a BSD-style
 * license that can be found in the LICENSE file.
 */

package console

import (
	"encoding/hex"
	"net"
	"os"
	"strings"

	"github.com/slievrly/seata/common"
	"github.com/slievrly/seata/console/storage"
)

var config = &common.Config

func getStore() storage.Store {
	return storage.GetStore()
}

// Console bundles the views and the dispatcher of one operator session
type Console struct {
	Sessions   *SessionConsole
	Locks      *LockConsole
	Dispatcher *Dispatcher
}

// NewConsole wires the views and the dispatcher to backend using the loaded config.
// Successful session actions refresh the session list, lock deletions refresh the lock list.
func NewConsole(backend Backend, operator string) *Console {
	opts := []Option{
		WithLocation(config.Location()),
		WithDropStaleResponses(config.DropStaleResponses),
		WithInitialPageSize(config.PageSize),
	}
	c := &Console{
		Sessions: NewSessionConsole(backend, opts...),
		Locks:    NewLockConsole(backend, opts...),
	}
	dopts := []DispatcherOption{
		WithRefresher(c.Sessions),
		WithLockBackend(backend),
		WithOperator(common.OrString(operator, DefaultOperator())),
	}
	if st := getStore(); st != nil {
		dopts = append(dopts, WithAuditStore(st))
	}
	c.Dispatcher = NewDispatcher(backend, dopts...)
	return c
}

// LockDispatcher returns a dispatcher whose successful actions refresh the lock list
func (c *Console) LockDispatcher() *Dispatcher {
	d := *c.Dispatcher
	d.refresher = c.Locks
	return &d
}

// DefaultOperator names the local operator as user@hexip
func DefaultOperator() string {
	user := common.OrString(os.Getenv("USER"), os.Getenv("USERNAME"), "unknown")
	return user + "@" + common.OrString(getOneHexIP(), "local")
}

func getOneHexIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		common.Debugf("list interface addrs failed: %v", err)
		return ""
	}
	for _, address := range addrs {
		if ipnet, ok := address.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			ns := strings.Split(ipnet.IP.To4().String(), ".")
			r := []byte{}
			for _, n := range ns {
				r = append(r, byte(common.MustAtoi(n)))
			}
			return hex.EncodeToString(r)
		}
	}
	return ""
}
