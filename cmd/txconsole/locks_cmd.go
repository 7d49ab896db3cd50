/*
 * Copyright (c) 2021 yedf. All rights reserved.
 * Use of this source code is governed by a BSD-style
 * license that can be found in the LICENSE file.
 */

package main

import (
	"fmt"

	"github.com/slievrly/seata/console"
	"github.com/spf13/cobra"
)

func newLocksCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "locks",
		Aliases: []string{"lock"},
		Short:   "List, check and delete global locks",
	}
	cmd.AddCommand(newLocksListCommand(a), newLocksDeleteCommand(a), newLocksCheckCommand(a))
	return cmd
}

func setLockFilters(l *console.LockConsole, filters map[string]string) error {
	for k, v := range filters {
		if v == "" {
			continue
		}
		if err := l.SetFilter(k, v); err != nil {
			return err
		}
	}
	return nil
}

func newLocksListCommand(a *app) *cobra.Command {
	var page, pageSize int
	filters := map[string]*string{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a page of global locks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l := a.console.Locks
			values := map[string]string{}
			for k, v := range filters {
				values[k] = *v
			}
			if err := setLockFilters(l, values); err != nil {
				return err
			}
			l.Update(func(q console.GlobalLockQuery) console.GlobalLockQuery {
				q = q.WithPage(page)
				if pageSize > 0 {
					q = q.WithPageSize(pageSize)
				}
				return q
			})
			if err := l.Search(cmd.Context()); err != nil {
				return err
			}
			printLocks(cmd.OutOrStdout(), l.Snapshot())
			return nil
		},
	}
	fs := cmd.Flags()
	for flag, key := range map[string]string{
		"xid":            console.FilterXid,
		"table":          console.FilterTableName,
		"pk":             console.FilterPk,
		"resource":       console.FilterResourceID,
		"transaction-id": console.FilterTransactionID,
		"branch-id":      console.FilterBranchID,
		"from":           console.FilterTimeStart,
		"to":             console.FilterTimeEnd,
	} {
		filters[key] = fs.String(flag, "", "filter by "+key)
	}
	fs.IntVar(&page, "page", 1, "page number")
	fs.IntVar(&pageSize, "page-size", 0, "rows per page (default from config)")
	return cmd
}

func newLocksDeleteCommand(a *app) *cobra.Command {
	var pk, table string
	cmd := &cobra.Command{
		Use:   "delete <xid> <branchId>",
		Short: "Delete the global locks held by a branch",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := a.console.Locks
			l.Update(func(q console.GlobalLockQuery) console.GlobalLockQuery { return q.Reset().WithPage(1) })
			err := setLockFilters(l, map[string]string{
				console.FilterXid:       args[0],
				console.FilterBranchID:  args[1],
				console.FilterPk:        pk,
				console.FilterTableName: table,
			})
			if err != nil {
				return err
			}
			if err := l.Search(ctx); err != nil {
				return err
			}
			rows := l.Snapshot().Rows
			if len(rows) == 0 {
				return fmt.Errorf("no global lock held by %s/%s", args[0], args[1])
			}
			d := a.console.LockDispatcher()
			p := a.prompter(cmd)
			for _, row := range rows {
				n, err := d.Run(ctx, console.ActionDeleteGlobalLock, console.LockTarget(row), p)
				if err := a.report(cmd, n, err); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pk, "pk", "", "only the lock of this primary key")
	cmd.Flags().StringVar(&table, "table", "", "only locks of this table")
	return cmd
}

func newLocksCheckCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <xid> <branchId>",
		Short: "Check whether a branch still holds global locks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			held, err := a.console.Locks.Check(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if held {
				fmt.Fprintln(cmd.OutOrStdout(), errorStyle.Render("held"))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("released"))
			}
			return nil
		},
	}
}
