/*
 * Copyright (c) 2021 yedf. All rights reserved.
 * Use of this source code is governed by a BSD-style
 * license that can be found in the LICENSE file.
 */

package main

import (
	"context"
	"fmt"

	"github.com/slievrly/seata/common"
	"github.com/slievrly/seata/console"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// sessionFilters are the search form fields of the global session list
type sessionFilters struct {
	xid        string
	app        string
	status     string
	from       string
	to         string
	withBranch bool
	page       int
	pageSize   int
}

func (f *sessionFilters) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.xid, "xid", "", "filter by xid")
	fs.StringVar(&f.app, "app", "", "filter by application id")
	fs.StringVar(&f.status, "status", "", "filter by global status, label or code")
	fs.StringVar(&f.from, "from", "", "sessions begun at or after, e.g. '2024-01-02 15:04:05'")
	fs.StringVar(&f.to, "to", "", "sessions begun at or before")
	fs.BoolVarP(&f.withBranch, "with-branch", "b", false, "include branch sessions")
	fs.IntVar(&f.page, "page", 1, "page number")
	fs.IntVar(&f.pageSize, "page-size", 0, "rows per page (default from config)")
}

func (f *sessionFilters) apply(s *console.SessionConsole) error {
	for _, kv := range [][2]string{
		{console.FilterXid, f.xid},
		{console.FilterApplicationID, f.app},
		{console.FilterStatus, f.status},
		{console.FilterTimeStart, f.from},
		{console.FilterTimeEnd, f.to},
	} {
		if kv[1] == "" {
			continue
		}
		if err := s.SetFilter(kv[0], kv[1]); err != nil {
			return err
		}
	}
	s.Update(func(q console.GlobalSessionQuery) console.GlobalSessionQuery {
		q = q.WithBranches(f.withBranch).WithPage(f.page)
		if f.pageSize > 0 {
			q = q.WithPageSize(f.pageSize)
		}
		return q
	})
	return nil
}

func newSessionsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"global"},
		Short:   "List and operate global sessions",
	}
	cmd.AddCommand(newSessionsListCommand(a), newSessionsShowCommand(a))

	fixed := func(act console.Action) func(console.GlobalSession) console.Action {
		return func(console.GlobalSession) console.Action { return act }
	}
	for _, c := range []struct {
		use  string
		pick func(console.GlobalSession) console.Action
	}{
		{"delete", fixed(console.ActionDeleteGlobal)},
		{"force-delete", fixed(console.ActionForceDeleteGlobal)},
		{"stop", fixed(console.ActionStopGlobal)},
		{"start", fixed(console.ActionStartGlobal)},
		{"retry", func(s console.GlobalSession) console.Action { return console.GlobalRetryAction(s.Status) }},
		{"commit-or-rollback", fixed(console.ActionCommitOrRollbackGlobal)},
		{"change-status", fixed(console.ActionChangeGlobalStatus)},
	} {
		cmd.AddCommand(newGlobalActionCommand(a, c.use, c.pick))
	}
	return cmd
}

func newSessionsListCommand(a *app) *cobra.Command {
	f := &sessionFilters{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a page of global sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.console.Sessions
			if err := f.apply(s); err != nil {
				return err
			}
			if err := s.Search(cmd.Context()); err != nil {
				return err
			}
			printSessions(cmd.OutOrStdout(), s.Snapshot())
			return nil
		},
	}
	f.bind(cmd.Flags())
	return cmd
}

func newSessionsShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <xid>",
		Short: "Show a global session with its branches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := a.findSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			s := a.console.Sessions
			if !s.OpenDetail(row.Xid) {
				return fmt.Errorf("global session %s not found", row.Xid)
			}
			state := s.Snapshot()
			out := cmd.OutOrStdout()
			printSessions(out, console.SessionState{Query: state.Query.WithBranches(false), Rows: []console.GlobalSession{row}, Total: 1})
			fmt.Fprintln(out, titleStyle.Render("Branches"))
			printBranches(out, state.Detail.Branches)
			return nil
		},
	}
}

// findSession loads the row of xid with its branches
func (a *app) findSession(ctx context.Context, xid string) (console.GlobalSession, error) {
	s := a.console.Sessions
	s.Update(func(q console.GlobalSessionQuery) console.GlobalSessionQuery {
		return q.Reset().WithXid(xid).WithBranches(true).WithPage(1)
	})
	if err := s.Search(ctx); err != nil {
		return console.GlobalSession{}, err
	}
	row, ok := s.Row(xid)
	if !ok {
		return console.GlobalSession{}, fmt.Errorf("global session %s not found", xid)
	}
	return row, nil
}

func newGlobalActionCommand(a *app, use string, pick func(console.GlobalSession) console.Action) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <xid>",
		Short: "Send " + use + " to a global session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			row, err := a.findSession(ctx, args[0])
			if err != nil {
				return err
			}
			act := pick(row)
			if !console.Eligible(act, row.Status) {
				common.Warnf("%s is usually rejected for sessions in %s", act.Title(), row.Status)
			}
			n, err := a.console.Dispatcher.Run(ctx, act, console.GlobalTarget(row), a.prompter(cmd))
			return a.report(cmd, n, err)
		},
	}
}
