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

func newBranchesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "branches",
		Aliases: []string{"branch"},
		Short:   "Operate branch sessions of a global session",
	}
	fixed := func(act console.Action) func(console.BranchSession) console.Action {
		return func(console.BranchSession) console.Action { return act }
	}
	for _, c := range []struct {
		use  string
		pick func(console.BranchSession) console.Action
	}{
		{"delete", fixed(console.ActionDeleteBranch)},
		{"force-delete", fixed(console.ActionForceDeleteBranch)},
		{"stop", fixed(console.ActionStopBranch)},
		{"start", fixed(console.ActionStartBranch)},
		{"retry", func(b console.BranchSession) console.Action { return console.BranchRetryAction(b.Status) }},
	} {
		cmd.AddCommand(newBranchActionCommand(a, c.use, c.pick))
	}
	return cmd
}

func newBranchActionCommand(a *app, use string, pick func(console.BranchSession) console.Action) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <xid> <branchId>",
		Short: "Send " + use + " to a branch session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			row, err := a.findSession(ctx, args[0])
			if err != nil {
				return err
			}
			for _, b := range row.BranchSessions {
				if b.BranchID != args[1] {
					continue
				}
				n, err := a.console.Dispatcher.Run(ctx, pick(b), console.BranchTarget(b), a.prompter(cmd))
				return a.report(cmd, n, err)
			}
			return fmt.Errorf("branch %s not found in global session %s", args[1], args[0])
		},
	}
}
