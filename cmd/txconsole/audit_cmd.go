/*
 * Copyright (c) 2021 yedf. All rights reserved.
 * Use of this source code is governed by a BSD-style
 * license that can be found in the LICENSE file.
 */

package main

import (
	"errors"

	"github.com/slievrly/seata/common"
	"github.com/slievrly/seata/console/storage"
	"github.com/spf13/cobra"
)

var errAuditDisabled = errors.New("audit log is disabled, set Store.driver to mem, mysql, postgres or redis")

func newAuditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the log of control actions sent from this console",
	}
	cmd.AddCommand(newAuditListCommand(), newAuditMigrateCommand())
	return cmd
}

func newAuditListCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list [xid]",
		Short: "List the newest action records, of one xid if given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.GetStore()
			if st == nil {
				return errAuditDisabled
			}
			xid := ""
			if len(args) > 0 {
				xid = args[0]
			}
			recs, err := st.ListActionRecords(xid, limit)
			if err != nil {
				return err
			}
			printAudit(cmd.OutOrStdout(), recs)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum records to print, 0 for all")
	return cmd
}

func newAuditMigrateCommand() *cobra.Command {
	var drop bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the audit table or keys of the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.GetStore()
			if st == nil {
				return errAuditDisabled
			}
			if err := common.CatchP(func() { st.PopulateData(!drop) }); err != nil {
				return err
			}
			common.Infof("audit store %s migrated", common.Config.Store["driver"])
			return nil
		},
	}
	cmd.Flags().BoolVar(&drop, "drop", false, "drop the existing records first")
	return cmd
}
