/*
 * Copyright (c) 2021 yedf. All rights reserved.
 * Use of this source code is governed by a BSD-style
 * license that can be found in the LICENSE file.
 */

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/slievrly/seata/common"
	"github.com/slievrly/seata/console"
	"github.com/slievrly/seata/console/storage"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	severityStyles = map[console.Severity]lipgloss.Style{
		console.SeverityPending: lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		console.SeveritySuccess: successStyle,
		console.SeverityError:   errorStyle,
		console.SeverityWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
)

func styleStatus(l console.StatusLabel) string {
	if st, ok := severityStyles[l.Severity]; ok {
		return st.Render(l.Label)
	}
	return l.Label
}

func orDash(s string) string {
	return common.OrString(s, "-")
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func age(m console.RawMillis) string {
	if !m.Valid {
		return "-"
	}
	return humanize.Time(common.MillisToTime(m.Millis, nil))
}

// status text goes last so its escape codes do not shift the columns
func printSessions(w io.Writer, s console.SessionState) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "XID\tAPPLICATION\tNAME\tBEGIN\tAGE\tSTATUS")
	for _, r := range s.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.Xid, orDash(r.ApplicationID), orDash(r.TransactionName),
			deref(r.BeginTime), age(r.BeginMillis), styleStatus(r.StatusLabel()))
	}
	_ = tw.Flush()
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("page %d, %d of %d sessions", s.Query.PageNum, len(s.Rows), s.Total)))
	if !s.Query.WithBranch {
		return
	}
	for _, r := range s.Rows {
		if len(r.BranchSessions) == 0 {
			continue
		}
		fmt.Fprintln(w, titleStyle.Render("Branches of "+r.Xid))
		printBranches(w, r.BranchSessions)
	}
}

func printBranches(w io.Writer, bs []console.BranchSession) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "BRANCH\tTYPE\tRESOURCE\tCLIENT\tSTATUS")
	for _, b := range bs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", b.BranchID, orDash(string(b.BranchType)), orDash(b.ResourceID),
			orDash(b.ClientID), styleStatus(b.StatusLabel()))
	}
	_ = tw.Flush()
}

func printLocks(w io.Writer, s console.LockState) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "XID\tBRANCH\tTABLE\tPK\tRESOURCE\tCREATED")
	for _, l := range s.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", l.Xid, orDash(l.BranchID), orDash(l.TableName), orDash(l.Pk),
			orDash(l.ResourceID), deref(l.GmtCreate))
	}
	_ = tw.Flush()
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("page %d, %d of %d locks", s.Query.PageNum, len(s.Rows), s.Total)))
}

func printAudit(w io.Writer, recs []storage.ActionRecord) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tXID\tBRANCH\tACTION\tOPERATOR\tMESSAGE\tRESULT")
	for _, r := range recs {
		when := "-"
		if r.CreateTime != nil {
			when = humanize.Time(*r.CreateTime)
		}
		result := successStyle.Render(r.Result)
		if r.Result != storage.ResultSucceed {
			result = errorStyle.Render(r.Result)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, when, r.Xid, orDash(r.BranchID), r.Action,
			orDash(r.Operator), orDash(r.Message), result)
	}
	_ = tw.Flush()
}

func printStatuses(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "SCOPE\tCODE\tSEVERITY\tLABEL")
	for _, s := range console.GlobalStatuses() {
		l := console.LabelFor(int(s), console.ScopeGlobal)
		fmt.Fprintf(tw, "global\t%d\t%s\t%s\n", s, l.Severity, styleStatus(l))
	}
	for s := console.BranchUnKnown; s <= console.BranchStopRetry; s++ {
		l := console.LabelFor(int(s), console.ScopeBranch)
		fmt.Fprintf(tw, "branch\t%d\t%s\t%s\n", s, l.Severity, styleStatus(l))
	}
	_ = tw.Flush()
}
