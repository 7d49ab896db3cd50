/*
 * Copyright (c) 2021 yedf. All rights reserved.
 * Use of this source code is governed by a BSD-style
 * license that can be found in the LICENSE file.
 */

package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/slievrly/seata/common"
	"github.com/slievrly/seata/console"
	"github.com/slievrly/seata/consolecli"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type app struct {
	v       *viper.Viper
	console *console.Console
	yes     bool
}

func newRootCommand() *cobra.Command {
	a := &app{v: viper.New()}
	cmd := &cobra.Command{
		Use:           "txconsole",
		Short:         "Operator console of the seata transaction coordinator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	pf := cmd.PersistentFlags()
	pf.String("config", "", "config file (default conf.yml or conf.sample.yml searched upwards)")
	pf.String("server", "", "coordinator console url, e.g. http://localhost:7091")
	pf.Duration("timeout", 0, "request timeout (default from config)")
	pf.String("log-level", "", "log level: debug info warn error")
	pf.String("time-zone", "", "time zone used to print timestamps")
	pf.String("operator", "", "operator name written to the audit log (default user@hexip)")
	pf.BoolP("yes", "y", false, "answer yes to every confirmation")
	for _, name := range []string{"config", "server", "timeout", "log-level", "time-zone", "operator", "yes"} {
		if err := a.v.BindPFlag(name, pf.Lookup(name)); err != nil {
			panic(err)
		}
	}
	a.v.SetEnvPrefix("TXCONSOLE")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	cmd.AddCommand(
		newSessionsCommand(a),
		newBranchesCommand(a),
		newLocksCommand(a),
		newAuditCommand(),
		newWatchCommand(a),
		newStatusesCommand(),
	)
	return cmd
}

// setup loads the config file, applies the flags on top and wires the console
func (a *app) setup() error {
	if err := common.LoadConfig(a.v.GetString("config")); err != nil {
		return err
	}
	c := &common.Config
	c.Server = common.OrString(a.v.GetString("server"), c.Server)
	if d := a.v.GetDuration("timeout"); d > 0 {
		c.RequestTimeout = d.Milliseconds()
	}
	c.LogLevel = common.OrString(a.v.GetString("log-level"), c.LogLevel)
	c.TimeZone = common.OrString(a.v.GetString("time-zone"), c.TimeZone)
	if err := common.CheckConfig(); err != nil {
		return err
	}
	common.InitLog(c.LogLevel)
	a.yes = a.v.GetBool("yes")
	a.console = console.NewConsole(consolecli.NewFromConfig(), a.v.GetString("operator"))
	return nil
}

func (a *app) prompter(cmd *cobra.Command) console.Prompter {
	return &linePrompter{in: bufio.NewReader(cmd.InOrStdin()), out: cmd.OutOrStdout(), yes: a.yes}
}

// report prints the notice of a finished action. A failure notice becomes the command error.
func (a *app) report(cmd *cobra.Command, n *console.Notice, err error) error {
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if n == nil {
		fmt.Fprintln(out, dimStyle.Render("Cancelled"))
		return nil
	}
	if n.Level == console.NoticeError {
		return errors.New(n.Text)
	}
	fmt.Fprintln(out, successStyle.Render(n.Text))
	return nil
}
