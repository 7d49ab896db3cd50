/*
 * Copyright (c) 2021 yedf. All rights reserved.
 * Use of this source code is governed by a BSD-style
 * license that can be found in the LICENSE file.
 */

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/slievrly/seata/common"
	"github.com/slievrly/seata/console"
	"github.com/spf13/cobra"
)

func metricsRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func newWatchCommand(a *app) *cobra.Command {
	f := &sessionFilters{}
	var interval time.Duration
	var count int
	var listen string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh the global session list periodically and export metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if interval <= 0 {
				return fmt.Errorf("interval should be positive, got %s", interval)
			}
			s := a.console.Sessions
			if err := f.apply(s); err != nil {
				return err
			}
			if listen = common.OrString(listen, common.Config.MetricsListen); listen != "" {
				gin.SetMode(gin.ReleaseMode)
				srv := &http.Server{Addr: listen, Handler: metricsRouter()}
				go func() {
					if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						common.Errorf("metrics server at %s stopped: %v", listen, err)
					}
				}()
				defer srv.Close()
				common.Infof("metrics exported at %s/metrics", listen)
			}
			out := cmd.OutOrStdout()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for i := 0; count == 0 || i < count; i++ {
				if i > 0 {
					select {
					case <-ctx.Done():
						return nil
					case <-ticker.C:
					}
				}
				if err := s.Search(ctx); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render(console.NotificationText(err, err.Error())))
					continue
				}
				fmt.Fprintln(out, dimStyle.Render(time.Now().In(common.Config.Location()).Format(console.TimeLayout)))
				printSessions(out, s.Snapshot())
			}
			return nil
		},
	}
	f.bind(cmd.Flags())
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "refresh interval")
	cmd.Flags().IntVar(&count, "count", 0, "stop after this many refreshes, 0 to run until interrupted")
	cmd.Flags().StringVar(&listen, "metrics-listen", "", "serve /metrics and /healthz at this address (default from config)")
	return cmd
}

func newStatusesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "statuses",
		Short: "Print the status catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printStatuses(cmd.OutOrStdout())
			return nil
		},
	}
}
