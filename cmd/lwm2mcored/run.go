package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/m2mdev/lwm2mcore/metrics"
)

// notifyPollInterval is how often the run loop re-reads actively observed
// resources looking for a value change to report.
const notifyPollInterval = 5 * time.Second

// runNotifyLoop polls c.dispatch for value changes on every actively
// observed resource until ctx is cancelled, logging each one. Pushing a
// Notify response back to the DM server over the live CoAP exchange is
// not wired here: go-coap's separate-response/blockwise support would be
// needed to hold the original OBSERVE exchange open, which this adapter
// does not yet implement.
func runNotifyLoop(ctx context.Context, c *client) {
	ticker := time.NewTicker(notifyPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, n := range c.dispatch.Notify(ctx) {
				logrus.WithFields(logrus.Fields{
					"object":   n.ObjectID,
					"instance": n.InstanceID,
					"resource": n.ResourceID,
				}).Debug("observed resource changed")
			}
		}
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Register with the DM server and serve the client until terminated",
		Long: "Registers with the configured DM server using previously " +
			"provisioned credentials, serves inbound DM requests, and keeps " +
			"the registration alive until SIGINT/SIGTERM/SIGQUIT, mirroring " +
			"the lifetime-driven loop the LwM2M client is expected to run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			c, err := buildClient(cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			obs := metrics.NewObserver(c.bus)
			go obs.Run(ctx)
			go runNotifyLoop(ctx, c)

			if cfg.MetricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
				go func() {
					if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						logrus.WithError(err).Warn("metrics server stopped")
					}
				}()
				defer srv.Close()
			}

			if err := c.manager.Register(ctx); err != nil {
				return err
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
			logrus.Info("lwm2mcored running; press ctrl-c to stop")
			<-sigCh

			logrus.Info("shutting down")
			return c.manager.Deregister(context.Background())
		},
	}
	return cmd
}
