package commands

import (
	"net/http"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/edquist/osg-configure/pkg/engine"
	"github.com/edquist/osg-configure/pkg/telemetry"
)

// watchSettle coalesces bursts of filesystem events from editors that write
// a file in several steps.
const watchSettle = 500 * time.Millisecond

func newWatchCommand() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-verify the configuration whenever it changes",
		Long: `Watch the configuration directory and re-run the verify passes on every
change. Nothing is written; this is meant for iterating on a staged
configuration.

With --metrics-addr, run counters are exposed in Prometheus format.`,
		Example: `  # Watch the default directory
  osg-configure watch

  # Watch with metrics on :9100
  osg-configure watch --metrics-addr :9100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}

			var metrics *telemetry.Metrics
			if metricsAddr != "" {
				metrics = telemetry.NewMetrics()
				mux := http.NewServeMux()
				mux.Handle("/metrics", metrics.Handler())
				server := &http.Server{Addr: metricsAddr, Handler: mux}
				go func() {
					if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						log.WithError(err).Error("metrics server failed")
					}
				}()
				defer server.Close()
				log.Infof("serving metrics on %s/metrics", metricsAddr)
			}

			eng, err := newEngine(log, metrics, engine.RenderSkipInvalid)
			if err != nil {
				return err
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer watcher.Close()
			if err := watcher.Add(configDir); err != nil {
				return err
			}

			verify := func() {
				src, err := loadSource()
				if err != nil {
					log.WithError(err).Error("failed to reload configuration")
					return
				}
				result, err := eng.Verify(src)
				if err != nil {
					log.WithError(err).Error("verify failed")
					return
				}
				printDiagnostics(eng)
				if result.ParseOK && result.ValidateOK {
					log.Info("configuration ok")
				} else {
					log.Warn("configuration has problems")
				}
			}

			log.Infof("watching %s", configDir)
			verify()

			ctx := cmd.Context()
			var settle *time.Timer
			pending := make(chan struct{}, 1)
			for {
				select {
				case <-ctx.Done():
					return nil
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
						continue
					}
					log.Debugf("configuration changed: %s", event.Name)
					if settle != nil {
						settle.Stop()
					}
					settle = time.AfterFunc(watchSettle, func() {
						select {
						case pending <- struct{}{}:
						default:
						}
					})
				case <-pending:
					verify()
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					log.WithError(err).Warn("watch error")
				}
			}
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on (empty disables)")

	return cmd
}
