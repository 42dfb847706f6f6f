package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/sitebudget/internal/model"
	"github.com/theirongolddev/sitebudget/internal/pipeline"
	"github.com/theirongolddev/sitebudget/internal/watch"
)

var (
	flagWatchAddr     string
	flagWatchInterval time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [project-id]",
	Short: "Poll a project and serve its budget summary over HTTP",
	Long: `Poll a project's budget and serve the derived summary on a local HTTP API:

  GET /healthz      liveness
  GET /v1/status    latest snapshot and poll state
  GET /v1/events    recent change events
  GET /v1/stream    server-sent events as budget totals change`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&flagWatchAddr, "addr", "", "Listen address (default from [watch] addr)")
	watchCmd.Flags().DurationVar(&flagWatchInterval, "interval", 0, "Poll interval (default from [watch] interval_sec)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(_ *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}
	id, err := projectID(args, a.cfg.General.DefaultProject)
	if err != nil {
		return err
	}

	addr := a.cfg.Watch.Addr
	if flagWatchAddr != "" {
		addr = flagWatchAddr
	}
	interval := a.cfg.WatchInterval()
	if flagWatchInterval > 0 {
		interval = flagWatchInterval
	}

	src := pipeline.Sources{
		Projects: a.svc.Projects,
		Items:    a.svc.Forecast,
		Expenses: a.svc.Expenses,
		Draws:    a.svc.Draws,
	}
	load := func(ctx context.Context) (model.ProjectBundle, error) {
		ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout()*2)
		defer cancel()
		res, err := pipeline.Load(ctx, src, id)
		if err != nil {
			return model.ProjectBundle{}, err
		}
		a.log.Debug("watch poll", "project_id", id, "elapsed", res.Elapsed)
		if a.cache != nil {
			if err := a.cache.SaveBundle(res.Bundle); err != nil {
				a.log.Warn("caching bundle", "err", err)
			}
		}
		return res.Bundle, nil
	}

	svc := watch.New(watch.Config{
		ProjectID: id,
		Source:    a.source(),
		Interval:  interval,
		Addr:      addr,
	}, load, a.log)

	ctx, stop := commandContext()
	defer stop()

	fmt.Printf("\n  Watching project %d every %s on http://%s  (Ctrl+C to stop)\n\n", id, interval, addrOrDefault(addr))
	return svc.Run(ctx)
}

func addrOrDefault(addr string) string {
	if addr == "" {
		return "127.0.0.1:8787"
	}
	return addr
}
