// Package cmd implements the sitebudget CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/sitebudget/internal/api"
	"github.com/theirongolddev/sitebudget/internal/cli"
	"github.com/theirongolddev/sitebudget/internal/config"
	"github.com/theirongolddev/sitebudget/internal/form"
	"github.com/theirongolddev/sitebudget/internal/model"
	"github.com/theirongolddev/sitebudget/internal/pipeline"
	"github.com/theirongolddev/sitebudget/internal/service"
	"github.com/theirongolddev/sitebudget/internal/session"
	"github.com/theirongolddev/sitebudget/internal/state"
	"github.com/theirongolddev/sitebudget/internal/store"
)

var (
	flagVerbose bool
	flagAPIBase string
	flagActuals string
	flagNoCache bool
)

var rootCmd = &cobra.Command{
	Use:           "sitebudget",
	Short:         "Construction budget tracker",
	Long:          "Track forecast, actual spend and progress for home-construction projects.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDefault,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, cli.Error(describeError(err)))
		fmt.Fprintln(os.Stderr)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&flagAPIBase, "api", "", "API base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagActuals, "actuals", "", `Actual cost source: "item" or "expenses"`)
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip the offline cache")
}

// runDefault shows the default project's summary, or the project list.
func runDefault(cmd *cobra.Command, args []string) error {
	if cfg, err := config.Load(); err == nil && cfg.General.DefaultProject != 0 {
		return runSummary(cmd, nil)
	}
	return runProjectsList(cmd, args)
}

// app bundles everything a command needs.
type app struct {
	cfg     config.Config
	log     *slog.Logger
	session *session.Session
	client  *api.Client
	svc     *service.Services
	cache   *store.Cache
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newApp loads .env, config and the saved session, then wires the client.
func newApp() (*app, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	log := newLogger(flagVerbose)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagAPIBase != "" {
		cfg.API.BaseURL = flagAPIBase
	}
	if flagActuals != "" {
		if _, err := model.ParseActualsSource(flagActuals); err != nil {
			return nil, form.Errors{"actuals": err.Error()}
		}
		cfg.Budget.ActualsSource = flagActuals
	}

	sess := session.New(session.NewFileStore(config.ConfigDir()))
	sess.SetLogger(log)
	if err := sess.Restore(); err != nil {
		log.Warn("ignoring unreadable session", "err", err)
	}

	client := api.New(api.Options{
		BaseURL:     cfg.API.BaseURL,
		Timeout:     cfg.Timeout(),
		Credentials: sess,
		OnAuthRequired: func() {
			log.Debug("session cleared after 401")
		},
		Logger: log,
	})

	a := &app{
		cfg:     cfg,
		log:     log,
		session: sess,
		client:  client,
		svc:     service.New(client),
	}

	if cfg.General.UseCache && !flagNoCache {
		cache, err := store.Open(pipeline.CachePath())
		if err != nil {
			log.Warn("offline cache unavailable", "path", pipeline.CachePath(), "err", err)
		} else {
			a.cache = cache
		}
	}
	return a, nil
}

func (a *app) close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
}

func (a *app) source() model.ActualsSource {
	return a.cfg.ActualsSource()
}

// requireLogin fails fast when there is no usable session.
func (a *app) requireLogin() error {
	if !a.session.IsAuthenticated() {
		if a.session.Token() != "" {
			a.session.Clear()
		}
		return api.ErrAuthRequired
	}
	return nil
}

func (a *app) reconciler() *service.Reconciler {
	return service.NewReconciler(a.svc, a.source(), a.log)
}

func (a *app) projectView() *state.ProjectView {
	return state.NewProjectView(a.svc, a.reconciler(), a.cache, a.source())
}

// loadView signs in, resolves the project id and loads its bundle.
func (a *app) loadView(ctx context.Context, args []string) (*state.ProjectView, error) {
	if err := a.requireLogin(); err != nil {
		return nil, err
	}
	id, err := projectID(args, a.cfg.General.DefaultProject)
	if err != nil {
		return nil, err
	}
	v := a.projectView()
	if err := v.Load(ctx, id); err != nil {
		return nil, err
	}
	if v.FromCache() {
		fmt.Fprintln(os.Stderr, cli.Warn(fmt.Sprintf("  Offline: showing data cached %s", cli.FormatAge(v.FetchedAt()))))
	}
	return v, nil
}

// commandContext is canceled on SIGINT/SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// requestContext bounds a one-shot command.
func requestContext() (context.Context, context.CancelFunc) {
	ctx, stop := commandContext()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	return ctx, func() {
		cancel()
		stop()
	}
}

// projectID reads the first argument, falling back to the configured default.
func projectID(args []string, fallback int64) (int64, error) {
	if len(args) == 0 || args[0] == "" {
		if fallback != 0 {
			return fallback, nil
		}
		return 0, form.Errors{"project": "Project id is required (or set [general] default_project)"}
	}
	return parseID("project", args[0])
}

func parseID(field, s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, form.Errors{field: fmt.Sprintf("%q is not a valid %s id", s, field)}
	}
	return id, nil
}

// mergeErrors folds a field error into errs, keeping any message already set.
func mergeErrors(errs form.Errors, err error) {
	var fe form.Errors
	if !errors.As(err, &fe) {
		errs.Add("input", err.Error())
		return
	}
	for f, msg := range fe {
		errs.Add(f, msg)
	}
}

// describeError maps the error taxonomy to a message for the terminal.
func describeError(err error) string {
	var (
		netErr *api.NetworkError
		reqErr *api.RequestError
		valErr form.Errors
	)
	switch {
	case errors.Is(err, api.ErrAuthRequired):
		return "You are not signed in or your session expired. Run `sitebudget login`."
	case errors.As(err, &valErr):
		fields := make([]string, 0, len(valErr))
		for f := range valErr {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		msgs := make([]string, len(fields))
		for i, f := range fields {
			msgs[i] = valErr[f]
		}
		return strings.Join(msgs, "\n  ")
	case errors.Is(err, api.ErrNotFound):
		return "Not found."
	case errors.As(err, &netErr):
		return fmt.Sprintf("Could not reach the budget API (%s). Check your connection.", netErr.URL)
	case errors.As(err, &reqErr):
		return reqErr.Message
	}
	return err.Error()
}

// notFound prints the friendly not-found line and reports whether err was a 404.
func notFound(err error, what string) bool {
	if !errors.Is(err, api.ErrNotFound) {
		return false
	}
	fmt.Printf("\n  %s not found.\n\n", what)
	return true
}
