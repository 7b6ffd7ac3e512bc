package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dylanmikesell/sitecache/internal/cache"
	"github.com/dylanmikesell/sitecache/internal/config"
	"github.com/dylanmikesell/sitecache/internal/logging"
	"github.com/dylanmikesell/sitecache/internal/output"
	"github.com/dylanmikesell/sitecache/internal/storage"
	"github.com/dylanmikesell/sitecache/internal/transport"
)

const version = "0.3.0"

// Exit codes
const (
	ExitSuccess      = 0
	ExitMiss         = 1
	ExitUsageError   = 2
	ExitRuntimeError = 4
)

// Command annotations read by the root hooks.
const (
	annotationNoCache = "sitecache/no-cache"
	annotationSweep   = "sitecache/sweep"
	annotationNoProbe = "sitecache/no-probe"
)

// Global flags
var (
	flagBackend  string
	flagPath     string
	flagPrefix   string
	flagTTL      time.Duration
	flagLogLevel string
	flagFormat   string
)

var rootCmd = &cobra.Command{
	Use:               "sitecache",
	Short:             "Inspect and maintain an expiring JSON cache",
	Long:              "sitecache reads, writes and sweeps a namespaced, TTL-bounded key-value cache and fetches JSON through it.",
	SilenceUsage:      true,
	PersistentPreRunE: openSession,
	PersistentPostRun: sweepSession,
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

// exitError carries a non-usage exit code out of a RunE.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func runtimeErr(format string, args ...any) error {
	return &exitError{code: ExitRuntimeError, err: fmt.Errorf(format, args...)}
}

// session is the state shared by commands that operate on the cache.
type session struct {
	// ctx is the context of the current execution. Subcommands keep the
	// context of their first execution, so it is taken from the root.
	ctx   context.Context
	cfg   config.Config
	log   zerolog.Logger
	store storage.Store
	cache *cache.Cache
	out   output.Writer
}

var sess *session

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagBackend, "backend", "", "Storage backend (memory, dir, sqlite)")
	pf.StringVar(&flagPath, "path", "", "Cache directory or database file")
	pf.StringVar(&flagPrefix, "prefix", "", "Key namespace prefix")
	pf.DurationVar(&flagTTL, "ttl", 0, "Entry lifetime (e.g. 90m, 24h)")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&flagFormat, "format", "", "Output format (text, json)")

	rootCmd.AddCommand(getCmd, setCmd, deleteCmd, clearCmd, cleanCmd, statsCmd, checkCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Run executes the root command and returns an exit code.
func Run() int {
	return execute(os.Args[1:], os.Stdout, os.Stderr)
}

func execute(args []string, stdout, stderr io.Writer) int {
	exitCode = ExitSuccess
	defer closeSession()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Cobra already prints the error
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		return ExitUsageError
	}
	return exitCode
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagBackend != "" {
		m["storage.backend"] = flagBackend
	}
	if flagPath != "" {
		m["storage.path"] = flagPath
	}
	if flagPrefix != "" {
		m["cache.prefix"] = flagPrefix
	}
	if flagTTL > 0 {
		secs := int(flagTTL / time.Second)
		if secs < 1 {
			secs = 1
		}
		m["cache.ttlSeconds"] = strconv.Itoa(secs)
	}
	if flagLogLevel != "" {
		m["log.level"] = flagLogLevel
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagConcurrency > 0 {
		m["fetch.concurrency"] = strconv.Itoa(flagConcurrency)
	}
	return m
}

func hasAnnotation(cmd *cobra.Command, name string) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[name]; ok {
			return true
		}
	}
	return false
}

// openSession loads config, opens the storage substrate and builds the cache.
// The cache sweeps expired entries on open when cache.cleanOnOpen is set.
func openSession(cmd *cobra.Command, args []string) error {
	if hasAnnotation(cmd, annotationNoCache) {
		return nil
	}

	cfg, err := config.Load(buildOverrides())
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	out, err := output.GetWriter(cfg.Format)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path, cfg.Storage.QuotaBytes)
	if err != nil {
		return runtimeErr("opening %s storage: %w", cfg.Storage.Backend, err)
	}

	client := &http.Client{Timeout: time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second}
	c := cache.New(store, cache.Options{
		Prefix:      cfg.Cache.Prefix,
		DefaultTTL:  time.Duration(cfg.Cache.TTLSeconds) * time.Second,
		Logger:      log,
		Transport:   transport.NewHTTP(client).WithUserAgent(cfg.Fetch.UserAgent),
		CleanOnOpen: cfg.Cache.CleanOnOpen,
	})
	sess = &session{ctx: cmd.Root().Context(), cfg: cfg, log: log, store: store, cache: c, out: out}

	if !hasAnnotation(cmd, annotationNoProbe) && !c.IsAvailable() {
		return runtimeErr("%s storage is not available", cfg.Storage.Backend)
	}
	return nil
}

// sweepSession removes expired entries after commands that write.
func sweepSession(cmd *cobra.Command, args []string) {
	if sess == nil || !hasAnnotation(cmd, annotationSweep) {
		return
	}
	sess.cache.CleanExpired()
}

func closeSession() {
	if sess == nil {
		return
	}
	if err := storage.Close(sess.store); err != nil {
		sess.log.Warn().Err(err).Msg("closing storage")
	}
	sess = nil
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print sitecache version",
	Annotations: map[string]string{annotationNoCache: ""},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sitecache version %s\n", version)
	},
}
