package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dylanmikesell/sitecache/internal/output"
)

var sweep = map[string]string{annotationSweep: ""}

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a live cached value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, ok := sess.cache.Get(args[0])
		if !ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "miss: %s\n", args[0])
			exitCode = ExitMiss
			return nil
		}
		return sess.out.Value(cmd.OutOrStdout(), args[0], value)
	},
}

var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a value for the configured TTL",
	Long: "Store a value under key. A value that parses as JSON is stored as is;\n" +
		"anything else is stored as a JSON string. Use --ttl to override the lifetime.",
	Args:        cobra.ExactArgs(2),
	Annotations: sweep,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !sess.cache.Set(args[0], parseValue(args[1])) {
			return runtimeErr("storing %q failed", args[0])
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:         "delete <key>",
	Aliases:     []string{"rm"},
	Short:       "Remove a cached value",
	Args:        cobra.ExactArgs(1),
	Annotations: sweep,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess.cache.Delete(args[0])
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every entry in the namespace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sess.out.Count(cmd.OutOrStdout(), "clear", sess.cache.Clear())
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove expired and unreadable entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sess.out.Count(cmd.OutOrStdout(), "clean", sess.cache.CleanExpired())
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, ok := sess.cache.GetStats()
		if !ok {
			return runtimeErr("reading cache stats failed")
		}
		return sess.out.Stats(cmd.OutOrStdout(), sess.cache.Prefix(), stats)
	},
}

var checkCmd = &cobra.Command{
	Use:         "check",
	Short:       "Probe whether the storage backend accepts writes",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNoProbe: ""},
	RunE: func(cmd *cobra.Command, args []string) error {
		res := output.CheckResult{
			Backend:   sess.cfg.Storage.Backend,
			Prefix:    sess.cache.Prefix(),
			Available: sess.cache.IsAvailable(),
		}
		if !res.Available {
			exitCode = ExitRuntimeError
		}
		return sess.out.Check(cmd.OutOrStdout(), res)
	},
}

// parseValue keeps valid JSON as is and wraps anything else as a string.
func parseValue(s string) any {
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	return s
}
