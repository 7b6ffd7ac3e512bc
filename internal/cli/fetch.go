package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/dylanmikesell/sitecache/internal/cache"
	"github.com/dylanmikesell/sitecache/internal/output"
	"github.com/dylanmikesell/sitecache/internal/transport"
)

// Fetch flags
var (
	flagHeaders     []string
	flagMethod      string
	flagBody        string
	flagConcurrency int
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>...",
	Short: "Fetch JSON through the cache",
	Long: "Fetch each URL, serving live cached responses without touching the network.\n" +
		"Successful responses are cached for the configured TTL; failures are never cached.",
	Args:        cobra.MinimumNArgs(1),
	Annotations: sweep,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := buildRequestOptions()
		if err != nil {
			return err
		}

		results := fetchAll(cmd, args, opts, sess.cfg.Fetch.Concurrency)
		for _, r := range results {
			if !r.OK() {
				exitCode = ExitMiss
				break
			}
		}
		return sess.out.Fetch(cmd.OutOrStdout(), results)
	},
}

func init() {
	fetchCmd.Flags().StringArrayVarP(&flagHeaders, "header", "H", nil, "Request header as name=value (repeatable)")
	fetchCmd.Flags().StringVarP(&flagMethod, "method", "X", "", "HTTP method (default GET)")
	fetchCmd.Flags().StringVar(&flagBody, "body", "", "Request body")
	fetchCmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "Maximum concurrent requests")
}

func buildRequestOptions() (transport.RequestOptions, error) {
	opts := transport.RequestOptions{
		Method: flagMethod,
		Body:   flagBody,
	}
	for _, h := range flagHeaders {
		name, value, ok := strings.Cut(h, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return opts, fmt.Errorf("invalid header %q (want name=value)", h)
		}
		if opts.Headers == nil {
			opts.Headers = make(map[string]string)
		}
		opts.Headers[name] = strings.TrimSpace(value)
	}
	return opts, nil
}

// fetchAll fetches urls with at most limit requests in flight. Results keep
// the order of urls. Identical URLs are fetched independently.
func fetchAll(cmd *cobra.Command, urls []string, opts transport.RequestOptions, limit int) []output.FetchResult {
	results := make([]output.FetchResult, len(urls))
	p := pool.New().WithMaxGoroutines(max(limit, 1))
	for i, u := range urls {
		i, u := i, u
		p.Go(func() {
			data, err := sess.cache.CachedFetch(sess.ctx, u, opts, sess.cache.DefaultTTL())
			results[i] = output.FetchResult{URL: u, Data: data}
			if err != nil {
				results[i].Error = err.Error()
				results[i].Kind = "unknown"
				var fe *cache.FetchError
				if errors.As(err, &fe) {
					results[i].Kind = fe.Kind.String()
				}
			}
		})
	}
	p.Wait()
	return results
}
