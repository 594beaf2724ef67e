package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matzehuels/careflow/pkg/cache"
)

// cacheCommand creates the cache inspection command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the response cache",
	}
	cmd.AddCommand(c.cacheStatusCommand())
	return cmd
}

func (c *CLI) cacheStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Fetch the probe endpoints through the cache and print its entries",
		Long: `The response cache lives in memory, so this command first reads every
configured probe endpoint through the cached client and then prints what
the cache holds, with the remaining TTL and size of each entry.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			s, err := c.newStack(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, ep := range cfg.Probe.Endpoints {
				if err := s.client.Get(cmd.Context(), ep, nil, 0, false, nil); err != nil {
					if ctxErr := cmd.Context().Err(); ctxErr != nil {
						return ctxErr
					}
					printWarning(out, "%s: %v", ep, err)
				}
			}
			renderCacheStatus(out, s.cache.Status())
			return nil
		},
	}
}

func renderCacheStatus(w io.Writer, status map[string]cache.EntryStatus[[]byte]) {
	if len(status) == 0 {
		printInfo(w, "Cache is empty")
		return
	}

	keys := make([]string, 0, len(status))
	for k := range status {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, len(keys))
	total := 0
	for i, k := range keys {
		st := status[k]
		total += len(st.Value)
		rows[i] = []string{k, formatTTL(st.Remaining), fmt.Sprintf("%d B", len(st.Value))}
	}
	fmt.Fprintln(w, newTable([]string{"Key", "TTL left", "Size"}, rows, nil))
	printSuccess(w, "%d entries, %d bytes", len(keys), total)
}
