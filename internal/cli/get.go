package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	careerrors "github.com/matzehuels/careflow/pkg/errors"
)

func (c *CLI) getCommand() *cobra.Command {
	var (
		query   []string
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Fetch a resource through the resilient client",
		Long: `Fetch a resource from the care service and print it as JSON.

The request goes through the response cache and is retried on transient
failures. The monitor's health line is printed to stderr afterwards.`,
		Example: `  careflow get /caregivers -q region=north -q skill=dementia
  careflow get /patients/42/matches --refresh`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseQuery(query)
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			s, err := c.newStack(cfg)
			if err != nil {
				return err
			}

			var body json.RawMessage
			err = s.client.Get(cmd.Context(), args[0], q, 0, refresh, &body)
			printHealth(cmd.ErrOrStderr(), s.monitor.Health())
			if err != nil {
				return err
			}

			var pretty bytes.Buffer
			if err := json.Indent(&pretty, body, "", "  "); err != nil {
				pretty.Reset()
				pretty.Write(body)
			}
			fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "query parameter as key=value (repeatable)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache")

	return cmd
}

// parseQuery turns repeated key=value flags into url.Values.
func parseQuery(pairs []string) (url.Values, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	q := make(url.Values, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, careerrors.New(careerrors.ErrCodeInvalidInput, "query %q: want key=value", p)
		}
		q.Add(k, v)
	}
	return q, nil
}
