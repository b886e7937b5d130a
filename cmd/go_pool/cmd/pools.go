package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/andrei-cloud/go_pool/internal/config"
)

// poolsCmd represents the pools command.
var poolsCmd = &cobra.Command{
	Use:   "pools",
	Short: "List configured pool templates",
	Long:  `List the pool templates the serve command registers at startup, as read from the configuration file.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := config.Initialize(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		// Create tabwriter for aligned output
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "Group\tTag\tInitial\tMax\tExpand\tCull\tCull Delay")
		fmt.Fprintln(w, "-----\t---\t-------\t---\t------\t----\t----------")

		for _, p := range config.Get().Pools {
			delay := "-"
			if p.CullExcess {
				delay = p.CullDelay.String()
			}
			fmt.Fprintf(
				w,
				"%s\t%s\t%d\t%d\t%t\t%t\t%s\n",
				p.Group, p.Tag, p.InitialSize, p.MaxSize, p.AllowExpand, p.CullExcess, delay,
			)
		}

		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(poolsCmd)
}
