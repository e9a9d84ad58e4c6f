package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	engineconfig "github.com/RyanBlaney/sonido-meter/assessment/config"
)

func newCategoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the speech categories and their ideal rate ranges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tNAME\tRANGE (WPM)")
			for _, c := range engineconfig.Categories() {
				fmt.Fprintf(tw, "%s\t%s\t%.0f-%.0f\n", c.Key, c.Name, c.MinPpm, c.MaxPpm)
			}
			return tw.Flush()
		},
	}
}
