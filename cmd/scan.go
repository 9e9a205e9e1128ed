package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/metal-toolbox/stockroom/internal/console"
	"github.com/metal-toolbox/stockroom/internal/model"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Search the register and check devices in and out interactively",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runScan(cmd.Context(), args)
	},
}

var listCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "Print the register, filtered by tag, serial or user",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, queryArgs []string) error {
		ctx, c, err := newClient(cmd.Context(), args, os.Stdin, os.Stdout)
		if err != nil {
			return err
		}
		defer c.shutdown()

		if err := c.inv.Load(ctx); err != nil {
			return err
		}

		c.inv.SetQuery(strings.Join(queryArgs, " "))

		return console.Render(os.Stdout, c.inv.View())
	},
}

func runScan(ctx context.Context, args *model.Args) error {
	ctx, c, err := newClient(ctx, args, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	defer c.shutdown()

	fmt.Fprintln(os.Stdout, console.LoadingMessage)

	// a failed load leaves an empty register, the session stays usable
	_ = c.inv.Load(ctx)

	return c.session.Run(ctx)
}

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(listCmd)
}
