package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/metal-toolbox/stockroom/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		b, err := json.MarshalIndent(version.Current(), "", "  ")
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(b))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
