package cmd

import (
	"context"
	"os"

	"github.com/metal-toolbox/stockroom/internal/model"
	"github.com/spf13/cobra"
)

var receivingUser string

var checkinCmd = &cobra.Command{
	Use:   "checkin <id>",
	Short: "Return a device to the stock room",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, ids []string) error {
		return runCustody(cmd.Context(), ids[0], model.ActionCheckin, "")
	},
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout <id>",
	Short: "Assign a device from the stock room to a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, ids []string) error {
		return runCustody(cmd.Context(), ids[0], model.ActionCheckout, receivingUser)
	},
}

func runCustody(ctx context.Context, id string, action model.Action, user string) error {
	ctx, c, err := newClient(ctx, args, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	defer c.shutdown()

	if err := c.inv.Load(ctx); err != nil {
		return err
	}

	if user != "" {
		c.operator.Answer(user)
	}

	return c.session.Act(ctx, id, action)
}

func init() {
	checkoutCmd.Flags().StringVarP(&receivingUser, "user", "u", "", "user receiving the device, prompted for when not set")

	rootCmd.AddCommand(checkinCmd)
	rootCmd.AddCommand(checkoutCmd)
}
