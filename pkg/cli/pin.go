package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

func (a *app) pinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pin",
		Short: "Manage the card PIN",
	}
	cmd.AddCommand(a.pinVerifyCmd(), a.pinSetCmd(), a.pinChangeCmd())
	return cmd
}

func (a *app) pinVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [pin]",
		Short: "Check a PIN against the card (a wrong PIN consumes a retry)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pin := a.config.Pin
			if len(args) == 1 {
				pin = args[0]
			}
			if pin == "" {
				return errors.New("no PIN given: pass it as an argument or with --pin")
			}
			return a.run(cmd, func(ctx context.Context) error {
				reader, err := a.reader(ctx)
				if err != nil {
					return err
				}
				if err := a.manager.VerifyPin(ctx, reader, pin); err != nil {
					return err
				}
				return printOK(a.stdout)
			})
		},
	}
}

func (a *app) pinSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <pin>",
		Short: "Set the PIN of a card that has none (8-16 bytes)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context) error {
				reader, err := a.reader(ctx)
				if err != nil {
					return err
				}
				if err := a.manager.SetPin(ctx, reader, args[0]); err != nil {
					return err
				}
				return printOK(a.stdout)
			})
		},
	}
}

func (a *app) pinChangeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "change <old-pin> <new-pin>",
		Short: "Replace the PIN (new PIN 8-16 bytes)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context) error {
				reader, err := a.reader(ctx)
				if err != nil {
					return err
				}
				if err := a.manager.ChangePin(ctx, reader, args[0], args[1]); err != nil {
					return err
				}
				return printOK(a.stdout)
			})
		},
	}
}
