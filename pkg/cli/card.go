package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gregLibert/seqrets-card/pkg/seqrets"
)

func (a *app) readersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "readers",
		Short: "List connected smart card readers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, func(ctx context.Context) error {
				readers, err := a.manager.ListReaders(ctx)
				if err != nil {
					return err
				}
				return printJSON(a.stdout, readers)
			})
		},
	}
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show card content summary and PIN state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, func(ctx context.Context) error {
				reader, err := a.reader(ctx)
				if err != nil {
					return err
				}
				status, err := a.manager.Status(ctx, reader, a.config.Pin)
				if err != nil {
					return err
				}
				return printJSON(a.stdout, status)
			})
		},
	}
}

func (a *app) appendCmd() *cobra.Command {
	var (
		itemType string
		label    string
		data     string
	)

	cmd := &cobra.Command{
		Use:   "append",
		Short: "Append an item to the card",
		Long: `Append an item after the items already on the card.

The data is taken from --data, or read from stdin when --data is not set.
The card is erased and rewritten: if the write is interrupted, run it again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("data") {
				raw, err := io.ReadAll(a.stdin)
				if err != nil {
					return fmt.Errorf("read data from stdin: %w", err)
				}
				data = string(raw)
			}
			if data == "" {
				return errors.New("item data is empty")
			}

			item := seqrets.Item{ItemType: itemType, Label: label, Data: data}
			return a.run(cmd, func(ctx context.Context) error {
				reader, err := a.reader(ctx)
				if err != nil {
					return err
				}
				if err := a.manager.AppendItem(ctx, reader, item, a.config.Pin); err != nil {
					return err
				}
				return printOK(a.stdout)
			})
		},
	}

	cmd.Flags().StringVarP(&itemType, "type", "t", "share", "item type (share, vault, ...)")
	cmd.Flags().StringVarP(&label, "label", "l", "", "item label")
	cmd.Flags().StringVarP(&data, "data", "d", "", "item data (default is stdin)")
	return cmd
}

func (a *app) readCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read [index]",
		Short: "Print all items, or the item at index",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index := -1
			if len(args) == 1 {
				var err error
				if index, err = parseIndex(args[0]); err != nil {
					return err
				}
			}

			return a.run(cmd, func(ctx context.Context) error {
				reader, err := a.reader(ctx)
				if err != nil {
					return err
				}
				if index < 0 {
					items, err := a.manager.ReadAllItems(ctx, reader, a.config.Pin)
					if err != nil {
						return err
					}
					return printJSON(a.stdout, items)
				}
				item, err := a.manager.ReadItem(ctx, reader, index, a.config.Pin)
				if err != nil {
					return err
				}
				return printJSON(a.stdout, item)
			})
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <index>",
		Short: "Delete the item at index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context) error {
				reader, err := a.reader(ctx)
				if err != nil {
					return err
				}
				if err := a.manager.DeleteItem(ctx, reader, index, a.config.Pin); err != nil {
					return err
				}
				return printOK(a.stdout)
			})
		},
	}
}

func (a *app) eraseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "erase",
		Short: "Erase all items, the label and the PIN",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, func(ctx context.Context) error {
				reader, err := a.reader(ctx)
				if err != nil {
					return err
				}
				if err := a.manager.EraseCard(ctx, reader, a.config.Pin); err != nil {
					return err
				}
				return printOK(a.stdout)
			})
		},
	}
}

func (a *app) forceEraseCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "force-erase",
		Short: "Erase a locked card without PIN verification",
		Long: `Erase the card without verifying the PIN. This is the only way to
recover a card whose PIN retries are exhausted. Everything on it is lost.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("force-erase destroys all card content: pass --yes to confirm")
			}
			return a.run(cmd, func(ctx context.Context) error {
				reader, err := a.reader(ctx)
				if err != nil {
					return err
				}
				if err := a.manager.ForceEraseCard(ctx, reader); err != nil {
					return err
				}
				return printOK(a.stdout)
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the erase")
	return cmd
}

func parseIndex(s string) (int, error) {
	index, err := strconv.Atoi(s)
	if err != nil || index < 0 {
		return 0, fmt.Errorf("invalid item index %q", s)
	}
	return index, nil
}
