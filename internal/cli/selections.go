package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"merchant-desk/internal/domain"
	"merchant-desk/internal/service"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func (a *App) selectionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "selections",
		Short: "Inspect and convert customer selections",
	}

	var output string
	list := &cobra.Command{
		Use:   "list",
		Short: "List pending selections, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stores, err := a.openStores(cmd.Context())
			if err != nil {
				return err
			}
			selections := service.NewSelectionService(stores.Selections, a.publisher(), a.log)

			var pending []*domain.CustomerSelection
			for s, err := range selections.ListPending(cmd.Context()) {
				if err != nil {
					return err
				}
				pending = append(pending, s)
			}

			if output == "json" {
				if pending == nil {
					pending = []*domain.CustomerSelection{}
				}
				return printJSON(cmd.OutOrStdout(), pending)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCUSTOMER\tPHONE\tITEMS\tTOTAL\tSUBMITTED")
			for _, s := range pending {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
					s.ID, s.CustomerName, s.CustomerPhone, len(s.Items),
					s.Total().StringFixed(2), s.CreatedAt.Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVarP(&output, "output", "o", "text", "output format (text|json)")

	convert := &cobra.Command{
		Use:   "convert <id>",
		Short: "Claim a pending selection and record its order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid selection id %q: %w", args[0], err)
			}
			stores, err := a.openStores(cmd.Context())
			if err != nil {
				return err
			}

			publisher := a.publisher()
			selections := service.NewSelectionService(stores.Selections, publisher, a.log)
			orders := service.NewOrderService(stores.Orders, publisher, a.log)
			order, err := service.NewConversionService(selections, orders, a.log).Convert(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), order)
		},
	}

	cmd.AddCommand(list, convert)
	return cmd
}
