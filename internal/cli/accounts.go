package cli

import (
	"errors"
	"fmt"
	"time"

	"merchant-desk/internal/domain"
	"merchant-desk/internal/service"

	"github.com/spf13/cobra"
)

func (a *App) accountsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage back-office accounts",
	}

	cmd.AddCommand(
		a.createAccountCommand("create-owner", "Create an owner account that can manage the catalog and enrol merchants", domain.RoleOwner),
		a.createAccountCommand("create-merchant", "Create a merchant account that can convert selections and record sales", domain.RoleMerchant),
	)
	return cmd
}

func (a *App) createAccountCommand(use, short, role string) *cobra.Command {
	var email, password, firstName, lastName string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(password) < 8 {
				return errors.New("password must be at least 8 characters")
			}
			stores, err := a.openStores(cmd.Context())
			if err != nil {
				return err
			}
			accounts := service.NewAccountService(stores.Accounts, stores.RefreshTokens, service.TokenConfig{
				Secret:        a.cfg.JWT.Secret,
				AccessExpiry:  time.Duration(a.cfg.JWT.AccessExpiry) * time.Minute,
				RefreshExpiry: time.Duration(a.cfg.JWT.RefreshExpiry) * 24 * time.Hour,
			})

			register := accounts.Register
			if role == domain.RoleOwner {
				register = accounts.RegisterOwner
			}
			account, err := register(cmd.Context(), email, password, firstName, lastName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", account.Role, account.Email, account.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "login password")
	cmd.Flags().StringVar(&firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "last name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}
