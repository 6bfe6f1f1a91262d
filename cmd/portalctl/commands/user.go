package commands

import (
	"errors"
	"fmt"
	"strings"

	"budget-portal/internal/adapter/repository/mysql"
	"budget-portal/internal/auth"
	"budget-portal/internal/domain/user"
	"budget-portal/pkg/id"

	"github.com/spf13/cobra"
)

func newUserCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage portal accounts",
	}
	cmd.AddCommand(newUserCreateCommand(opts))
	return cmd
}

type userCreateOptions struct {
	name       string
	email      string
	password   string
	role       string
	department string
}

func (o userCreateOptions) validate() error {
	var errs []error
	if strings.TrimSpace(o.name) == "" {
		errs = append(errs, errors.New("--name is required"))
	}
	if !strings.Contains(o.email, "@") {
		errs = append(errs, errors.New("--email must be an email address"))
	}
	if len(o.password) < auth.MinPasswordLength {
		errs = append(errs, fmt.Errorf("--password must be at least %d characters", auth.MinPasswordLength))
	}
	if !user.Role(o.role).Valid() {
		errs = append(errs, fmt.Errorf("--role must be one of %s, %s, %s", user.RoleUser, user.RoleFinance, user.RoleAdmin))
	}
	return errors.Join(errs...)
}

func newUserCreateCommand(opts *rootOptions) *cobra.Command {
	o := userCreateOptions{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account that can log in to the portal",
		Example: `  portalctl user create --name "Finance Desk" --email finance@budget.gov \
    --password 'change-me-now' --role finance --department Treasury`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.validate(); err != nil {
				return err
			}
			hash, err := auth.HashPassword(o.password)
			if err != nil {
				return err
			}

			gdb, err := opts.openDB()
			if err != nil {
				return err
			}
			defer closeDB(gdb)
			if err := mysql.Migrate(gdb); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			u := &user.User{
				UserID:       id.NewID32(),
				Name:         strings.TrimSpace(o.name),
				Email:        o.email,
				PasswordHash: hash,
				Role:         user.Role(o.role),
				Department:   strings.TrimSpace(o.department),
			}
			if err := mysql.NewUserRepository(gdb).Create(cmd.Context(), u); err != nil {
				return fmt.Errorf("create user %s: %w", o.email, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s user %s (%s)\n", u.Role, u.Email, u.UserID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.name, "name", "", "display name")
	f.StringVar(&o.email, "email", "", "login email")
	f.StringVar(&o.password, "password", "", "initial password")
	f.StringVar(&o.role, "role", string(user.RoleUser), "user, finance or admin")
	f.StringVar(&o.department, "department", "", "department (optional)")
	return cmd
}
