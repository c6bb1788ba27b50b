package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	dom "Directory/internal/domain"
	"Directory/internal/dto"
	"Directory/internal/service"

	"github.com/spf13/cobra"
)

func createCmd(open serviceOpener) *cobra.Command {
	var (
		in       dom.Account
		joinedOn string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if joinedOn != "" {
				t, err := time.Parse("2006-01-02", joinedOn)
				if err != nil {
					return &dom.ValidationError{Field: "joined-on", Reason: "use YYYY-MM-DD"}
				}
				in.JoinedOn = t
			}
			return withService(cmd, open, func(ctx context.Context, svc *service.AccountService) error {
				a, err := svc.Create(ctx, in)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), toResponse(a))
			})
		},
	}

	cmd.Flags().StringVar(&in.Username, "username", "", "Unique username (required)")
	cmd.Flags().StringVar(&in.Email, "email", "", "Unique email (required)")
	cmd.Flags().StringVar(&in.DisplayName, "display-name", "", "Display name")
	cmd.Flags().StringVar(&in.Location, "location", "", "Location")
	cmd.Flags().StringVar(&joinedOn, "joined-on", "", "Join date YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func getCmd(open serviceOpener) *cobra.Command {
	var username, email string

	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Get an account by id, --username or --email",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selectors := 0
			if len(args) == 1 {
				selectors++
			}
			if username != "" {
				selectors++
			}
			if email != "" {
				selectors++
			}
			if selectors != 1 {
				return errors.New("give exactly one of: id argument, --username, --email")
			}

			return withService(cmd, open, func(ctx context.Context, svc *service.AccountService) error {
				var (
					a   dom.Account
					err error
				)
				switch {
				case username != "":
					a, err = svc.GetByUsername(ctx, username)
				case email != "":
					a, err = svc.GetByEmail(ctx, email)
				default:
					id, perr := strconv.ParseInt(args[0], 10, 64)
					if perr != nil || id <= 0 {
						return &dom.ValidationError{Field: dom.FieldID, Reason: "invalid id"}
					}
					var found bool
					a, found, err = svc.GetByID(ctx, id)
					if err == nil && !found {
						err = &dom.NotFound{Entity: dom.EntityAccount, Field: dom.FieldID, Value: args[0]}
					}
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), toResponse(a))
			})
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Look up by username")
	cmd.Flags().StringVar(&email, "email", "", "Look up by email")
	return cmd
}

func listCmd(open serviceOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, open, func(ctx context.Context, svc *service.AccountService) error {
				list, err := svc.List(ctx)
				if err != nil {
					return err
				}
				out := dto.ListAccountsResponse{Items: make([]dto.AccountResponse, len(list))}
				for i := range list {
					out.Items[i] = toResponse(list[i])
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.ErrOrStderr(), "(no accounts)")
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
}

func toResponse(a dom.Account) dto.AccountResponse {
	return dto.AccountResponse{
		ID:          a.ID,
		Username:    a.Username,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		Location:    a.Location,
		JoinedOn:    dto.NewDate(a.JoinedOn),
	}
}
