package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/excellere/excellere/internal/auth"
	"github.com/excellere/excellere/internal/store"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id|email>",
	Short: "Issue a learner access token",
	Long:  "Issue a learner access token. With --create, an unknown email is registered as a new learner first.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		create, _ := cmd.Flags().GetBool("create")
		name, _ := cmd.Flags().GetString("name")

		s, cfg, err := cliStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTTL)
		if err != nil {
			return fmt.Errorf("init auth: %w", err)
		}

		ctx := cmd.Context()
		u, err := findUser(ctx, s, args[0])
		switch {
		case err == nil:
		case errors.Is(err, store.ErrNotFound) && create && strings.Contains(args[0], "@"):
			u = &store.User{Email: args[0], Name: name}
			if err := s.Users().Create(ctx, u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Created learner %s (%s)\n", u.ID, u.Email)
		default:
			return err
		}

		tok, err := issuer.Issue(u.ID, auth.RoleLearner, u.Email)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Bool("create", false, "Register the learner when the email is unknown")
	tokenCmd.Flags().String("name", "", "Display name for a newly created learner")
}
