package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/excellere/excellere/internal/review"
)

var validatorCmd = &cobra.Command{
	Use:   "validator",
	Short: "Manage validator accounts",
}

var validatorAddCmd = &cobra.Command{
	Use:   "add <email> <name>",
	Short: "Create a validator account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			password = os.Getenv("EXCELLERE_VALIDATOR_PASSWORD")
		}
		if password == "" {
			var err error
			if password, err = readPassword(cmd); err != nil {
				return err
			}
		}

		s, _, err := cliStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		svc := review.NewService(review.Deps{Store: s})
		v, err := svc.AddValidator(cmd.Context(), args[0], args[1], password)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("✓")+" validator "+v.Email+" ("+v.ID+")")
		return nil
	},
}

// readPassword prompts on stderr. A terminal is read without echo; piped
// input is read as a single line.
func readPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func init() {
	validatorAddCmd.Flags().String("password", "", "Password (or EXCELLERE_VALIDATOR_PASSWORD, otherwise read from stdin)")
	validatorCmd.AddCommand(validatorAddCmd)
}
