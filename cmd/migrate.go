package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, cfg, err := cliStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()
		fmt.Printf("Schema up to date (%s).\n", cfg.Database.Driver)
		return nil
	},
}
