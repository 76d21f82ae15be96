package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"quiz-session-engine/internal/timer"
)

// NewCategoriesCmd lists the categories of the main bank.
func NewCategoriesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List quiz categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			service, cleanup, err := buildService(cmd.Context(), cfg, timer.RealClock{})
			if err != nil {
				return err
			}
			defer cleanup()

			categories, err := service.Categories(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range categories {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	}
}
