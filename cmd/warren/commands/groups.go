package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyluth/warren/internal/printer"
	"github.com/dyluth/warren/pkg/scenario"
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Show the fixed partition of pool scenarios into groups",
	Long: `Show the three fixed groups of pool scenarios and the final scenario paired
with each group. The partition is derived from a constant seed, so it is the
same for every respondent.`,
	Args: cobra.NoArgs,
	RunE: runGroups,
}

func init() {
	rootCmd.AddCommand(groupsCmd)
}

func runGroups(cmd *cobra.Command, args []string) error {
	groups, err := scenario.FixedGroups()
	if err != nil {
		return fmt.Errorf("failed to build groups: %w", err)
	}
	printer.Groups(cmd.OutOrStdout(), groups)
	return nil
}
