package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dyluth/warren/internal/printer"
	"github.com/dyluth/warren/internal/scaffold"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [DIR]",
	Short: "Create a starter warren.yml",
	Long: `Create warren.yml with every option at its default, plus a data/ directory
for the collector's CSV output.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing warren.yml")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return printer.Error("failed to create directory", err.Error())
		}
	}

	if err := scaffold.Initialize(dir, initForce); err != nil {
		return printer.Error("initialization failed", err.Error())
	}
	scaffold.PrintSuccess(cmd.OutOrStdout())
	return nil
}
