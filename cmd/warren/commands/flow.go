package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyluth/warren/internal/printer"
	"github.com/dyluth/warren/internal/tally"
	"github.com/dyluth/warren/pkg/scenario"
)

var (
	flowSeed   string
	flowGroup  string
	flowOrder  []int
	flowOutput string
	flowCheck  bool
)

var flowCmd = &cobra.Command{
	Use:   "flow",
	Short: "Build and print the screen flow for a seed",
	Long: `Build the 32-screen flow a respondent with the given seed would see.

Group and block order come from the seed unless set here or in the survey
section of the configuration.

Examples:
  # Flow for a respondent
  warren flow --seed 12345

  # Force group B with the second inflation block first
  warren flow --seed 12345 --group B --order 6,0

  # Check the structural invariants of a flow
  warren flow --seed 12345 --check`,
	Args: cobra.NoArgs,
	RunE: runFlow,
}

func init() {
	flowCmd.Flags().StringVar(&flowSeed, "seed", "", "Respondent seed (required)")
	flowCmd.Flags().StringVar(&flowGroup, "group", "", "Group key: A, B or C")
	flowCmd.Flags().IntSliceVar(&flowOrder, "order", nil, "Block inflation order: 0,6 or 6,0")
	flowCmd.Flags().StringVarP(&flowOutput, "output", "o", "default", "Output format: default or json")
	flowCmd.Flags().BoolVar(&flowCheck, "check", false, "Validate the flow's structure")
	flowCmd.MarkFlagRequired("seed")

	rootCmd.AddCommand(flowCmd)
}

func runFlow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := cfg.Survey.ScenarioOptions()
	if flowGroup != "" {
		opts.GroupKey = scenario.GroupKey(flowGroup)
	}
	if flowOrder != nil {
		if len(flowOrder) != 2 {
			return printer.Error("invalid block order", "--order takes exactly two values.", "Use --order 0,6 or --order 6,0")
		}
		opts.BlockOrder = scenario.BlockOrder{flowOrder[0], flowOrder[1]}
	}

	flow, err := scenario.Build(flowSeed, opts)
	if err != nil {
		return printer.Error("failed to build flow", err.Error(),
			"Group must be A, B or C",
			"Block order must be 0,6 or 6,0")
	}

	out := cmd.OutOrStdout()
	switch flowOutput {
	case "json":
		if err := tally.FormatSingleJSON(out, flow); err != nil {
			return err
		}
	case "default":
		printer.Flow(out, flow)
	default:
		return printer.Error("invalid output format", fmt.Sprintf("Unknown format: %s", flowOutput), "Valid formats: default, json")
	}

	if flowCheck {
		if err := scenario.Validate(flow); err != nil {
			return printer.Error("flow is invalid", err.Error())
		}
		fmt.Fprintln(out, "flow is valid")
	}
	return nil
}
