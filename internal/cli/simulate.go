package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Versifine/laneshift/internal/logger"
	"github.com/Versifine/laneshift/internal/scenario"
)

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "simulate <script.yaml>",
		Short: "Replay a scripted input scenario and print the trace",
		Long: `Replay a scripted input scenario against the control core on a manual
clock and print every input publication, phase change, lane change and the
per-tick motion state.

Examples:
  laneshift simulate testdata/lane_change.yaml
  laneshift simulate --config configs/config.toml script.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scenario.Load(args[0])
			if err != nil {
				return fmt.Errorf("load script: %w", err)
			}
			tr, err := scenario.Run(s, rootOpts.Config, logger.L())
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), tr.Format())
			return err
		},
	}
}
