package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Versifine/laneshift/internal/motion"
)

type LanesOptions struct {
	*RootOptions
	JSON bool
}

type lanesReport struct {
	Lanes       []float64 `json:"lanes"`
	BoundsMin   float64   `json:"bounds_min"`
	BoundsMax   float64   `json:"bounds_max"`
	InitialLane int       `json:"initial_lane"`
	MaxSpeed    float64   `json:"max_horizontal_speed"`
	Blend       float64   `json:"velocity_blend"`
}

// NewLanesCommand creates the lanes command.
func NewLanesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LanesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lanes",
		Short: "Print lane positions and bounds for the configured controller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLanes(opts, cmd)
		},
	}
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print JSON")
	return cmd
}

func runLanes(opts *LanesOptions, cmd *cobra.Command) error {
	ctrl := motion.NewController(opts.Config.MotionOptions())
	b := ctrl.Bounds()
	speed, blend := ctrl.Tuning()
	rep := lanesReport{
		Lanes:       ctrl.LanePositions(),
		BoundsMin:   b.Min,
		BoundsMax:   b.Max,
		InitialLane: ctrl.Snapshot().TargetLane,
		MaxSpeed:    speed,
		Blend:       blend,
	}

	out := cmd.OutOrStdout()
	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	for i, x := range rep.Lanes {
		marker := ""
		if i == rep.InitialLane {
			marker = "  (initial)"
		}
		fmt.Fprintf(out, "lane %d: %+.3f%s\n", i, x, marker)
	}
	fmt.Fprintf(out, "bounds: [%+.3f, %+.3f]\n", rep.BoundsMin, rep.BoundsMax)
	fmt.Fprintf(out, "max speed: %g  blend: %g\n", rep.MaxSpeed, rep.Blend)
	return nil
}
