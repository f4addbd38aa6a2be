package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"rlviz/internal/logging"
	"rlviz/internal/recorder"
	"rlviz/internal/schema"
)

func newDemoCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var steps int

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Record a synthetic episode store",
		Long: "Runs a full recording session against generated data and writes the " +
			"resulting store, giving the viewer something to load without a real " +
			"training run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if steps <= 0 {
				return fmt.Errorf("steps must be positive, got %d", steps)
			}
			dest := strings.TrimSpace(outputPath)
			if dest == "" {
				if err := cfg.EnsureDirectories(); err != nil {
					return err
				}
				dest = filepath.Join(cfg.Paths.DataDir, "demo.db")
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Output: os.Stderr,
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			if err := recordDemoEpisode(cmd, logger, dest, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d-step demo episode to %s\n", steps, dest)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination store path (defaults to <data_dir>/demo.db)")
	cmd.Flags().IntVar(&steps, "steps", 16, "Number of timesteps to record")
	return cmd
}

func recordDemoEpisode(cmd *cobra.Command, logger *slog.Logger, dest string, steps int) error {
	session := recorder.NewSession(logger)
	if err := session.Init(
		[]string{"frame", "activations", "action", "_step_seed"},
		[]schema.Kind{schema.KindColor, schema.KindGrid, schema.KindText, schema.KindText},
	); err != nil {
		return err
	}
	if err := session.Start(); err != nil {
		return err
	}

	actions := []string{"left", "right", "forward", "noop"}
	for t := 0; t < steps; t++ {
		if err := session.Add("frame", demoFrame(t)); err != nil {
			return err
		}
		if err := session.Add("activations", demoActivations(t)); err != nil {
			return err
		}
		if err := session.Add("action", schema.NewText(actions[t%len(actions)])); err != nil {
			return err
		}
		if err := session.Add("_step_seed", schema.NewText(fmt.Sprintf("seed-%d", t))); err != nil {
			return err
		}
		if err := session.EndStep(); err != nil {
			return err
		}
	}
	return session.Finalize(cmd.Context(), dest)
}

// demoFrame renders a gradient that drifts with t so scrubbing through
// timesteps visibly animates.
func demoFrame(t int) *schema.ColorFrame {
	const h, w = 48, 64
	frame := schema.NewColorFrame(h, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			frame.Pix[i] = uint8((x*4 + t*8) % 256)
			frame.Pix[i+1] = uint8((y*5 + t*3) % 256)
			frame.Pix[i+2] = uint8((x + y + t) % 256)
		}
	}
	return frame
}

// demoActivations produces six 8x8 panels of phase-shifted waves.
func demoActivations(t int) *schema.PanelStack {
	const d, s = 6, 8
	ps := schema.NewPanelStack(d, s)
	for p := 0; p < d; p++ {
		phase := float64(p)*0.7 + float64(t)*0.25
		for y := 0; y < s; y++ {
			for x := 0; x < s; x++ {
				v := 127.5 + 127.5*math.Sin(phase+float64(x)*0.6)*math.Cos(float64(y)*0.4)
				ps.Set(p, y, x, v)
			}
		}
	}
	return ps
}
