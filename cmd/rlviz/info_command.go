package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"rlviz/internal/schema"
	"rlviz/internal/store"
)

const (
	ansiBlue  = "\x1b[34m"
	ansiReset = "\x1b[0m"
)

type attributeInfo struct {
	Name  string `json:"name"`
	Dtype string `json:"dtype"`
	Shape string `json:"shape"`
}

type storeInfo struct {
	Path         string          `json:"path"`
	NumTimesteps int             `json:"num_timesteps"`
	Attributes   []attributeInfo `json:"attributes"`
}

func newInfoCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:         "info <store>",
		Short:       "Describe an episode store",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := describeStore(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, info)
			}

			out := cmd.OutOrStdout()
			title := fmt.Sprintf("Episode store: %s (%d timesteps)", info.Path, info.NumTimesteps)
			if shouldColorize(out) {
				title = ansiBlue + title + ansiReset
			}
			fmt.Fprintln(out, title)

			rows := make([][]string, 0, len(info.Attributes))
			for _, attr := range info.Attributes {
				rows = append(rows, []string{attr.Name, attr.Dtype, attr.Shape})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Attribute", "Dtype", "Shape"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func describeStore(ctx context.Context, path string) (*storeInfo, error) {
	handle, err := store.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	defer handle.Close()

	info := &storeInfo{
		Path:         handle.Path(),
		NumTimesteps: handle.NumTimesteps(),
	}
	for _, attr := range handle.Attributes() {
		shape := "-"
		if handle.NumTimesteps() > 0 {
			value, err := handle.Read(ctx, attr.Name, 0)
			if err != nil {
				return nil, err
			}
			shape = shapeLabel(value)
		}
		info.Attributes = append(info.Attributes, attributeInfo{
			Name:  attr.Name,
			Dtype: attr.Kind.String(),
			Shape: shape,
		})
	}
	return info, nil
}

func shapeLabel(value schema.Value) string {
	switch v := value.(type) {
	case *schema.ColorFrame:
		return fmt.Sprintf("%dx%dx3", v.H, v.W)
	case *schema.PanelStack:
		return fmt.Sprintf("%dx%dx%d", v.D, v.S, v.S)
	case *schema.Text:
		if v.List {
			return "list[" + strconv.Itoa(len(v.Values)) + "]"
		}
		return "scalar"
	default:
		return "-"
	}
}
