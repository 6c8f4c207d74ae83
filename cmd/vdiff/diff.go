package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vdiff/internal/errors"
	"github.com/vango-dev/vdiff/pkg/host"
	"github.com/vango-dev/vdiff/pkg/protocol"
	"github.com/vango-dev/vdiff/pkg/treefile"
	"github.com/vango-dev/vdiff/pkg/vdom"
)

// emptyTree stands for "no tree" in place of a file name.
const emptyTree = "-"

func diffCmd() *cobra.Command {
	var (
		format string
		markup bool
	)

	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Print the deltas between two tree files",
		Long: `Load two tree files (JSON or YAML) and print the deltas that turn
the first into the second, in the order a host receives them.

Use - for an absent tree: "vdiff diff - new.yaml" prints the mount,
"vdiff diff old.yaml -" the unmount.

Examples:
  vdiff diff before.yaml after.yaml
  vdiff diff before.json after.json --format=json
  vdiff diff - page.yaml --markup`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.OutOrStdout(), args[0], args[1], format, markup)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVarP(&markup, "markup", "m", false, "Also print the host tree after applying the deltas")

	return cmd
}

func runDiff(w io.Writer, oldPath, newPath, format string, markup bool) error {
	if format != "text" && format != "json" {
		return errors.New("E501").WithDetail(fmt.Sprintf("Unknown format %q", format))
	}
	if oldPath == emptyTree && newPath == emptyTree {
		return errors.New("E500").
			WithDetail("Both trees are empty").
			WithSuggestion("Pass at least one tree file")
	}

	a := vdom.NewArena()
	prev, err := loadTree(a, oldPath)
	if err != nil {
		return err
	}
	next, err := loadTree(a, newPath)
	if err != nil {
		return err
	}

	// The mirror starts out holding prev, so the printed markup is the
	// result of applying the deltas.
	m := host.NewMirror()
	if prev != vdom.None {
		a.Diff(m, vdom.None, vdom.None, prev)
	}
	var rec host.Recorder
	a.Diff(host.Tee{&rec, m}, vdom.None, prev, next)

	switch format {
	case "json":
		if err := writeJSON(w, rec.Deltas()); err != nil {
			return err
		}
	default:
		for _, call := range rec.Calls() {
			fmt.Fprintln(w, call)
		}
	}

	if markup {
		if err := m.Err(); err != nil {
			return errors.New("E402").Wrap(err)
		}
		fmt.Fprintln(w)
		fmt.Fprint(w, m.Markup())
	}
	return nil
}

func loadTree(a *vdom.Arena, path string) (vdom.ID, error) {
	if path == emptyTree {
		return vdom.None, nil
	}
	return treefile.LoadInto(a, path)
}

// jsonDelta is the JSON form of a protocol.Delta.
type jsonDelta struct {
	Op              string `json:"op"`
	Parent          uint64 `json:"parent,omitempty"`
	Ref             uint64 `json:"ref,omitempty"`
	Old             uint64 `json:"old,omitempty"`
	ID              uint64 `json:"id"`
	Tag             string `json:"tag,omitempty"`
	Key             string `json:"key,omitempty"`
	Value           string `json:"value,omitempty"`
	Dispose         bool   `json:"dispose,omitempty"`
	PreventDefault  bool   `json:"preventDefault,omitempty"`
	StopPropagation bool   `json:"stopPropagation,omitempty"`
	Handler         uint64 `json:"handler,omitempty"`
}

func writeJSON(w io.Writer, deltas []protocol.Delta) error {
	out := make([]jsonDelta, len(deltas))
	for i, d := range deltas {
		out[i] = jsonDelta{
			Op:              d.Op.String(),
			Parent:          d.Parent,
			Ref:             d.Ref,
			Old:             d.Old,
			ID:              d.ID,
			Tag:             d.Tag,
			Key:             d.Key,
			Value:           d.Value,
			Dispose:         d.Dispose,
			PreventDefault:  d.PreventDefault,
			StopPropagation: d.StopPropagation,
			Handler:         d.Handler,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
