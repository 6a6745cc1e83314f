package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/justyntemme/rackgo/pkg/framework/module"
)

// ModuleInfo describes one loaded module.
type ModuleInfo struct {
	ID       int64  `json:"id"`
	Plugin   string `json:"plugin"`
	Model    string `json:"model"`
	Params   int    `json:"params"`
	Inputs   int    `json:"inputs"`
	Outputs  int    `json:"outputs"`
	Bypassed bool   `json:"bypassed,omitempty"`
}

// CableInfo describes one loaded cable.
type CableInfo struct {
	ID    int64  `json:"id"`
	From  string `json:"from"`
	To    string `json:"to"`
	Color string `json:"color,omitempty"`
}

// InspectResult is the inspect command's JSON payload.
type InspectResult struct {
	Modules  []ModuleInfo `json:"modules"`
	Cables   []CableInfo  `json:"cables"`
	Warnings []string     `json:"warnings,omitempty"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <patch.json>",
		Short: "Load a patch and list its modules, cables and warnings",
		Long: `Load a patch without running it and list what was loaded.

Exits with code 1 when the patch loaded with warnings.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runInspect(rootOpts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)
	log := logger(rootOpts, cmd)

	loaded, err := loadPatch(rootOpts, path, log)
	if err != nil {
		formatter.Error(ErrCodeLoad, err.Error(), nil)
		return err
	}
	defer loaded.Engine.Close()
	e := loaded.Engine

	result := InspectResult{
		Modules:  []ModuleInfo{},
		Cables:   []CableInfo{},
		Warnings: warnings(loaded.Report),
	}
	names := make(map[int64]string)
	for _, m := range e.Modules() {
		info := ModuleInfo{
			ID:       m.ID,
			Params:   len(m.Params),
			Inputs:   len(m.Inputs),
			Outputs:  len(m.Outputs),
			Bypassed: m.Bypassed(),
		}
		if m.Model != nil {
			info.Plugin = m.Model.Plugin
			info.Model = m.Model.Slug
		}
		result.Modules = append(result.Modules, info)
		names[m.ID] = fmt.Sprintf("%s#%d", info.Model, m.ID)
	}
	for _, c := range e.Cables() {
		result.Cables = append(result.Cables, CableInfo{
			ID:    c.ID,
			From:  portName(e.GetModule(c.OutputModuleID), names[c.OutputModuleID], c.OutputID, true),
			To:    portName(e.GetModule(c.InputModuleID), names[c.InputModuleID], c.InputID, false),
			Color: c.Color,
		})
	}

	if err := formatter.Success(result, func(w io.Writer) { printInspect(w, &result) }); err != nil {
		return err
	}
	if len(result.Warnings) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d load warning(s)", len(result.Warnings)))
	}
	return nil
}

func printInspect(w io.Writer, r *InspectResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPLUGIN\tMODEL\tPARAMS\tIN\tOUT\tBYPASS")
	for _, m := range r.Modules {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%t\n", m.ID, m.Plugin, m.Model, m.Params, m.Inputs, m.Outputs, m.Bypassed)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d cable(s)\n", len(r.Cables))
	for _, c := range r.Cables {
		fmt.Fprintf(w, "  %d: %s -> %s\n", c.ID, c.From, c.To)
	}
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
}

func portName(m *module.Module, owner string, id int, output bool) string {
	name := fmt.Sprint(id)
	switch {
	case m == nil:
	case output && id < len(m.Outputs):
		name = m.Outputs[id].Name
	case !output && id < len(m.Inputs):
		name = m.Inputs[id].Name
	}
	return fmt.Sprintf("%s %s", owner, name)
}
