package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/justyntemme/rackgo/pkg/engine"
	"github.com/justyntemme/rackgo/pkg/framework/debug"
	"github.com/justyntemme/rackgo/pkg/framework/plugin"
	"github.com/justyntemme/rackgo/pkg/framework/state"
	"github.com/justyntemme/rackgo/pkg/modules/core"
	"github.com/justyntemme/rackgo/pkg/modules/fundamental"
	"github.com/justyntemme/rackgo/pkg/modules/script"
)

// Registry returns the built-in plugins.
func Registry() *plugin.Registry {
	return plugin.NewRegistry(core.Plugin(), fundamental.Plugin(), script.Plugin())
}

// logger builds the configured logger writing to the command's stderr.
func logger(opts *RootOptions, cmd *cobra.Command) *debug.Logger {
	l := opts.Config.Logger()
	l.SetOutput(cmd.ErrOrStderr())
	if opts.Verbose {
		l.SetLevel(debug.LogLevelDebug)
	}
	return l
}

// LoadResult is a patch loaded into a fresh engine.
type LoadResult struct {
	Engine *engine.Engine
	Report *state.Report
}

// loadPatch reads the patch at path into a new engine. The caller closes
// the engine. Load warnings are returned in the report, not as an error.
func loadPatch(opts *RootOptions, path string, log *debug.Logger) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read patch", err)
	}
	e := engine.New(opts.Config.EngineConfig(),
		engine.WithLogger(log),
		engine.WithRegistry(Registry()),
	)
	report, err := e.FromJSON(data)
	if err != nil {
		e.Close()
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to load %s", path), err)
	}
	return &LoadResult{Engine: e, Report: report}, nil
}

func warnings(r *state.Report) []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.Warnings))
	for i, w := range r.Warnings {
		out[i] = w.String()
	}
	return out
}
