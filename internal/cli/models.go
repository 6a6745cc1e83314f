package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// ModelInfo describes one registered model.
type ModelInfo struct {
	Plugin      string   `json:"plugin"`
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// NewModelsCommand creates the models command.
func NewModelsCommand(rootOpts *RootOptions) *cobra.Command {
	var pluginSlug string
	cmd := &cobra.Command{
		Use:           "models",
		Short:         "List the built-in module models",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(rootOpts, pluginSlug, cmd)
		},
	}
	cmd.Flags().StringVarP(&pluginSlug, "plugin", "p", "", "only list models of this plugin")
	return cmd
}

func runModels(rootOpts *RootOptions, pluginSlug string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)
	reg := Registry()

	plugins := reg.Plugins()
	if pluginSlug != "" {
		p, err := reg.Plugin(pluginSlug)
		if err != nil {
			formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "unknown plugin", err)
		}
		plugins = append(plugins[:0], p)
	}

	models := []ModelInfo{}
	for _, p := range plugins {
		for _, mdl := range p.Models() {
			models = append(models, ModelInfo{
				Plugin:      p.Slug,
				Slug:        mdl.Slug,
				Name:        mdl.Name,
				Version:     p.Version,
				Description: mdl.Description,
				Tags:        mdl.Tags,
			})
		}
	}
	return formatter.Success(models, func(w io.Writer) {
		for _, m := range models {
			fmt.Fprintf(w, "%s/%s\t%s", m.Plugin, m.Slug, m.Description)
			if len(m.Tags) > 0 {
				fmt.Fprintf(w, " [%s]", strings.Join(m.Tags, ", "))
			}
			fmt.Fprintln(w)
		}
	})
}
