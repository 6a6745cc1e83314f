package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/justyntemme/rackgo/pkg/audio"
	"github.com/justyntemme/rackgo/pkg/framework/debug"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	Output    string
	Seconds   float64
	Input     string
	BlockSize int
}

// RenderResult is the render command's JSON payload.
type RenderResult struct {
	Output     string   `json:"output"`
	Frames     int      `json:"frames"`
	SampleRate float64  `json:"sampleRate"`
	Faults     int      `json:"faults"`
	Peak       float32  `json:"peak"`
	RMS        float32  `json:"rms"`
	Warnings   []string `json:"warnings,omitempty"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render <patch.json>",
		Short: "Render a patch to a WAV file",
		Long: `Render a patch offline, faster than real time.

The first Audio module's device inputs are written to the output file.
With --input, a WAV file is played on its device outputs.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output WAV file (default from config)")
	cmd.Flags().Float64VarP(&opts.Seconds, "seconds", "s", 0, "length in seconds (default from config)")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "WAV file fed to the Audio module")
	cmd.Flags().IntVar(&opts.BlockSize, "block", 0, "frames per engine step (default from config)")

	return cmd
}

func runRender(rootOpts *RootOptions, opts *RenderOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)
	cfg := rootOpts.Config
	log := logger(rootOpts, cmd)

	output := opts.Output
	if output == "" {
		output = cfg.Audio.Output
	}
	frames := cfg.Frames()
	if opts.Seconds > 0 {
		frames = int(opts.Seconds * cfg.Engine.SampleRate)
	}
	block := cfg.Engine.BlockSize
	if opts.BlockSize > 0 {
		block = opts.BlockSize
	}

	var input []float32
	if opts.Input != "" {
		var err error
		input, err = readInput(opts.Input, cfg.Engine.SampleRate, log)
		if err != nil {
			formatter.Error(ErrCodeAudio, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read input", err)
		}
	}

	loaded, err := loadPatch(rootOpts, path, log)
	if err != nil {
		formatter.Error(ErrCodeLoad, err.Error(), nil)
		return err
	}
	defer loaded.Engine.Close()

	formatter.VerboseLog("Rendering %d frames of %s in blocks of %d", frames, path, block)
	start := time.Now()
	r := audio.NewRenderer(loaded.Engine, audio.WithBlockSize(block), audio.WithRenderLogger(log.Named("render")))
	res, err := r.RenderFile(cmd.Context(), output, frames, input)
	if err != nil {
		code := ErrCodeGeneric
		if errors.Is(err, audio.ErrNoAudio) {
			code = ErrCodeAudio
		}
		formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "render failed", err)
	}
	formatter.VerboseLog("Rendered in %s", time.Since(start).Round(time.Millisecond))

	result := RenderResult{
		Output:     output,
		Frames:     res.Frames,
		SampleRate: cfg.Engine.SampleRate,
		Faults:     res.Faults,
		Peak:       res.Analysis.Peak,
		RMS:        res.Analysis.RMS,
		Warnings:   warnings(loaded.Report),
	}
	return formatter.Success(result, func(w io.Writer) {
		for _, warn := range result.Warnings {
			fmt.Fprintf(w, "warning: %s\n", warn)
		}
		fmt.Fprintf(w, "wrote %s: %d frames at %.0f Hz, %s\n", output, result.Frames, result.SampleRate, res.Analysis)
		if result.Faults > 0 {
			fmt.Fprintf(w, "%d module fault(s); faulted modules were bypassed\n", result.Faults)
		}
	})
}

func readInput(path string, sampleRate float64, log *debug.Logger) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	samples, format, err := audio.ReadWAV(f)
	if err != nil {
		return nil, err
	}
	if float64(format.SampleRate) != sampleRate {
		log.Warn("%s is %d Hz, engine runs at %.0f Hz; playing without resampling", path, format.SampleRate, sampleRate)
	}
	return audio.ToStereo(samples, format.NumChannels), nil
}
