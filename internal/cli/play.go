package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/justyntemme/rackgo/pkg/audio"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	Seconds   float64
	BlockSize int
}

// PlayResult is the play command's JSON payload.
type PlayResult struct {
	Elapsed  float64  `json:"elapsed"`
	Frames   int64    `json:"frames"`
	Faults   int      `json:"faults"`
	Warnings []string `json:"warnings,omitempty"`
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{}

	cmd := &cobra.Command{
		Use:   "play <patch.json>",
		Short: "Run a patch live on the audio device",
		Long: `Run a patch in real time on the default output device until
interrupted, or for --seconds.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().Float64VarP(&opts.Seconds, "seconds", "s", 0, "stop after this many seconds (0 plays until interrupted)")
	cmd.Flags().IntVar(&opts.BlockSize, "block", 0, "frames per engine step (default from config)")

	return cmd
}

func runPlay(rootOpts *RootOptions, opts *PlayOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)
	log := logger(rootOpts, cmd)

	loaded, err := loadPatch(rootOpts, path, log)
	if err != nil {
		formatter.Error(ErrCodeLoad, err.Error(), nil)
		return err
	}
	defer loaded.Engine.Close()
	for _, w := range warnings(loaded.Report) {
		formatter.VerboseLog("warning: %s", w)
	}

	block := rootOpts.Config.Engine.BlockSize
	if opts.BlockSize > 0 {
		block = opts.BlockSize
	}
	p, err := audio.NewPlayer(loaded.Engine, block, log.Named("play"))
	if err != nil {
		formatter.Error(ErrCodeAudio, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open audio", err)
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if opts.Seconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(opts.Seconds*float64(time.Second)))
		defer cancel()
	}

	start := time.Now()
	p.Start()
	err = wait(ctx, p)
	p.Stop()
	if err != nil {
		formatter.Error(ErrCodeAudio, err.Error(), nil)
		return WrapExitError(ExitFailure, "playback stopped", err)
	}

	result := PlayResult{
		Elapsed:  time.Since(start).Seconds(),
		Frames:   loaded.Engine.Frame(),
		Faults:   p.Faults(),
		Warnings: warnings(loaded.Report),
	}
	return formatter.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "played %d frames in %.1fs\n", result.Frames, result.Elapsed)
		if result.Faults > 0 {
			fmt.Fprintf(w, "%d module fault(s); faulted modules were bypassed\n", result.Faults)
		}
	})
}

// wait blocks until ctx ends or the player stops on its own.
func wait(ctx context.Context, p *audio.Player) error {
	t := time.NewTicker(100 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if err := p.Err(); err != nil {
				return err
			}
		}
	}
}
