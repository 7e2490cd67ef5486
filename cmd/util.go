package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/seqwerk/ovio/ovfile"
)

// ExitCode is an error that maps the error interface to a specific error
// message and a unix exit code
type ExitCode struct {
	Code    int
	Message string
}

func (err ExitCode) Error() string {
	return err.Message
}

type checkFunc func(ctx *cli.Context) int

func withArgCheck(checker checkFunc, handler cli.ActionFunc) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		if code := checker(ctx); code != Success {
			return ExitCode{code, ""}
		}

		return handler(ctx)
	}
}

func needAtLeast(min int) checkFunc {
	return func(ctx *cli.Context) int {
		if ctx.NArg() < min {
			if min == 1 {
				log.Warningf("Need at least %d argument.", min)
			} else {
				log.Warningf("Need at least %d arguments.", min)
			}

			if err := cli.ShowCommandHelp(ctx, ctx.Command.Name); err != nil {
				log.Warningf("Failed to display --help: %v", err)
			}

			return BadArgs
		}

		return Success
	}
}

// layoutFromCtx reads the --layout flag of the current command.
func layoutFromCtx(ctx *cli.Context) (ovfile.Layout, error) {
	layout, err := ovfile.LayoutFromWords(ctx.Int("layout"))
	if err != nil {
		return 0, ExitCode{
			BadArgs,
			fmt.Sprintf("bad --layout '%d': want 3, 5 or 8", ctx.Int("layout")),
		}
	}

	return layout, nil
}

// blocksFromCtx reads a blocks strategy flag of the current command.
func blocksFromCtx(ctx *cli.Context, flag string) (ovfile.Blocks, error) {
	blocks, err := ovfile.BlocksFromString(ctx.String(flag))
	if err != nil {
		return 0, ExitCode{
			BadArgs,
			fmt.Sprintf("bad --%s '%s': want default, raw, snappy or lz4", flag, ctx.String(flag)),
		}
	}

	return blocks, nil
}

// openReader opens the overlap file named by the first argument with the
// dump/stats flag set.
func openReader(ctx *cli.Context) (*ovfile.File, error) {
	layout, err := layoutFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	blocks, err := blocksFromCtx(ctx, "blocks")
	if err != nil {
		return nil, err
	}

	mode := ovfile.ReadNormal
	if ctx.Bool("full") {
		mode = ovfile.ReadFull
	}

	path := ctx.Args().First()
	f, err := ovfile.OpenOptions(path, mode, layout, ovfile.Options{Blocks: blocks})
	if err != nil {
		return nil, ExitCode{
			BadFile,
			fmt.Sprintf("failed to open '%s': %v", path, err),
		}
	}

	return f, nil
}
