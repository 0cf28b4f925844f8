package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/forth18/rforth1/internal/logio"
	"github.com/urfave/cli"
)

// Options collects every CLI-derived setting Process needs; main's only
// job is turning cli.Context into this struct and turning the resulting
// error into an exit code, the way the teacher's main() turns flag values
// into VMOptions and turns vm.Run's error into log.ExitCode().
type Options struct {
	InFile      string
	AsmFile     string
	Processor   string
	Start       int
	MainName    string
	AutoInline  bool
	NoComments  bool
	Interrupts  bool
	CompileOnly bool
	Dump        bool
	Timeout     time.Duration

	// Log receives "ERROR:"/"WARNING:" diagnostics raised while
	// compiling; Process falls back to a stderr-backed Logger of its
	// own when this is nil (as in tests that build Options directly).
	Log *logio.Logger
}

func main() {
	log := &logio.Logger{}
	log.SetOutput(os.Stderr)
	defer func() { os.Exit(log.ExitCode()) }()
	defer log.Close()

	app := cli.NewApp()
	app.Name = "rforth1"
	app.Usage = "cross compile a Forth-like source file to PIC18 assembly"
	app.ArgsUsage = "FILE"
	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "a", Usage: "auto-inline (two-pass)"},
		cli.BoolFlag{Name: "c", Usage: "compile only, skip assembler invocation"},
		cli.BoolFlag{Name: "i", Usage: "enable interrupts"},
		cli.StringFlag{Name: "m", Value: "main", Usage: "main word name"},
		cli.BoolFlag{Name: "N", Usage: "omit comment headers in output"},
		cli.StringFlag{Name: "o", Usage: "override output path"},
		cli.StringFlag{Name: "p", Value: "18f248", Usage: "processor model"},
		cli.StringFlag{Name: "s", Value: "0x2000", Usage: "start address"},
		cli.BoolFlag{Name: "dump", Usage: "print a compiler dump after compilation"},
		cli.DurationFlag{Name: "timeout", Usage: "abort compilation after this long"},
	}
	app.Action = func(ctx *cli.Context) error { return run(ctx, log) }

	if err := app.Run(os.Args); err != nil {
		log.Errorf("%v", err)
	}
}

func run(ctx *cli.Context, log *logio.Logger) error {
	if ctx.NArg() != 1 {
		log.Errorf("exactly one source FILE argument is required")
		return nil
	}
	infile := ctx.Args().Get(0)

	start, err := parseAddress(ctx.String("s"))
	if err != nil {
		log.Errorf("%v", err)
		return nil
	}

	asmfile := ctx.String("o")
	if asmfile == "" {
		asmfile = defaultAsmName(infile)
	}

	opts := Options{
		InFile:      infile,
		AsmFile:     asmfile,
		Processor:   ctx.String("p"),
		Start:       start,
		MainName:    ctx.String("m"),
		AutoInline:  ctx.Bool("a"),
		NoComments:  ctx.Bool("N"),
		Interrupts:  ctx.Bool("i"),
		CompileOnly: ctx.Bool("c"),
		Dump:        ctx.Bool("dump"),
		Timeout:     ctx.Duration("timeout"),
		Log:         log,
	}

	cctx := context.Background()
	if opts.Timeout != 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(cctx, opts.Timeout)
		defer cancel()
	}

	if err := ProcessContext(cctx, opts); err != nil {
		log.Errorf("%v", err)
		return nil
	}

	if opts.CompileOnly {
		return nil
	}
	if err := runAssembler(opts); err != nil {
		log.Errorf("%v", err)
	}
	return nil
}

// defaultAsmName turns foo.rf into foo.asm, mirroring rforth.py's
// output-path default of swapping the source extension.
func defaultAsmName(infile string) string {
	if i := strings.LastIndexByte(infile, '.'); i >= 0 {
		return infile[:i] + ".asm"
	}
	return infile + ".asm"
}

// parseAddress accepts the same literal forms as the source language's
// number parser: `$hex`, `0x`/`0X` hex, `0b` binary, or plain decimal.
func parseAddress(s string) (int, error) {
	switch {
	case strings.HasPrefix(s, "$"):
		n, err := strconv.ParseInt(s[1:], 16, 64)
		return int(n), err
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		n, err := strconv.ParseInt(s[2:], 16, 64)
		return int(n), err
	case strings.HasPrefix(s, "0b"), strings.HasPrefix(s, "0B"):
		n, err := strconv.ParseInt(s[2:], 2, 64)
		return int(n), err
	default:
		n, err := strconv.ParseInt(s, 10, 64)
		return int(n), err
	}
}

// runAssembler shells out to gpasm the way the original compiler's driver
// does, treating a non-zero exit as a fatal compile failure (§6 exit
// codes: "non-zero assembler exit").
func runAssembler(opts Options) error {
	cmd := exec.Command("gpasm", "-p", opts.Processor, opts.AsmFile)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("gpasm failed: %w", err)
	}
	return nil
}
