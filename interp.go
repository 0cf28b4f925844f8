package main

import (
	"context"
	"os"

	"github.com/forth18/rforth1/internal/flushio"
	"github.com/forth18/rforth1/internal/logio"
	"github.com/forth18/rforth1/internal/panicerr"
)

// ProcessContext runs Process on a background goroutine and returns early
// with ctx's error if it expires first, the way the teacher's vm.Run
// takes a context for its -timeout flag. The compile pipeline itself
// has no internal cancellation points (§5: single-threaded, no
// suspension points beyond nested include/needs), so a blown deadline
// abandons the goroutine rather than interrupting it mid-compile.
//
// panicerr.Recover insulates the caller from a Go panic or runtime.Goexit
// escaping the compile-and-emit pipeline, turning either into a plain
// error the CLI driver reports the same way it reports any other
// internal error.
func ProcessContext(ctx context.Context, opts Options) error {
	done := make(chan error, 1)
	go func() {
		done <- panicerr.Recover("compile", func() error { return Process(opts) })
	}()
	select {
	case err := <-done:
		if panicerr.IsPanic(err) || panicerr.IsExit(err) {
			return errInternal("%v", err)
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Process is the top-level driver: register primitives, load the standard
// library, interpret the user's file, then emit. It mirrors
// Compiler.process/add_default_content/output from the source compiler,
// folding the automatic-inlining restart into the loop-over-plans shape
// below: each pass that finds new words to inline starts over with a
// fresh Compiler.
func Process(opts Options) error {
	log := opts.Log
	if log == nil {
		log = &logio.Logger{}
		log.SetOutput(os.Stderr)
	}

	forceInline := []Location(nil)
	for {
		c := NewCompiler(opts.Processor, opts.Start, opts.MainName, opts.AutoInline, opts.NoComments, opts.InFile, opts.AsmFile)
		c.Log = log
		c.warn = func(msg string) { c.Log.Printf("WARNING", "%s", msg) }
		if opts.Interrupts {
			if err := c.EnableInterrupts(); err != nil {
				return err
			}
		}
		c.InlineList = forceInline

		if err := c.addDefaultContent(); err != nil {
			return err
		}
		if err := c.Include(opts.InFile); err != nil {
			return err
		}

		plan, err := c.buildPlan()
		if err != nil {
			return err
		}
		if opts.AutoInline && len(plan.toInline) > 0 {
			log.Printf("INFO", "Restarting with automatic inlining of:")
			for _, ent := range plan.toInline {
				log.Printf("INFO", "   %s (%s)", ent.Name, ent.Loc)
			}
			forceInline = append(append([]Location(nil), forceInline...), locationsOf(plan.toInline)...)
			continue
		}

		out, err := os.Create(opts.AsmFile)
		if err != nil {
			return errFatal("cannot create %s: %v", opts.AsmFile, err)
		}
		defer out.Close()
		wf := flushio.NewWriteFlusher(out)
		emitErr := c.Emit(wf, plan)
		if ferr := wf.Flush(); emitErr == nil {
			emitErr = ferr
		}
		if opts.Dump {
			lw := &logio.Writer{Logf: log.Leveledf("DUMP")}
			compilerDumper{c: c, out: lw}.dump()
			lw.Close()
		}
		return emitErr
	}
}

func locationsOf(ents []*Entity) []Location {
	out := make([]Location, len(ents))
	for i, e := range ents {
		out[i] = e.Loc
	}
	return out
}

// addDefaultContent registers assembly mnemonics and built-in primitives,
// then loads lib/core.fs (and lib/interrupts.fs when enabled), switching
// RAM allocation to user space (0x0100) and turning on variable
// initializer synthesis, matching add_default_content.
func (c *Compiler) addDefaultContent() error {
	c.addAsmInstructions()
	if err := c.addPrimitives(); err != nil {
		return err
	}
	if c.Here >= 0x60 {
		return errInternal("built-ins overran the access bank: here=0x%x", c.Here)
	}
	c.Here = 0x100
	c.InitializeVariables = true
	return c.makeInitRuntime()
}

// makeInitRuntime builds the bare entity that the prologue emits inline
// ahead of the call to main: unlike every other word it is never closed
// with a Label/Return, since allocVariable keeps appending straight-line
// initializer stores to its body for as long as the user's file declares
// more variables.
func (c *Compiler) makeInitRuntime() error {
	init := c.Dict.New("init_runtime", KindWord, c.CurrentLocation())
	init.Flags &^= FlagFromSource
	c.Dict.Enter(init, c.CurrentObject, nil)
	c.PushObject(init)
	defer c.PopObject()
	if err := c.AddCall(c.Builtin("init_stack")); err != nil {
		return err
	}
	return c.AddCall(c.Builtin("init_rstack"))
}

// Include pushes the current input onto the stack, runs filename to
// completion, then restores it; Needs guards Include with the
// loaded-files set so a library is never processed twice.
func (c *Compiler) Include(filename string) error {
	c.LoadedFiles[filename] = true
	if src, ok := embeddedLibs[filename]; ok {
		c.Lex.PushInclude(filename, splitLines([]byte(src)))
		err := c.Run()
		c.Lex.PopInclude()
		return err
	}
	path, lines, err := ResolveSource(filename)
	if err != nil {
		return err
	}
	c.Lex.PushInclude(path, lines)
	err = c.Run()
	c.Lex.PopInclude()
	return err
}

func (c *Compiler) Needs(filename string) error {
	if c.LoadedFiles[filename] {
		return nil
	}
	return c.Include(filename)
}

// Interpret evaluates a single line of source as though it were a tiny
// included file, for callers (the tests, for one) that hold source text
// rather than a file name.
func (c *Compiler) Interpret(line string) error {
	c.Lex.PushInclude("<interpreter>", []string{line + "\n"})
	err := c.Run()
	c.Lex.PopInclude()
	return err
}

// Run is the interpreter loop of §4.3: for each token, dispatch an
// immediate word now, compile a call or push a reference to an ordinary
// one, or else try to parse a number.
func (c *Compiler) Run() error {
	for {
		word, err := c.Lex.ParseWord()
		if err != nil {
			if IsEOF(err) {
				return nil
			}
			return err
		}

		if ent, ok := c.Find(word); ok {
			if ent.Flags.Has(FlagImmediate) {
				if err := c.RunEntity(ent); err != nil {
					if _, ok := err.(CompilerError); ok {
						return err
					}
					return errInternal("internal error in %s.run(): %v", ent.Name, err)
				}
				continue
			}
			if c.State == StateCompile {
				if err := c.AddCall(ent); err != nil {
					return err
				}
			} else {
				c.CtPush(itemEntity(ent.ID))
			}
			continue
		}

		n, ok := ParseNumber(word)
		if !ok {
			return errFatalAt(c.CurrentLocation(), "unknown word %s", word)
		}
		if c.State == StateCompile {
			c.AddInstruction(OpPush, n)
		} else {
			c.CtPush(itemValue(n))
		}
	}
}
