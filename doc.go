/*
Package main implements rforth1, a cross compiler for a Forth-like language
targeting the PIC18Fxxx family of 8-bit microcontrollers.

The compiler is a single-pass interpreter over the source text. Most of what
looks like syntax is in fact an ordinary dictionary word: a handful of
"immediate" primitives manipulate the compiler's own state (the dictionary,
the compile-time data stack, the opcode list of the word currently being
defined) while every other word either compiles a call to itself or, outside
of a definition, pushes itself onto the compile-time stack. This is the same
trick the THIRD language documented in this module's sibling history uses to
bootstrap FORTH-like behavior out of a tiny kernel: control flow, variable
definitions, even `;` itself, are all just words that happen to run at
compile time.

Given a source file, the driver:

  1. registers the built-in primitives and assembly mnemonics,
  2. loads lib/core.fs (and lib/interrupts.fs when interrupts are enabled),
  3. interprets the user's file, appending opcodes to whichever Word is
     currently being compiled,
  4. walks references from the configured main word (and any interrupt
     vectors) to find what is actually reachable,
  5. optionally restarts once from scratch with a forced-inline set computed
     from that walk,
  6. expands pseudo-opcodes into real PIC18 instructions,
  7. peephole-optimizes each word's opcode list to a fixpoint,
  8. lays out sections (reordering the code section so trailing gotos can
     fall through instead), and
  9. emits a gpasm-compatible assembly listing.

Invoking gpasm itself, and the content of the bundled Forth source files, are
both outside this package's concern: they are external collaborators.
*/
package main
