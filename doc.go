/* Command stackwasm compiles and runs programs for a small stack machine.

The machine has one data stack of 64-bit integers, a return stack, and a
flat instruction list. Programs reach it two ways: written directly against
the compiler DSL in internal/dsl, or translated from a WebAssembly module by
internal/translate, which plans a memory layout on the data stack, selects
machine instructions for each wasm instruction, and emits an install routine
that loads globals, tables, and data segments before calling the export.

Usage:

	stackwasm [flags]                  run every registered program
	stackwasm [flags] NAME [INPUT...]  run one program, optionally on new input
	stackwasm [flags] -asm FILE [INPUT...]

With -asm, FILE holds instruction text, one mnemonic and optional immediate
per line, with '#' starting a comment.

Each run prints one line:

	NAME [INPUT] => [RESULTS] (N steps)

-code prints the instruction listing, -tree the compiler's debug tree as
json, and -dump the machine state after running, annotated with the layout
of translated programs. -trace routes compiler and machine tracing through
a development logger on stderr.
*/
package main
