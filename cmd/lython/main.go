// Command lython is the pipeline's one binary (spec §6): lex, parse, run
// SEMA, lower to SSA, lower to a VM program, and either execute a named
// entry point or print the lowered program/AST. Grounded on the teacher's
// cmd/sentra/main.go for the overall shape (hand-rolled os.Args dispatch,
// no flag package, a recover-wrapped Parse call, --flag filtering out of
// the positional filename) pared down to what spec §6 actually asks this
// binary to do: no repl, package manager, formatter, linter, or debugger,
// since those are features of Sentra's own language tooling with no
// counterpart named anywhere in this pipeline's spec.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/lython/lython/internal/arena"
	"github.com/lython/lython/internal/buffer"
	"github.com/lython/lython/internal/diagnostics"
	lyerrors "github.com/lython/lython/internal/errors"
	"github.com/lython/lython/internal/lexer"
	"github.com/lython/lython/internal/module"
	"github.com/lython/lython/internal/parser"
	"github.com/lython/lython/internal/printer"
	"github.com/lython/lython/internal/sema"
	"github.com/lython/lython/internal/ssa"
	"github.com/lython/lython/internal/vmexec"
	"github.com/lython/lython/internal/vmgen"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		showUsage()
		return
	}

	switch args[0] {
	case "run":
		runFile(args[1:])
	case "dump-ast":
		dumpAST(args[1:])
	case "dump-program":
		dumpProgram(args[1:])
	case "check":
		checkFile(args[1:])
	default:
		showUsage()
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println("Lython - a Python-dialect compiler/interpreter pipeline")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  lython run <file.ly> [--entry NAME]   Compile and execute an entry point (default: main)")
	fmt.Println("  lython check <file.ly>                Run lex/parse/SEMA and report errors, no execution")
	fmt.Println("  lython dump-ast <file.ly>              Pretty-print the parsed (pre-SSA) AST")
	fmt.Println("  lython dump-program <file.ly>          Print the lowered VM program")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  PYTHONPATH   colon-separated directories searched for `import`")
}

// entryFlag extracts a positional filename and an optional --entry=NAME
// (or --entry NAME) flag the way the teacher's `run` command filters
// optimization flags out of its own argument list.
func entryFlag(args []string, defaultEntry string) (filename, entry string) {
	entry = defaultEntry
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--entry" && i+1 < len(args):
			entry = args[i+1]
			i++
		case len(a) > len("--entry=") && a[:len("--entry=")] == "--entry=":
			entry = a[len("--entry="):]
		default:
			if filename == "" {
				filename = a
			}
		}
	}
	return filename, entry
}

func runFile(args []string) {
	filename, entry := entryFlag(args, "main")
	if filename == "" {
		fmt.Fprintln(os.Stderr, "run requires a file argument")
		os.Exit(1)
	}

	start := time.Now()
	a, mod, src, root, errs := compile(filename)
	dp := diagnostics.NewPrinter(os.Stderr)
	if errs.HasErrors() {
		dp.PrintErrors(errs.Errors())
		os.Exit(1)
	}

	program, lowerErrs := vmgen.Generate(a, mod)
	if lowerErrs.HasErrors() {
		dp.PrintErrors(lowerErrs.Errors())
		os.Exit(1)
	}

	vm := vmexec.New(program, root)
	result, err := vm.Run(entry, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	out := diagnostics.NewPrinter(os.Stdout)
	out.PrintSummary(diagnostics.Summary{
		File:         filename,
		Lines:        countLines(src),
		Bytes:        len(src),
		Instructions: len(program.Instructions),
		Elapsed:      time.Since(start),
	})
	fmt.Println(result.String())
}

func checkFile(args []string) {
	filename, _ := entryFlag(args, "")
	if filename == "" {
		fmt.Fprintln(os.Stderr, "check requires a file argument")
		os.Exit(1)
	}

	_, _, _, _, errs := compile(filename)
	dp := diagnostics.NewPrinter(os.Stderr)
	if errs.HasErrors() {
		dp.PrintErrors(errs.Errors())
		os.Exit(1)
	}
	fmt.Printf("%s: no errors\n", filename)
}

func dumpAST(args []string) {
	filename, _ := entryFlag(args, "")
	if filename == "" {
		fmt.Fprintln(os.Stderr, "dump-ast requires a file argument")
		os.Exit(1)
	}

	a := arena.New()
	_, mod, _, perr := parseOnly(a, filename)
	if perr != nil {
		fmt.Fprintln(os.Stderr, perr)
		os.Exit(1)
	}
	fmt.Printf("# arena %s\n", a.ID())
	fmt.Print(printer.Print(mod.Body))
}

func dumpProgram(args []string) {
	filename, _ := entryFlag(args, "")
	if filename == "" {
		fmt.Fprintln(os.Stderr, "dump-program requires a file argument")
		os.Exit(1)
	}

	a, mod, _, _, errs := compile(filename)
	dp := diagnostics.NewPrinter(os.Stderr)
	if errs.HasErrors() {
		dp.PrintErrors(errs.Errors())
		os.Exit(1)
	}

	program, lowerErrs := vmgen.Generate(a, mod)
	if lowerErrs.HasErrors() {
		dp.PrintErrors(lowerErrs.Errors())
		os.Exit(1)
	}
	fmt.Printf("# program %s\n", program.ID)
	fmt.Print(program.Dump())
}

// compile runs lex -> parse -> SEMA -> SSA over filename, returning the
// arena, the SSA-lowered module, the raw source (for the CLI summary), the
// root scope, and the accumulated error list. Stops short of SSA lowering
// if parsing or SEMA already failed, per spec §7: "downstream passes are
// skipped when their precondition ... is not met."
func compile(filename string) (*arena.Arena, *arena.ModuleNode, string, *module.Module, *lyerrors.List) {
	a := arena.New()
	src, modNode, parseErrs, rerr := parseOnly(a, filename)
	errs := &lyerrors.List{}
	if rerr != nil {
		errs.Add(lyerrors.NewImportError(rerr.Error(), filename, 0, 0))
		return a, modNode, src, nil, errs
	}
	for _, e := range parseErrs.Errors() {
		errs.Add(e)
	}

	loader := sema.NewLoader("PYTHONPATH")
	root, semaErrs := sema.AnalyzeModule(a, modNode, filename, loader)
	for _, e := range semaErrs.Errors() {
		errs.Add(e)
	}
	if errs.HasErrors() {
		return a, modNode, src, root, errs
	}

	lowerer := ssa.NewLowerer(a)
	ssaModule := lowerer.LowerModule(modNode)
	return a, ssaModule, src, root, errs
}

// parseOnly runs only lex+parse (used by dump-ast, and internally by
// compile before SEMA has a chance to run). The returned error list holds
// recorded parse errors (spec §4.3's resynchronise-and-continue behavior);
// the plain error return is reserved for a lower-level I/O failure (the
// file couldn't even be read).
func parseOnly(a *arena.Arena, filename string) (src string, mod *arena.ModuleNode, parseErrs *lyerrors.List, err error) {
	raw, rerr := os.ReadFile(filename)
	if rerr != nil {
		return "", nil, nil, rerr
	}
	buf := buffer.NewString(string(raw), filename)
	lex := lexer.New(buf)
	p := parser.New(lex, a, filename).WithSource(string(raw))
	mod = p.Parse()
	return string(raw), mod, &p.Errors, nil
}

func countLines(src string) int {
	n := 1
	for _, c := range src {
		if c == '\n' {
			n++
		}
	}
	return n
}
