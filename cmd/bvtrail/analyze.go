package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/benbjohnson/bvtrail"
	"github.com/davecgh/go-spew/spew"
)

// AnalyzeCommand represents a command for printing the trailing-zero range
// of an expression.
type AnalyzeCommand struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewAnalyzeCommand returns a new instance of AnalyzeCommand.
func NewAnalyzeCommand() *AnalyzeCommand {
	return &AnalyzeCommand{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run executes the command.
func (cmd *AnalyzeCommand) Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bvtrail-analyze", flag.ContinueOnError)
	depth := fs.Uint("depth", bvtrail.MaxDepth, "analysis depth")
	verbose := fs.Bool("v", false, "verbose")
	fs.Usage = cmd.usage
	if err := fs.Parse(args); err != nil {
		return err
	} else if fs.NArg() != 1 {
		return fmt.Errorf("exactly one expression required")
	} else if *depth > bvtrail.MaxDepth {
		return fmt.Errorf("depth cannot exceed %d", bvtrail.MaxDepth)
	}
	setupLog(cmd.Stderr, *verbose)

	g := bvtrail.NewGraph()
	exprs, err := parseExprs(g, fs.Args())
	if err != nil {
		return err
	}

	c := bvtrail.NewCanceller(g)
	defer c.Close()

	r := c.Analyze(exprs[0], *depth)
	fmt.Fprintf(cmd.Stdout, "%d %d\n", r.Min, r.Max)

	if *verbose {
		fmt.Fprint(cmd.Stderr, spew.Sdump(c.Stats()))
	}
	return nil
}

func (cmd *AnalyzeCommand) usage() {
	fmt.Fprintln(cmd.Stderr, `
Prints the minimum and maximum number of trailing zero bits an expression
can have.

Usage:

	bvtrail analyze [arguments] EXPR

Arguments:

	-depth N
	    Limit the analysis to N levels of the expression. Defaults to 4.

	-v
	    Enable verbose logging.
`[1:])
}
