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

// StripCommand represents a command for removing trailing zero bits from an
// expression.
type StripCommand struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewStripCommand returns a new instance of StripCommand.
func NewStripCommand() *StripCommand {
	return &StripCommand{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run executes the command.
func (cmd *StripCommand) Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bvtrail-strip", flag.ContinueOnError)
	depth := fs.Uint("depth", bvtrail.MaxDepth, "analysis depth")
	n := fs.Uint("n", 0, "number of bits to remove")
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

	out, removed := c.Strip(exprs[0], *n, *depth)
	if out == nil {
		fmt.Fprintf(cmd.Stdout, "%d -\n", removed)
	} else {
		fmt.Fprintf(cmd.Stdout, "%d %s\n", removed, out)
	}

	if *verbose {
		fmt.Fprint(cmd.Stderr, spew.Sdump(c.Stats()))
	}
	return nil
}

func (cmd *StripCommand) usage() {
	fmt.Fprintln(cmd.Stderr, `
Removes up to N trailing zero bits from an expression. Prints the number of
bits removed and the remaining expression, or "-" if nothing remains.

Usage:

	bvtrail strip [arguments] EXPR

Arguments:

	-n BITS
	    Maximum number of bits to remove.

	-depth N
	    Limit the analysis to N levels of the expression. Defaults to 4.

	-v
	    Enable verbose logging.
`[1:])
}
