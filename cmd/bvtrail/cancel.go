package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/benbjohnson/bvtrail"
	"github.com/davecgh/go-spew/spew"
	"golang.org/x/tools/txtar"
)

// CancelCommand represents a command for cancelling trailing zero bits from
// one or more equalities.
type CancelCommand struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewCancelCommand returns a new instance of CancelCommand.
func NewCancelCommand() *CancelCommand {
	return &CancelCommand{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run executes the command.
func (cmd *CancelCommand) Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bvtrail-cancel", flag.ContinueOnError)
	filename := fs.String("f", "", "txtar archive of equalities")
	verbose := fs.Bool("v", false, "verbose")
	fs.Usage = cmd.usage
	if err := fs.Parse(args); err != nil {
		return err
	}
	setupLog(cmd.Stderr, *verbose)

	g := bvtrail.NewGraph()
	c := bvtrail.NewCanceller(g)
	defer c.Close()

	// Single equality passed as arguments.
	if *filename == "" {
		if fs.NArg() != 2 {
			return fmt.Errorf("LHS and RHS expressions required")
		}
		exprs, err := parseExprs(g, fs.Args())
		if err != nil {
			return err
		}
		result, err := cancelPair(c, exprs[0], exprs[1])
		if err != nil {
			return err
		}
		cmd.printResult("", result, *verbose)
		return nil
	} else if fs.NArg() != 0 {
		return fmt.Errorf("expressions cannot be combined with -f")
	}

	ar, err := txtar.ParseFile(*filename)
	if err != nil {
		return err
	}
	for _, file := range ar.Files {
		if err := ctx.Err(); err != nil {
			return err
		}

		lhs, rhs, err := parseArchivePair(g, file)
		if err != nil {
			return err
		}
		result, err := cancelPair(c, lhs, rhs)
		if err != nil {
			return fmt.Errorf("%s: %w", file.Name, err)
		}
		cmd.printResult(file.Name, result, *verbose)
	}

	if *verbose {
		fmt.Fprint(cmd.Stderr, spew.Sdump(c.Stats()))
	}
	return nil
}

func (cmd *CancelCommand) printResult(name string, result bvtrail.Result, verbose bool) {
	if name != "" {
		fmt.Fprintf(cmd.Stdout, "%s: ", name)
	}
	fmt.Fprintf(cmd.Stdout, "%s %s\n", result.Outcome, result.Expr)

	if verbose {
		fmt.Fprint(cmd.Stderr, spew.Sdump(result))
	}
}

// cancelPair cancels lhs == rhs, rejecting operands of different widths
// instead of letting the canceller panic.
func cancelPair(c *bvtrail.Canceller, lhs, rhs bvtrail.Expr) (bvtrail.Result, error) {
	if lw, rw := bvtrail.ExprWidth(lhs), bvtrail.ExprWidth(rhs); lw != rw {
		return bvtrail.Result{}, fmt.Errorf("width mismatch: %d != %d", lw, rw)
	}
	return c.Cancel(lhs, rhs), nil
}

// parseArchivePair reads an archive file holding the LHS on its first
// non-blank line and the RHS on the next.
func parseArchivePair(g *bvtrail.Graph, file txtar.File) (lhs, rhs bvtrail.Expr, err error) {
	var lines []string
	for _, line := range strings.Split(string(file.Data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) != 2 {
		return nil, nil, fmt.Errorf("%s: expected 2 expressions, found %d", file.Name, len(lines))
	}

	exprs, err := parseExprs(g, lines)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", file.Name, err)
	}
	return exprs[0], exprs[1], nil
}

func (cmd *CancelCommand) usage() {
	fmt.Fprintln(cmd.Stderr, `
Cancels the trailing zero bits shared by both sides of an equality and prints
the outcome and the replacement formula.

Usage:

	bvtrail cancel [arguments] LHS RHS
	bvtrail cancel [arguments] -f ARCHIVE

Arguments:

	-f ARCHIVE
	    Read equalities from a txtar archive. Each file holds the LHS
	    on its first line and the RHS on its second.

	-v
	    Enable verbose logging.
`[1:])
}
