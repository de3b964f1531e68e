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

// SimplifyCommand represents a command for rewriting every equality in a
// formula.
type SimplifyCommand struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewSimplifyCommand returns a new instance of SimplifyCommand.
func NewSimplifyCommand() *SimplifyCommand {
	return &SimplifyCommand{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run executes the command.
func (cmd *SimplifyCommand) Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bvtrail-simplify", flag.ContinueOnError)
	maxSteps := fs.Int("max-steps", bvtrail.DefaultMaxSteps, "cancellations per equality")
	verify := fs.Bool("verify", false, "prove each rewrite with z3")
	verbose := fs.Bool("v", false, "verbose")
	fs.Usage = cmd.usage
	if err := fs.Parse(args); err != nil {
		return err
	} else if fs.NArg() != 1 {
		return fmt.Errorf("exactly one expression required")
	}
	setupLog(cmd.Stderr, *verbose)

	g := bvtrail.NewGraph()
	exprs, err := parseExprs(g, fs.Args())
	if err != nil {
		return err
	}

	c := bvtrail.NewCanceller(g)
	defer c.Close()

	r := bvtrail.NewRewriter(c)
	r.MaxSteps = *maxSteps
	if *verify {
		checker, err := newChecker()
		if err != nil {
			return err
		}
		defer checker.Close()
		r.Checker = checker
	}

	out, err := r.Rewrite(exprs[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.Stdout, out)

	if *verbose {
		fmt.Fprint(cmd.Stderr, spew.Sdump(c.Stats()))
	}
	return nil
}

func (cmd *SimplifyCommand) usage() {
	fmt.Fprintln(cmd.Stderr, `
Rewrites every equality in a formula by cancelling trailing zero bits until
no further progress is made.

Usage:

	bvtrail simplify [arguments] EXPR

Arguments:

	-max-steps N
	    Maximum cancellations applied to one equality. Defaults to 16.

	-verify
	    Prove each rewrite equivalent with z3. Requires a build with
	    the z3 tag.

	-v
	    Enable verbose logging.
`[1:])
}
