package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"

	"github.com/benbjohnson/bvtrail"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err == flag.ErrHelp {
		os.Exit(1)
	} else if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	var cmd string
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "", "-h", "--help", "help":
		usage()
		return flag.ErrHelp
	case "analyze":
		return NewAnalyzeCommand().Run(ctx, args)
	case "strip":
		return NewStripCommand().Run(ctx, args)
	case "cancel":
		return NewCancelCommand().Run(ctx, args)
	case "simplify":
		return NewSimplifyCommand().Run(ctx, args)
	default:
		return fmt.Errorf(`bvtrail %s: unknown command`, cmd)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `
Bvtrail simplifies bit-vector equalities by cancelling trailing zero bits.

Usage:

	bvtrail <command> [arguments]

The commands are:

	analyze     print the trailing-zero range of an expression
	strip       remove trailing zero bits from an expression
	cancel      cancel trailing zero bits from an equality
	simplify    cancel trailing zero bits from every equality in a formula
	help        this screen

Expressions use the s-expression syntax, e.g. "(mul (const 4 8) (var x 8))".
`[1:])
}

// setupLog directs trace logging to w if verbose is set and discards it otherwise.
func setupLog(w io.Writer, verbose bool) {
	log.SetFlags(0)
	if verbose {
		log.SetOutput(w)
	} else {
		log.SetOutput(ioutil.Discard)
	}
}

// parseExprs parses each argument as an expression in g.
func parseExprs(g *bvtrail.Graph, args []string) ([]bvtrail.Expr, error) {
	exprs := make([]bvtrail.Expr, len(args))
	for i, arg := range args {
		expr, err := bvtrail.ParseExpr(g, arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		exprs[i] = expr
	}
	return exprs, nil
}
