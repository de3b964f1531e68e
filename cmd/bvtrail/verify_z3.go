//go:build z3
// +build z3

package main

import (
	"github.com/benbjohnson/bvtrail"
	"github.com/benbjohnson/bvtrail/z3"
)

type checker interface {
	bvtrail.Checker
	Close() error
}

func newChecker() (checker, error) {
	return z3.NewChecker(), nil
}
