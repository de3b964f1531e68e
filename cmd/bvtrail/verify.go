//go:build !z3
// +build !z3

package main

import (
	"errors"

	"github.com/benbjohnson/bvtrail"
)

type checker interface {
	bvtrail.Checker
	Close() error
}

func newChecker() (checker, error) {
	return nil, errors.New("bvtrail built without z3 support")
}
