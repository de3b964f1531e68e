//go:build !z3
// +build !z3

package main

import (
	"context"
	"testing"
)

func TestSimplifyCommand_ErrVerifyUnsupported(t *testing.T) {
	cmd, _, _ := newSimplifyCommand()
	if err := cmd.Run(context.Background(), []string{"-verify", "(const 1 1)"}); err == nil || err.Error() != "bvtrail built without z3 support" {
		t.Fatalf("unexpected error: %v", err)
	}
}
