// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitCoder is an error that carries its own process exit status.
type ExitCoder interface {
	error
	ExitCode() int
}

// Fatal writes "error: err" to stderr and exits with the error's exit
// code, or 1 if it carries none. This is the standard binary
// entrypoint error handler. Use it in main() for errors from run()
// where the structured logger may not be initialized.
func Fatal(err error) {
	os.Exit(Report(os.Stderr, err))
}

// Report writes "error: err" to w and returns the exit status Fatal
// would use.
func Report(w io.Writer, err error) int {
	fmt.Fprintf(w, "error: %v\n", err)
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}
