// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"io"
	"os"
)

// Print writes "name version" to stdout, for --version handling in
// main packages.
func Print(name string) {
	Fprint(os.Stdout, name)
}

// Fprint writes "name version" to w.
func Fprint(w io.Writer, name string) {
	fmt.Fprintf(w, "%s %s\n", name, Info())
}
