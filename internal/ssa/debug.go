package ssa

import (
	"fmt"
	"os"
)

// TraceLivenessEnabled gates debug tracing of LivenessScan: a package-level
// flag flipped on during debugging, printing straight to stderr rather
// than going through a logging framework.
var TraceLivenessEnabled = false

func tracef(format string, args ...interface{}) {
	if TraceLivenessEnabled {
		fmt.Fprintf(os.Stderr, "ssa: "+format+"\n", args...)
	}
}
