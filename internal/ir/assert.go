package ir

import cilerr "cilopt/internal/errors"

// assertInvariant panics with an InvariantViolation when cond is false.
// Per §7, InvariantViolation is a contract violation (a programmer error,
// not a data-dependent one) and is expected to unwind rather than be
// recovered by ordinary control flow.
func assertInvariant(cond bool, format string, args ...any) {
	if !cond {
		panic(cilerr.Invalid(format, args...))
	}
}
