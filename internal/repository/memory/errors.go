package memory

import "errors"

// errTransient stands in for a transient storage failure when injection is
// armed via FailNextInserts.
var errTransient = errors.New("transient storage failure (injected)")
