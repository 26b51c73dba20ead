package sdf

import "errors"

// Structural document errors. Geometry-level problems degrade to
// diagnostics instead; these two fail the enclosing model.
var (
	ErrMalformedDocument = errors.New("malformed description document")
	ErrCyclicJointGraph  = errors.New("joint graph contains a cycle")
)
