package geodesic

import "errors"

var (
	// ErrBadConfig reports an invalid dimension or tuning parameter. These
	// are rejected at configuration time, never mid-algorithm.
	ErrBadConfig = errors.New("geodesic: invalid block configuration")

	// ErrNotAssociated reports use of geometry-dependent data before
	// AssociateMesh.
	ErrNotAssociated = errors.New("geodesic: block has no mesh associated")

	// ErrNotStenciled reports a stencil query on a face outside the
	// stenciled region.
	ErrNotStenciled = errors.New("geodesic: face is not in the stenciled region")

	// ErrStencilNotBuilt reports a query on a stencil that was skipped
	// because one of its zones falls outside the block's index space.
	ErrStencilNotBuilt = errors.New("geodesic: stencil was not built")

	// ErrDegenerateStencil reports a reconstruction solve on a stencil
	// whose normal-equations matrix is singular or near singular.
	ErrDegenerateStencil = errors.New("geodesic: degenerate stencil geometry")
)
