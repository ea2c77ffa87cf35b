package mandel

import "errors"

// Construction errors returned by New.
var (
	// ErrInvalidTileEdge is returned for a non-positive tile edge.
	ErrInvalidTileEdge = errors.New("mandel: invalid tile edge")

	// ErrInvalidResolution is returned when the base resolution is not
	// positive or the decay factor is outside (0, 1).
	ErrInvalidResolution = errors.New("mandel: invalid resolution curve")

	// ErrInvalidWorkers is returned for a negative worker count.
	ErrInvalidWorkers = errors.New("mandel: invalid worker count")

	// ErrInvalidQueueCapacity is returned for a negative queue capacity.
	ErrInvalidQueueCapacity = errors.New("mandel: invalid queue capacity")
)
