package catalog

import "errors"

// Sentinel errors matching the error taxonomy: referential-integrity and
// type-signature violations are ProgrammerErrors and must propagate, never
// be logged-and-swallowed.
var (
	ErrFileNotFound      = errors.New("catalog: file not found")
	ErrChunkNotFound     = errors.New("catalog: chunk not found")
	ErrOrphanChunk       = errors.New("catalog: programmer error: chunk references nonexistent file")
	ErrOrphanOccurrence  = errors.New("catalog: programmer error: entity occurrence references nonexistent chunk")
	ErrDiscoveryNotFound = errors.New("catalog: discovery not found")
	ErrNoJobAvailable    = errors.New("catalog: no pending job available")
	ErrJobNotFound       = errors.New("catalog: job not found")
)
