package cmd

const (
	// Success is the same as EXIT_SUCCESS in C
	Success = iota

	// BadArgs passed to cli; not our fault.
	BadArgs

	// BadFile means the overlap file could not be opened or is damaged.
	BadFile

	// UnknownError is an uncategorized error, probably our fault.
	UnknownError
)
