package main

// Exit codes
const (
	ExitSuccess        = 0 // Success
	ExitError          = 1 // General error (invalid arguments, runtime failure)
	ExitMissingSource  = 2 // An input file does not exist
	ExitSchemaMismatch = 3 // An export lacks a required column
	ExitConfigError    = 4 // Invalid litmerge.yml, credentials or log destination
	ExitVerifyFailed   = 5 // verify --strict found a failing check
	ExitRemoteError    = 6 // The library cannot be reached or rejects the credentials
)
