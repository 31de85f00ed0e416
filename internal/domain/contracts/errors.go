package contracts

import "errors"

// ErrNoContent indicates a submission carried neither text nor a file.
var ErrNoContent = errors.New("no contract content provided")

// ErrNotFound indicates the record does not exist or is owned by someone else.
// Lookups never distinguish the two cases.
var ErrNotFound = errors.New("contract analysis not found")

// ErrExtractionFailed indicates the uploaded file could not be retrieved from
// the staging cache or its text could not be extracted.
var ErrExtractionFailed = errors.New("contract text extraction failed")
