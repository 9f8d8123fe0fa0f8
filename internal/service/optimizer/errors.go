package optimizer

import "errors"

var (
	// ErrMalformedResponse means the model answer could not be decoded or
	// lacked a required field.
	ErrMalformedResponse = errors.New("optimizer: malformed model response")
	// ErrNoMatchedStores means none of the returned store ids were candidates.
	ErrNoMatchedStores = errors.New("optimizer: no returned store matched the candidate pool")
	// ErrNoCandidates means there is no store history to rank.
	ErrNoCandidates = errors.New("optimizer: no candidate stores")
)
