package planning

import "errors"

// ErrInvalidRequest wraps every validation failure of a planning request.
var ErrInvalidRequest = errors.New("planning: invalid request")
