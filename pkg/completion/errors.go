package completion

import "errors"

var errNotObject = errors.New("arguments are not a JSON object")
