package text

import "errors"

var errInvalidUTF8 = errors.New("text resource is not valid UTF-8")
