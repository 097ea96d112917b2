package manifest

import "errors"

var ErrInvalidManifest = errors.New("invalid manifest")
