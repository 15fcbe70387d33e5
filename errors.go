package impulse

import "github.com/pkg/errors"

var (
	// ErrBodyLimit is returned when the world already holds its maximum number of bodies
	ErrBodyLimit = errors.New("body limit reached")
	// ErrDuplicateBody is returned when a body ID is already in use
	ErrDuplicateBody = errors.New("duplicate body id")
	// ErrNilShape is returned when a body is added without a collision shape
	ErrNilShape = errors.New("nil shape")
	// ErrUnknownBody is returned for an ID that no body carries
	ErrUnknownBody = errors.New("unknown body")
	// ErrConfigFormat is returned for a config file which is neither TOML nor YAML
	ErrConfigFormat = errors.New("unsupported config format")
	// ErrInvalidConfig reports the config fields reset to their default value
	ErrInvalidConfig = errors.New("invalid config")
)
