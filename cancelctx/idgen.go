package cancelctx

import "github.com/google/uuid"

// IDGenerator produces opaque, collision-resistant identifiers for new
// context trees. It is injectable through Options so tests can substitute
// a deterministic generator.
type IDGenerator func() string

type Options struct {
	IDGenerator IDGenerator
}

func DefaultOptions() *Options {
	return &Options{
		IDGenerator: uuid.NewString,
	}
}
