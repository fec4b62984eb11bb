// Package radio defines the front-end boundary the estimator core consumes
// samples through, and provides a simulator and a few concrete front-ends.
package radio

import (
	"context"

	"github.com/venkat-chanest/ofdm-chanest/internal/training"
)

// Frontend is the minimal interface required of a radio front-end: a sink
// for transmitted samples and a source of received samples. The core
// prescribes neither sample rate nor carrier frequency — those are a
// concrete Frontend's concern.
type Frontend interface {
	Send(ctx context.Context, samples training.Sequence) error
	Recv(ctx context.Context, n int) (training.Sequence, error)
	Close() error
}
