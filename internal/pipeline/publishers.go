package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/river-flow-report/internal/domain"
)

// NamedPublisher pairs a Publisher with the sink name used in errors.
type NamedPublisher struct {
	Name      string
	Publisher Publisher
}

// MultiPublisher publishes to several sinks in order, stopping at the first failure.
type MultiPublisher []NamedPublisher

// Publish implements Publisher.
func (m MultiPublisher) Publish(ctx context.Context, report domain.Report) error {
	for _, p := range m {
		if err := p.Publisher.Publish(ctx, report); err != nil {
			return fmt.Errorf("%s sink: %w", p.Name, err)
		}
	}
	return nil
}
