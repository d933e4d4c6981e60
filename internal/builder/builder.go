package builder

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/ev-parlay/internal/models"
)

// Builder runs selection and, when an exact ticket count is requested and
// selection comes up short, tops the portfolio up with derived tickets
type Builder struct {
	selector *Selector
	derive   DerivationOptions
	logger   logrus.FieldLogger
}

// New creates a builder around a selector
func New(selector *Selector, derive DerivationOptions, logger logrus.FieldLogger) *Builder {
	if logger == nil {
		logger = selector.logger
	}
	return &Builder{selector: selector, derive: derive, logger: logger}
}

// Build selects the portfolio from the beams and fills it to the desired
// count from single-drop derivations when needed
func (b *Builder) Build(ctx context.Context, bySize map[int][]Combo) ([]models.Ticket, error) {
	primary, err := b.selector.Select(ctx, bySize)
	if err != nil {
		return nil, err
	}

	desired := b.selector.Options().DesiredTickets
	if desired <= 0 || len(primary) >= desired {
		return primary, nil
	}

	extra := Derive(primary, b.derive)
	combined := make([]models.Ticket, 0, len(primary)+len(extra))
	combined = append(combined, primary...)
	combined = append(combined, extra...)
	if !b.derive.AllowDuplicates {
		combined = models.DedupeBySignature(combined)
	}
	models.SortByEV(combined)
	if len(combined) > desired {
		combined = combined[:desired]
	}

	b.logger.WithFields(logrus.Fields{
		"primary": len(primary),
		"derived": len(extra),
		"desired": desired,
		"final":   len(combined),
	}).Info("Portfolio topped up with derived tickets")
	return combined, nil
}
