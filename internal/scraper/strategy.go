package scraper

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rushi1222/job-applier-amazon/internal/browser"
)

var ErrStrategiesExhausted = errors.New("all strategies failed")

// Strategy is one named way of performing a page interaction.
type Strategy struct {
	Name string
	Run  func(ctx context.Context, page browser.Page) error
}

// RunStrategies tries each strategy in order and returns the name of the
// first one that succeeds.
func RunStrategies(ctx context.Context, page browser.Page, strategies []Strategy, logger *zap.Logger) (string, error) {
	var errs []error
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		err := s.Run(ctx, page)
		if err == nil {
			return s.Name, nil
		}
		logger.Debug("strategy failed", zap.String("strategy", s.Name), zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}
	return "", fmt.Errorf("%w: %w", ErrStrategiesExhausted, errors.Join(errs...))
}
