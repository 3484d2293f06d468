package service

import (
	"context"

	appErrors "github.com/unclebandit/hoperise-backend/internal/errors"
	"github.com/unclebandit/hoperise-backend/internal/model"
	"github.com/unclebandit/hoperise-backend/internal/repository"
	"go.uber.org/zap"
)

// Initialize creates the campaign counter at zero.
func (s *EscrowService) Initialize(ctx context.Context, authority string) (*model.SequenceCounter, error) {
	if authority == "" {
		return nil, s.fail("initialize", appErrors.ErrUnauthorized)
	}

	counter := &model.SequenceCounter{Count: 0, Authority: authority}
	err := s.Store.Update(ctx, func(l repository.Ledger) error {
		existing, err := l.Counter(ctx)
		if err != nil {
			return err
		}
		if existing != nil {
			return appErrors.ErrCounterAlreadyInitialized
		}
		return l.PutCounter(ctx, counter)
	})
	if err != nil {
		return nil, s.fail("initialize", err)
	}

	s.succeed("initialize", zap.String("authority", authority))
	return counter, nil
}

// loadCounter returns the counter or CounterNotInitialized.
func loadCounter(ctx context.Context, l repository.Ledger) (*model.SequenceCounter, error) {
	counter, err := l.Counter(ctx)
	if err != nil {
		return nil, err
	}
	if counter == nil {
		return nil, appErrors.ErrCounterNotInitialized
	}
	return counter, nil
}
