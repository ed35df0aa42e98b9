// README: Query quota service used by the assistant before answering questions.
package aiusage

import (
	"context"
	"time"
)

type Service struct {
	store     *Store
	allowance int
	now       func() time.Time
}

// NewService uses DefaultTokens when allowance is not positive.
func NewService(store *Store, allowance int) *Service {
	if allowance <= 0 {
		allowance = DefaultTokens
	}
	return &Service{store: store, allowance: allowance, now: time.Now}
}

// UseToken deducts one query from the rider's monthly allowance.
// A rider without a row is initialised and charged immediately.
func (s *Service) UseToken(ctx context.Context, uid string) error {
	month := s.now().Format(monthLayout)
	err := s.store.UseToken(ctx, uid, month, s.allowance)
	if err != ErrInsufficientTokens {
		return err
	}

	// Row may be missing: try to create it, then retry the deduction once.
	if initErr := s.store.EnsureUser(ctx, uid, month, s.allowance); initErr != nil {
		return initErr
	}
	return s.store.UseToken(ctx, uid, month, s.allowance)
}

// Remaining is the balance as the next UseToken would see it.
func (s *Service) Remaining(ctx context.Context, uid string) (int, error) {
	month := s.now().Format(monthLayout)
	tokens, last, ok, err := s.store.Remaining(ctx, uid)
	if err != nil {
		return 0, err
	}
	if !ok || last < month {
		return s.allowance, nil
	}
	return tokens, nil
}
