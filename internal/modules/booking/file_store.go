// README: Booking store backed by bookings.json.
package booking

import (
	"context"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"rideassist/internal/jsonfile"
	"rideassist/internal/types"
)

type FileStore struct {
	bookings *jsonfile.Collection[Booking]
}

func OpenFileStore(dir string) (*FileStore, error) {
	c, err := jsonfile.Open(filepath.Join(dir, "bookings.json"), func(b Booking) string { return string(b.ID) })
	if err != nil {
		return nil, err
	}
	return &FileStore{bookings: c}, nil
}

func (s *FileStore) Create(_ context.Context, b *Booking) error {
	err := s.bookings.Insert(*b, nil)
	if errors.Is(err, jsonfile.ErrExists) {
		return errors.Wrapf(ErrConflict, "booking %s already exists", b.ID)
	}
	return err
}

func (s *FileStore) Get(_ context.Context, id types.ID) (*Booking, error) {
	b, ok := s.bookings.Get(string(id))
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (s *FileStore) ListByRider(_ context.Context, riderID types.ID, status Status) ([]Booking, error) {
	return s.bookings.List(func(b Booking) bool {
		return b.RiderID == riderID && (status == "" || b.Status == status)
	}), nil
}

func (s *FileStore) UpdateStatus(_ context.Context, id types.ID, from, to Status, at time.Time) (bool, error) {
	_, err := s.bookings.Update(string(id), func(b *Booking) error {
		if b.Status != from {
			return errStale
		}
		b.Status = to
		b.ClosedAt = &at
		return nil
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errStale), errors.Is(err, jsonfile.ErrMissing):
		return false, nil
	}
	return false, err
}

var errStale = errors.New("booking status changed")
