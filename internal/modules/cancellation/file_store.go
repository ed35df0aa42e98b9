// README: Cancellation store backed by cancellations.json.
package cancellation

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"

	"rideassist/internal/jsonfile"
	"rideassist/internal/types"
)

type FileStore struct {
	records *jsonfile.Collection[Record]
}

func OpenFileStore(dir string) (*FileStore, error) {
	c, err := jsonfile.Open(filepath.Join(dir, "cancellations.json"), func(r Record) string { return string(r.ID) })
	if err != nil {
		return nil, err
	}
	return &FileStore{records: c}, nil
}

// Append enforces one record per booking under the collection lock.
func (s *FileStore) Append(_ context.Context, r *Record) error {
	err := s.records.Insert(*r, func(existing Record) error {
		if existing.BookingID == r.BookingID {
			return ErrDuplicate
		}
		return nil
	})
	if errors.Is(err, jsonfile.ErrExists) {
		return ErrDuplicate
	}
	return err
}

func (s *FileStore) Remove(_ context.Context, id types.ID) error {
	err := s.records.Delete(string(id))
	if errors.Is(err, jsonfile.ErrMissing) {
		return ErrNotFound
	}
	return err
}

func (s *FileStore) Get(_ context.Context, id types.ID) (*Record, error) {
	r, ok := s.records.Get(string(id))
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *FileStore) GetByBooking(_ context.Context, bookingID types.ID) (*Record, error) {
	found := s.records.List(func(r Record) bool { return r.BookingID == bookingID })
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return &found[0], nil
}

func (s *FileStore) ListByRider(_ context.Context, riderID types.ID) ([]Record, error) {
	return s.records.List(func(r Record) bool { return r.RiderID == riderID }), nil
}

func (s *FileStore) ListByDriver(_ context.Context, driverID types.ID) ([]Record, error) {
	return s.records.List(func(r Record) bool { return r.DriverID == driverID }), nil
}

func (s *FileStore) UpdateDecision(_ context.Context, id types.ID, d types.Decision) (*Record, error) {
	r, err := s.records.Update(string(id), func(r *Record) error {
		r.Decision = d
		return nil
	})
	if errors.Is(err, jsonfile.ErrMissing) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
