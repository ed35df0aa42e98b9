// README: Profile store backed by riders.json and drivers.json.
package profile

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"

	"rideassist/internal/jsonfile"
	"rideassist/internal/types"
)

type FileStore struct {
	riders  *jsonfile.Collection[Rider]
	drivers *jsonfile.Collection[Driver]
}

func OpenFileStore(dir string) (*FileStore, error) {
	riders, err := jsonfile.Open(filepath.Join(dir, "riders.json"), func(r Rider) string { return string(r.ID) })
	if err != nil {
		return nil, err
	}
	drivers, err := jsonfile.Open(filepath.Join(dir, "drivers.json"), func(d Driver) string { return string(d.ID) })
	if err != nil {
		return nil, err
	}
	return &FileStore{riders: riders, drivers: drivers}, nil
}

func (s *FileStore) CreateRider(_ context.Context, r *Rider) error {
	return mapFileErr(s.riders.Insert(*r, nil))
}

func (s *FileStore) CreateDriver(_ context.Context, d *Driver) error {
	return mapFileErr(s.drivers.Insert(*d, nil))
}

func (s *FileStore) GetRider(_ context.Context, id types.ID) (*Rider, error) {
	r, ok := s.riders.Get(string(id))
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *FileStore) GetDriver(_ context.Context, id types.ID) (*Driver, error) {
	d, ok := s.drivers.Get(string(id))
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (s *FileStore) ListDrivers(context.Context) ([]Driver, error) {
	return s.drivers.List(nil), nil
}

// RecordBooking checks the driver first so a missing driver leaves the rider untouched.
func (s *FileStore) RecordBooking(_ context.Context, riderID, driverID types.ID) error {
	if _, ok := s.drivers.Get(string(driverID)); !ok {
		return ErrNotFound
	}
	if _, err := s.riders.Update(string(riderID), func(r *Rider) error {
		r.TotalRidesBooked++
		r.recomputeRate()
		return nil
	}); err != nil {
		return mapFileErr(err)
	}
	_, err := s.drivers.Update(string(driverID), func(d *Driver) error {
		d.TotalRidesAccepted++
		d.recomputeRate()
		return nil
	})
	return mapFileErr(err)
}

func (s *FileStore) IncrementRiderCancellations(_ context.Context, id types.ID) error {
	_, err := s.riders.Update(string(id), func(r *Rider) error {
		r.PriorCancellations++
		r.recomputeRate()
		return nil
	})
	return mapFileErr(err)
}

func (s *FileStore) IncrementDriverCancellations(_ context.Context, id types.ID) error {
	_, err := s.drivers.Update(string(id), func(d *Driver) error {
		d.PriorCancellations++
		d.recomputeRate()
		return nil
	})
	return mapFileErr(err)
}

func mapFileErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jsonfile.ErrExists):
		return ErrAlreadyExists
	case errors.Is(err, jsonfile.ErrMissing):
		return ErrNotFound
	}
	return err
}
