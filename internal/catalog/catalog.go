// Package catalog is the train directory: a primary index from train id
// to its full schedule, and — populated only once a train is released —
// a station index and a route index used by the ticket planner.
package catalog

import (
	"github.com/pkg/errors"

	"github.com/railbook/engine/internal/model"
	"github.com/railbook/engine/internal/storage"
)

// ErrTrainExists is returned by Add when the train id is already taken.
var ErrTrainExists = errors.New("train already exists")

// ErrTrainNotFound is returned when a train id has no catalog entry.
var ErrTrainNotFound = errors.New("train not found")

// ErrAlreadyReleased is returned by Release and Delete on a released train.
var ErrAlreadyReleased = errors.New("train already released")

// RouteKey is the route index's key: the hashed (from, to) station pair.
// Keeping both hashes in a fixed-width struct (rather than hashing the
// concatenated string) avoids any ambiguity between e.g. "AB"+"C" and
// "A"+"BC".
type RouteKey struct {
	FromHash uint64
	ToHash   uint64
}

func (k RouteKey) Less(other RouteKey) bool {
	if k.FromHash != other.FromHash {
		return k.FromHash < other.FromHash
	}
	return k.ToHash < other.ToHash
}

func routeKeyCodec() storage.Codec[RouteKey] {
	return storage.Codec[RouteKey]{
		Size: 16,
		Encode: func(v RouteKey, buf []byte) {
			storage.PutInt64(buf[0:8], int64(v.FromHash))
			storage.PutInt64(buf[8:16], int64(v.ToHash))
		},
		Decode: func(buf []byte) RouteKey {
			return RouteKey{
				FromHash: uint64(storage.GetInt64(buf[0:8])),
				ToHash:   uint64(storage.GetInt64(buf[8:16])),
			}
		},
	}
}

// Store is the train catalog.
type Store struct {
	primary *storage.BPTree[uint64, model.Train]
	byStation *storage.BPTree[uint64, string]
	byRoute   *storage.BPTree[RouteKey, string]
}

// Open opens (or creates) the catalog's three backing B+ trees under dir.
func Open(dir string, opts storage.Options) (*Store, error) {
	u64Less := func(a, b uint64) bool { return a < b }
	stringLess := func(a, b string) bool { return a < b }

	primary, err := storage.Open(dir, "train", model.Uint64Codec(), model.TrainCodec(), u64Less, func(a, b model.Train) bool {
		return a.TrainID < b.TrainID
	}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "open train primary index")
	}
	byStation, err := storage.Open(dir, "station", model.Uint64Codec(), model.StringCodec(model.TrainIDWidth), u64Less, stringLess, opts)
	if err != nil {
		return nil, errors.Wrap(err, "open station index")
	}
	byRoute, err := storage.Open(dir, "route", routeKeyCodec(), model.StringCodec(model.TrainIDWidth), RouteKey.Less, stringLess, opts)
	if err != nil {
		return nil, errors.Wrap(err, "open route index")
	}

	return &Store{primary: primary, byStation: byStation, byRoute: byRoute}, nil
}

func (s *Store) lookupPrimary(trainID string) (model.Train, bool, error) {
	candidates, err := s.primary.Find(model.HashString(trainID))
	if err != nil {
		return model.Train{}, false, err
	}
	for _, tr := range candidates {
		if tr.TrainID == trainID {
			return tr, true, nil
		}
	}
	return model.Train{}, false, nil
}

// Add inserts a brand new (unreleased) train.
func (s *Store) Add(train model.Train) error {
	if _, ok, err := s.lookupPrimary(train.TrainID); err != nil {
		return err
	} else if ok {
		return errors.Wrapf(ErrTrainExists, "train %s", train.TrainID)
	}
	return s.primary.Insert(model.HashString(train.TrainID), train)
}

// Query returns the train identified by trainID.
func (s *Store) Query(trainID string) (model.Train, error) {
	tr, ok, err := s.lookupPrimary(trainID)
	if err != nil {
		return model.Train{}, err
	}
	if !ok {
		return model.Train{}, errors.Wrapf(ErrTrainNotFound, "train %s", trainID)
	}
	return tr, nil
}

// Delete removes an unreleased train from the catalog.
func (s *Store) Delete(trainID string) error {
	tr, ok, err := s.lookupPrimary(trainID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(ErrTrainNotFound, "train %s", trainID)
	}
	if tr.IsReleased {
		return errors.Wrapf(ErrAlreadyReleased, "train %s", trainID)
	}
	return s.primary.Remove(model.HashString(trainID), tr)
}

// Update replaces train's primary-index record by removing the old record
// and inserting the new one (used by Release to record the train's seat
// map base offset).
func (s *Store) Update(train model.Train) error {
	old, ok, err := s.lookupPrimary(train.TrainID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(ErrTrainNotFound, "train %s", train.TrainID)
	}
	if err := s.primary.Remove(model.HashString(train.TrainID), old); err != nil {
		return err
	}
	return s.primary.Insert(model.HashString(train.TrainID), train)
}

// Release marks train as released with its seat map base offset, and
// populates the station and route indexes from its stop sequence —
// before this call the train is invisible to query_ticket/query_transfer.
func (s *Store) Release(trainID string, seatMapPos int64) (model.Train, error) {
	tr, ok, err := s.lookupPrimary(trainID)
	if err != nil {
		return model.Train{}, err
	}
	if !ok {
		return model.Train{}, errors.Wrapf(ErrTrainNotFound, "train %s", trainID)
	}
	if tr.IsReleased {
		return model.Train{}, errors.Wrapf(ErrAlreadyReleased, "train %s", trainID)
	}

	tr.IsReleased = true
	tr.SeatMapPos = seatMapPos
	if err := s.Update(tr); err != nil {
		return model.Train{}, err
	}

	for i := 0; i < tr.StationNum; i++ {
		if err := s.byStation.Insert(model.HashString(tr.Stations[i]), tr.TrainID); err != nil {
			return model.Train{}, errors.Wrap(err, "index station")
		}
	}
	for i := 0; i < tr.StationNum; i++ {
		for j := i + 1; j < tr.StationNum; j++ {
			key := RouteKey{FromHash: model.HashString(tr.Stations[i]), ToHash: model.HashString(tr.Stations[j])}
			if err := s.byRoute.Insert(key, tr.TrainID); err != nil {
				return model.Train{}, errors.Wrap(err, "index route")
			}
		}
	}
	return tr, nil
}

// QueryByStation returns every train that calls at station.
func (s *Store) QueryByStation(station string) ([]model.Train, error) {
	ids, err := s.byStation.Find(model.HashString(station))
	if err != nil {
		return nil, err
	}
	return s.resolveTrains(ids)
}

// QueryRoute returns every released train that runs from -> to (in that
// order along its stop sequence).
func (s *Store) QueryRoute(from, to string) ([]model.Train, error) {
	key := RouteKey{FromHash: model.HashString(from), ToHash: model.HashString(to)}
	ids, err := s.byRoute.Find(key)
	if err != nil {
		return nil, err
	}
	return s.resolveTrains(ids)
}

func (s *Store) resolveTrains(ids []string) ([]model.Train, error) {
	trains := make([]model.Train, 0, len(ids))
	for _, id := range ids {
		tr, ok, err := s.lookupPrimary(id)
		if err != nil {
			return nil, err
		}
		if ok {
			trains = append(trains, tr)
		}
	}
	return trains, nil
}

// Flush writes back every dirty cached page across all three indexes.
func (s *Store) Flush() error {
	if err := s.primary.Flush(); err != nil {
		return err
	}
	if err := s.byStation.Flush(); err != nil {
		return err
	}
	return s.byRoute.Flush()
}

// Close flushes and closes all three indexes.
func (s *Store) Close() error {
	if err := s.primary.Close(); err != nil {
		return err
	}
	if err := s.byStation.Close(); err != nil {
		return err
	}
	return s.byRoute.Close()
}

// Remove deletes all three indexes' backing files, used by `clean`.
func (s *Store) Remove() error {
	if err := s.primary.Remove(); err != nil {
		return err
	}
	if err := s.byStation.Remove(); err != nil {
		return err
	}
	return s.byRoute.Remove()
}
