package store

import (
	"errors"
	"fmt"

	"github.com/gridswap/swapdash/internal/types"
)

// ErrBaselineProtected is returned for edit/delete attempts against a
// station sourced from the project's baseline configuration.
var ErrBaselineProtected = errors.New("baseline stations are read-only")

// ErrStationNotFound is returned when a station action targets an unknown
// station ID.
var ErrStationNotFound = errors.New("station not found")

// SyncBaselineStations replaces the baseline-sourced stations with the given
// set, marking each read-only. User-created stations are preserved. Called
// once on first project load.
func (s *Store) SyncBaselineStations(stations []types.Station) {
	s.mu.Lock()
	kept := s.stations[:0]
	for _, st := range s.stations {
		if !st.IsBaseline {
			kept = append(kept, st)
		}
	}
	s.stations = kept
	for _, st := range stations {
		st.IsBaseline = true
		s.stations = append(s.stations, st)
	}
	s.mu.Unlock()

	s.notify(Event{Slice: SliceStations, Action: "syncBaseline"})
}

// AddStation appends a user-created station.
func (s *Store) AddStation(station types.Station) {
	station.IsBaseline = false
	s.mu.Lock()
	s.stations = append(s.stations, station)
	s.mu.Unlock()

	s.notify(Event{Slice: SliceStations, Action: "add"})
}

// UpdateStation replaces a user-created station's attributes. Baseline
// stations are rejected before any other effect.
func (s *Store) UpdateStation(stationID string, updated types.Station) error {
	s.mu.Lock()
	idx := -1
	for i, st := range s.stations {
		if st.StationID == stationID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrStationNotFound, stationID)
	}
	if s.stations[idx].IsBaseline {
		s.mu.Unlock()
		return fmt.Errorf("cannot edit station %s: %w", stationID, ErrBaselineProtected)
	}
	updated.StationID = stationID
	updated.IsBaseline = false
	s.stations[idx] = updated
	s.mu.Unlock()

	s.notify(Event{Slice: SliceStations, Action: "update"})
	return nil
}

// RemoveStation deletes a user-created station. Baseline stations are
// rejected and the list is left unmodified.
func (s *Store) RemoveStation(stationID string) error {
	s.mu.Lock()
	idx := -1
	for i, st := range s.stations {
		if st.StationID == stationID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrStationNotFound, stationID)
	}
	if s.stations[idx].IsBaseline {
		s.mu.Unlock()
		return fmt.Errorf("cannot remove station %s: %w", stationID, ErrBaselineProtected)
	}
	s.stations = append(s.stations[:idx], s.stations[idx+1:]...)
	s.mu.Unlock()

	s.notify(Event{Slice: SliceStations, Action: "remove"})
	return nil
}

// Stations returns a copy of the station list.
func (s *Store) Stations() []types.Station {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Station, len(s.stations))
	copy(out, s.stations)
	return out
}

// Station returns the station with the given ID, if present.
func (s *Store) Station(stationID string) (types.Station, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.stations {
		if st.StationID == stationID {
			return st, true
		}
	}
	return types.Station{}, false
}
