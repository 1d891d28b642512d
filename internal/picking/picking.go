// Package picking coordinates the map location-picking flow: a modal form
// yields input focus to the map, exactly one coordinate is captured, and the
// same modal is reopened with the coordinate injected. The map and the modal
// never reference each other; both talk only to the coordinator.
package picking

import (
	"math"
	"sync"
)

// ModalTag identifies which modal requested a location pick.
type ModalTag string

const (
	ModalNone          ModalTag = "none"
	ModalAddStation    ModalTag = "addStation"
	ModalEditStation   ModalTag = "editStation"
	ModalEventLocation ModalTag = "eventLocation"
)

// Coordinate is a picked map position. Values are rounded to 6 decimal
// places at capture time; out-of-range lat/lon is accepted and left to the
// consuming form.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// State is the coordinator's position in the picking flow.
type State int

const (
	// Idle: no picking session in progress. Map clicks are no-ops.
	Idle State = iota
	// Picking: a modal has yielded to the map and awaits one coordinate.
	Picking
	// Picked: a coordinate was captured and awaits consumption by the
	// modal that requested it.
	Picked
)

func (s State) String() string {
	switch s {
	case Picking:
		return "picking"
	case Picked:
		return "picked"
	default:
		return "idle"
	}
}

// ModalToggler flips modal visibility flags. Implemented by the store's UI
// slice; the coordinator itself knows nothing about form field semantics.
type ModalToggler interface {
	SetModalVisible(tag ModalTag, visible bool)
}

// Coordinator is the picking state machine.
type Coordinator struct {
	mu     sync.Mutex
	state  State
	for_   ModalTag
	picked *Coordinate
	modals ModalToggler
}

// NewCoordinator creates an idle coordinator operating on the given modals.
func NewCoordinator(modals ModalToggler) *Coordinator {
	return &Coordinator{
		state:  Idle,
		for_:   ModalNone,
		modals: modals,
	}
}

// Session is a read-only snapshot of the coordinator state.
type Session struct {
	IsPickingLocation bool        `json:"is_picking_location"`
	PickingForModal   ModalTag    `json:"picking_for_modal"`
	PickedLocation    *Coordinate `json:"picked_location,omitempty"`
}

// Snapshot returns the current picking session.
func (c *Coordinator) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Session{
		IsPickingLocation: c.state == Picking,
		PickingForModal:   c.for_,
	}
	if c.picked != nil {
		loc := *c.picked
		s.PickedLocation = &loc
	}
	return s
}

// StartPicking closes the requesting modal so it does not block the map and
// begins capturing. A second StartPicking while already picking silently
// overwrites the prior session: only one modal can be focused at a time, so
// the last caller wins.
func (c *Coordinator) StartPicking(tag ModalTag) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tag == ModalNone {
		return
	}
	c.state = Picking
	c.for_ = tag
	c.picked = nil
	c.modals.SetModalVisible(tag, false)
}

// MapClicked records a coordinate while a picking session is active. This is
// the only way a coordinate enters the system; clicks while idle are no-ops.
func (c *Coordinator) MapClicked(lat, lon float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Picking {
		return
	}
	c.state = Picked
	c.picked = &Coordinate{
		Latitude:  round6(lat),
		Longitude: round6(lon),
	}
}

// ConsumePicked hands the captured coordinate back to the modal that
// requested it, reopening that modal, and resets the coordinator to idle.
// Returns false when there is nothing to consume.
func (c *Coordinator) ConsumePicked() (Coordinate, ModalTag, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Picked || c.picked == nil {
		return Coordinate{}, ModalNone, false
	}
	coord := *c.picked
	tag := c.for_
	c.modals.SetModalVisible(tag, true)
	c.reset()
	return coord, tag, true
}

// CancelPicking abandons an active session, reopening the requesting modal
// without a coordinate.
func (c *Coordinator) CancelPicking() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Picking {
		return
	}
	c.modals.SetModalVisible(c.for_, true)
	c.reset()
}

// reset must be called with the lock held.
func (c *Coordinator) reset() {
	c.state = Idle
	c.for_ = ModalNone
	c.picked = nil
}

// round6 rounds to 6 decimal places, roughly 0.1m of precision.
func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
