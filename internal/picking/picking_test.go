package picking

import "testing"

// fakeModals records visibility changes for assertions.
type fakeModals struct {
	visible map[ModalTag]bool
}

func newFakeModals() *fakeModals {
	return &fakeModals{visible: map[ModalTag]bool{
		ModalAddStation:    true,
		ModalEditStation:   true,
		ModalEventLocation: true,
	}}
}

func (f *fakeModals) SetModalVisible(tag ModalTag, visible bool) {
	f.visible[tag] = visible
}

func TestPickingRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		tag      ModalTag
		lat, lon float64
		wantLat  float64
		wantLon  float64
	}{
		{
			name: "add station modal",
			tag:  ModalAddStation,
			lat:  12.9715987, lon: 77.5945627,
			wantLat: 12.971599, wantLon: 77.594563,
		},
		{
			name: "event location modal",
			tag:  ModalEventLocation,
			lat:  -33.86882, lon: 151.20929,
			wantLat: -33.86882, wantLon: 151.20929,
		},
		{
			name: "out of range accepted",
			tag:  ModalEditStation,
			lat:  123.4567891, lon: -200.0000004,
			wantLat: 123.456789, wantLon: -200.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			modals := newFakeModals()
			c := NewCoordinator(modals)

			c.StartPicking(tt.tag)
			if modals.visible[tt.tag] {
				t.Error("modal should be hidden while picking")
			}
			if s := c.Snapshot(); !s.IsPickingLocation || s.PickingForModal != tt.tag {
				t.Errorf("expected picking session for %s, got %+v", tt.tag, s)
			}

			c.MapClicked(tt.lat, tt.lon)
			coord, tag, ok := c.ConsumePicked()
			if !ok {
				t.Fatal("expected a coordinate to consume")
			}
			if tag != tt.tag {
				t.Errorf("coordinate handed to wrong modal: got %s want %s", tag, tt.tag)
			}
			if coord.Latitude != tt.wantLat || coord.Longitude != tt.wantLon {
				t.Errorf("got (%v, %v), want (%v, %v)", coord.Latitude, coord.Longitude, tt.wantLat, tt.wantLon)
			}
			if !modals.visible[tt.tag] {
				t.Error("modal should be reopened after consumption")
			}

			s := c.Snapshot()
			if s.IsPickingLocation || s.PickingForModal != ModalNone || s.PickedLocation != nil {
				t.Errorf("coordinator not reset to idle: %+v", s)
			}
		})
	}
}

func TestCancelPicking(t *testing.T) {
	modals := newFakeModals()
	c := NewCoordinator(modals)

	c.StartPicking(ModalEditStation)
	c.CancelPicking()

	if !modals.visible[ModalEditStation] {
		t.Error("modal should be reopened after cancel")
	}
	s := c.Snapshot()
	if s.IsPickingLocation || s.PickedLocation != nil || s.PickingForModal != ModalNone {
		t.Errorf("expected idle session after cancel, got %+v", s)
	}
	if _, _, ok := c.ConsumePicked(); ok {
		t.Error("nothing should be consumable after cancel")
	}
}

func TestMapClickWhileIdleIsNoOp(t *testing.T) {
	c := NewCoordinator(newFakeModals())
	c.MapClicked(1.0, 2.0)
	if _, _, ok := c.ConsumePicked(); ok {
		t.Error("idle click must not produce a coordinate")
	}
}

func TestConsumeWithoutPickIsNoOp(t *testing.T) {
	c := NewCoordinator(newFakeModals())
	c.StartPicking(ModalAddStation)
	if _, _, ok := c.ConsumePicked(); ok {
		t.Error("consume before a map click should return nothing")
	}
	// Still picking; a click should now land.
	c.MapClicked(5, 6)
	if _, _, ok := c.ConsumePicked(); !ok {
		t.Error("expected coordinate after click")
	}
}

func TestSecondStartPickingOverwrites(t *testing.T) {
	modals := newFakeModals()
	c := NewCoordinator(modals)

	c.StartPicking(ModalAddStation)
	c.StartPicking(ModalEventLocation)

	c.MapClicked(10, 20)
	_, tag, ok := c.ConsumePicked()
	if !ok || tag != ModalEventLocation {
		t.Errorf("last caller should win; got tag=%s ok=%v", tag, ok)
	}
	if !modals.visible[ModalEventLocation] {
		t.Error("second modal should be reopened")
	}
}
