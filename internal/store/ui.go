package store

import "github.com/gridswap/swapdash/internal/picking"

// SetModalVisible flips a modal's visibility flag. Implements
// picking.ModalToggler: the coordinator's only side effects land here.
func (s *Store) SetModalVisible(tag picking.ModalTag, visible bool) {
	s.mu.Lock()
	s.modalVisible[tag] = visible
	s.mu.Unlock()

	s.notify(Event{Slice: SliceUI, Action: "setModalVisible"})
}

// ModalVisible reports whether the given modal is open.
func (s *Store) ModalVisible(tag picking.ModalTag) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modalVisible[tag]
}

// PushNotification queues a transient user-facing message.
func (s *Store) PushNotification(level, message string) {
	s.mu.Lock()
	s.notifications = append(s.notifications, Notification{Level: level, Message: message})
	s.mu.Unlock()

	s.notify(Event{Slice: SliceUI, Action: "pushNotification"})
}

// TakeNotifications drains and returns the queued notifications.
// Notifications are transient: once read they are gone.
func (s *Store) TakeNotifications() []Notification {
	s.mu.Lock()
	out := s.notifications
	s.notifications = nil
	s.mu.Unlock()
	return out
}
