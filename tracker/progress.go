package tracker

import (
	"math"
	"time"

	"greenbowl/milestones"
)

// Snapshot is an immutable view of the session for rendering and for
// re-broadcast to browser SSE clients.
type Snapshot struct {
	OrderID             string    `json:"orderId"`
	Completed           []string  `json:"completedMilestones"`
	Current             string    `json:"currentMilestone"`
	OrderStatus         string    `json:"orderStatus,omitempty"`
	Driver              *Driver   `json:"driver,omitempty"`
	EstimatedTime       string    `json:"estimatedTime,omitempty"`
	FeedError           string    `json:"feedError,omitempty"`
	LastUpdated         time.Time `json:"lastUpdated"`
	Terminal            bool      `json:"terminal"`
	Special             string    `json:"special,omitempty"`
	RestaurantPercent   int       `json:"restaurantPercent"`
	DeliveryPercent     int       `json:"deliveryPercent"`
	OverallPercent      int       `json:"overallPercent"`
	ShowDeliverySection bool      `json:"showDeliverySection"`
}

// SectionCompletion returns the rounded percentage of the category's
// milestones that are complete.
func (s *Session) SectionCompletion(category string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sectionCompletionLocked(category)
}

func (s *Session) sectionCompletionLocked(category string) int {
	section := milestones.ByCategory(category)
	if len(section) == 0 {
		return 0
	}
	done := 0
	for _, m := range section {
		if s.has(m.ID) {
			done++
		}
	}
	return int(math.Round(float64(done) / float64(len(section)) * 100))
}

// OverallProgress is the simple average of the restaurant and delivery
// section completions, not a weighted count of all milestones.
func (s *Session) OverallProgress() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overallLocked()
}

func (s *Session) overallLocked() int {
	if s.specialLocked() != "" {
		return 0
	}
	r := s.sectionCompletionLocked(milestones.CategoryRestaurant)
	d := s.sectionCompletionLocked(milestones.CategoryDelivery)
	return int(math.Round(float64(r+d) / 2))
}

// ShowDeliverySection reports whether the delivery timeline should surface:
// once the handoff milestone is complete, the order service already reports
// completion, or any delivery-side milestone has been observed.
func (s *Session) ShowDeliverySection() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showDeliveryLocked()
}

func (s *Session) showDeliveryLocked() bool {
	if s.has(milestones.Ready) {
		return true
	}
	if milestones.HandoffReached(s.orderStatus) {
		return true
	}
	for _, m := range milestones.ByCategory(milestones.CategoryDelivery) {
		if s.has(m.ID) {
			return true
		}
	}
	return false
}

// Special returns the terminal-exceptional milestone id currently displayed,
// or "" in the ordinary flow.
func (s *Session) Special() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.specialLocked()
}

func (s *Session) specialLocked() string {
	if len(s.completed) == 1 && milestones.IsSpecial(s.completed[0]) {
		return s.completed[0]
	}
	return ""
}

// Terminal reports whether tracking is finished for this order.
func (s *Session) Terminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.specialLocked() != "" || s.has(milestones.Completed)
}

// Snapshot copies the full derived view state under one lock acquisition.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	completed := make([]string, len(s.completed))
	copy(completed, s.completed)

	var driver *Driver
	if s.driver != nil {
		d := *s.driver
		driver = &d
	}

	special := s.specialLocked()
	return Snapshot{
		OrderID:             s.orderID,
		Completed:           completed,
		Current:             s.current,
		OrderStatus:         s.orderStatus,
		Driver:              driver,
		EstimatedTime:       s.estimatedTime,
		FeedError:           s.feedError,
		LastUpdated:         s.lastUpdated,
		Terminal:            special != "" || s.has(milestones.Completed),
		Special:             special,
		RestaurantPercent:   s.sectionCompletionLocked(milestones.CategoryRestaurant),
		DeliveryPercent:     s.sectionCompletionLocked(milestones.CategoryDelivery),
		OverallPercent:      s.overallLocked(),
		ShowDeliverySection: s.showDeliveryLocked(),
	}
}
