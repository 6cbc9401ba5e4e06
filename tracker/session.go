package tracker

import (
	"sync"
	"time"

	"greenbowl/milestones"
)

// Driver describes the courier assigned to an order. Location may lag the
// rest of the fields; updates that omit it never clear a known location.
type Driver struct {
	Name     string `json:"name"`
	Vehicle  string `json:"vehicle"`
	Photo    string `json:"photo,omitempty"`
	Location string `json:"location,omitempty"`
}

// StatusUpdate is the message shape pushed by both the order and delivery
// services. Every field is optional; each present field is applied
// independently.
type StatusUpdate struct {
	OrderStatus    string  `json:"orderStatus,omitempty"`
	DeliveryStatus string  `json:"deliveryStatus,omitempty"`
	EstimatedTime  string  `json:"estimatedTime,omitempty"`
	Driver         *Driver `json:"driver,omitempty"`
	Error          string  `json:"error,omitempty"`
}

// Session holds the reconciled tracking state for one viewed order.
// It is owned by a single tracking view but read by HTTP snapshot requests
// while stream callbacks mutate it, so all access goes through the mutex.
type Session struct {
	mu sync.Mutex

	orderID       string
	completed     []string // milestone ids, catalog order
	completedSet  map[string]struct{}
	current       string
	orderStatus   string
	driver        *Driver
	estimatedTime string
	feedError     string
	lastUpdated   time.Time

	now func() time.Time
}

// NewSession creates an empty tracking session for the given order.
func NewSession(orderID string) *Session {
	return &Session{
		orderID:      orderID,
		completedSet: make(map[string]struct{}),
		now:          time.Now,
	}
}

// Apply reconciles a raw status token into the session.
//
// Unknown tokens are a no-op. Special (cancelled/failed) tokens replace the
// completed set with the singleton token. Anything else unions the completed
// set with every non-special milestone up to the token's rank, so skipped or
// out-of-order upstream events still produce a monotonic timeline.
func (s *Session) Apply(statusID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(statusID)
}

func (s *Session) applyLocked(statusID string) {
	target, ok := milestones.Find(statusID)
	if !ok {
		return
	}

	if target.Category == milestones.CategorySpecial {
		s.completed = []string{statusID}
		s.completedSet = map[string]struct{}{statusID: {}}
		s.current = statusID
		s.lastUpdated = s.now()
		return
	}

	for _, m := range milestones.Regular() {
		if m.Rank > target.Rank {
			break
		}
		if _, done := s.completedSet[m.ID]; !done {
			s.completedSet[m.ID] = struct{}{}
			s.completed = append(s.completed, m.ID)
		}
	}
	s.current = statusID
	s.lastUpdated = s.now()
}

// ApplyUpdate applies each present field of a stream message independently.
func (s *Session) ApplyUpdate(u StatusUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.OrderStatus != "" {
		s.orderStatus = u.OrderStatus
		s.applyLocked(u.OrderStatus)
	}
	if u.DeliveryStatus != "" {
		s.applyLocked(u.DeliveryStatus)
	}
	if u.EstimatedTime != "" {
		s.estimatedTime = u.EstimatedTime
	}
	if u.Driver != nil {
		d := *u.Driver
		if d.Location == "" && s.driver != nil {
			d.Location = s.driver.Location
		}
		s.driver = &d
	}
	// A service-reported error sticks until a status-bearing update shows
	// the feed is healthy again.
	if u.Error != "" {
		s.feedError = u.Error
	} else if u.OrderStatus != "" || u.DeliveryStatus != "" {
		s.feedError = ""
	}
}

// Completed returns the completed milestone ids in catalog order.
func (s *Session) Completed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.completed))
	copy(out, s.completed)
	return out
}

// Current returns the most recently reconciled milestone id, or "" before
// the first recognized status arrives.
func (s *Session) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// OrderStatus returns the last raw status seen from the order service.
func (s *Session) OrderStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orderStatus
}

func (s *Session) has(id string) bool {
	_, ok := s.completedSet[id]
	return ok
}
