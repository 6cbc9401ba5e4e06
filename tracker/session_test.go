package tracker

import (
	"reflect"
	"testing"

	"greenbowl/milestones"
)

func TestApplyPending(t *testing.T) {
	s := NewSession("ord-1")
	s.Apply(milestones.Pending)

	if got := s.Completed(); !reflect.DeepEqual(got, []string{"pending"}) {
		t.Errorf("completed = %v, want [pending]", got)
	}
	if got := s.Current(); got != "pending" {
		t.Errorf("current = %q, want pending", got)
	}
	if s.ShowDeliverySection() {
		t.Error("delivery section should be hidden at pending")
	}
}

func TestApplyRankBackfill(t *testing.T) {
	s := NewSession("ord-1")
	s.Apply(milestones.Ready)

	want := []string{"pending", "accepted", "preparing", "ready"}
	if got := s.Completed(); !reflect.DeepEqual(got, want) {
		t.Errorf("completed = %v, want %v", got, want)
	}
	if !s.ShowDeliverySection() {
		t.Error("delivery section should show once ready is complete")
	}
	if got := s.SectionCompletion(milestones.CategoryRestaurant); got != 100 {
		t.Errorf("restaurant completion = %d, want 100", got)
	}
	if got := s.SectionCompletion(milestones.CategoryDelivery); got != 0 {
		t.Errorf("delivery completion = %d, want 0", got)
	}
}

func TestApplyCompletedDirectly(t *testing.T) {
	s := NewSession("ord-1")
	s.Apply(milestones.Completed)

	if got := len(s.Completed()); got != 9 {
		t.Errorf("completed count = %d, want all 9 regular milestones", got)
	}
	if got := s.OverallProgress(); got != 100 {
		t.Errorf("overall progress = %d, want 100", got)
	}
	if !s.Terminal() {
		t.Error("session should be terminal after completed")
	}
}

func TestTerminalOverride(t *testing.T) {
	s := NewSession("ord-1")
	s.Apply(milestones.Ready)
	s.Apply(milestones.Cancelled)

	if got := s.Completed(); !reflect.DeepEqual(got, []string{"cancelled"}) {
		t.Errorf("completed = %v, want [cancelled] exactly", got)
	}
	if got := s.Current(); got != "cancelled" {
		t.Errorf("current = %q, want cancelled", got)
	}
	if got := s.Special(); got != "cancelled" {
		t.Errorf("special = %q, want cancelled", got)
	}
	if !s.Terminal() {
		t.Error("cancelled session should be terminal")
	}
	if got := s.OverallProgress(); got != 0 {
		t.Errorf("overall progress = %d, want 0 in special state", got)
	}
}

func TestUnknownTokenNoOp(t *testing.T) {
	s := NewSession("ord-1")
	s.Apply(milestones.Preparing)
	before := s.Snapshot()

	s.Apply("foo")

	after := s.Snapshot()
	if !reflect.DeepEqual(before.Completed, after.Completed) {
		t.Errorf("completed changed: %v -> %v", before.Completed, after.Completed)
	}
	if after.Current != "preparing" {
		t.Errorf("current = %q, want preparing", after.Current)
	}
	if !after.LastUpdated.Equal(before.LastUpdated) {
		t.Error("lastUpdated changed on unknown token")
	}
}

func TestMonotonicity(t *testing.T) {
	// Any sequence of non-special tokens never shrinks the completed set,
	// including out-of-order and repeated tokens.
	seq := []string{"preparing", "pending", "assigned", "accepted", "en_route", "pick-up", "en_route"}
	s := NewSession("ord-1")
	prev := 0
	for _, id := range seq {
		s.Apply(id)
		n := len(s.Completed())
		if n < prev {
			t.Fatalf("completed shrank from %d to %d after %s", prev, n, id)
		}
		prev = n
	}
}

func TestIdempotence(t *testing.T) {
	a := NewSession("ord-1")
	a.Apply(milestones.PickUp)

	b := NewSession("ord-1")
	b.Apply(milestones.PickUp)
	b.Apply(milestones.PickUp)

	if !reflect.DeepEqual(a.Completed(), b.Completed()) {
		t.Errorf("double apply diverged: %v vs %v", a.Completed(), b.Completed())
	}
	if a.Current() != b.Current() {
		t.Errorf("current diverged: %q vs %q", a.Current(), b.Current())
	}
}

func TestLowerRankAbsorbed(t *testing.T) {
	s := NewSession("ord-1")
	s.Apply(milestones.EnRoute)
	n := len(s.Completed())

	s.Apply(milestones.Accepted)
	if got := len(s.Completed()); got != n {
		t.Errorf("completed count = %d after stale lower-rank event, want %d", got, n)
	}
	// Current pointer does follow the most recent recognized event.
	if got := s.Current(); got != "accepted" {
		t.Errorf("current = %q, want accepted", got)
	}
}

func TestApplyUpdateFields(t *testing.T) {
	s := NewSession("ord-1")
	s.ApplyUpdate(StatusUpdate{
		OrderStatus:   "preparing",
		EstimatedTime: "25 min",
		Driver:        &Driver{Name: "Sam", Vehicle: "bike", Location: "12.97,77.59"},
	})

	snap := s.Snapshot()
	if snap.OrderStatus != "preparing" {
		t.Errorf("orderStatus = %q, want preparing", snap.OrderStatus)
	}
	if snap.EstimatedTime != "25 min" {
		t.Errorf("estimatedTime = %q, want 25 min", snap.EstimatedTime)
	}
	if snap.Driver == nil || snap.Driver.Name != "Sam" {
		t.Fatalf("driver = %+v, want Sam", snap.Driver)
	}

	// A later update without a location must not clobber the known one.
	s.ApplyUpdate(StatusUpdate{Driver: &Driver{Name: "Sam", Vehicle: "bike"}})
	if got := s.Snapshot().Driver.Location; got != "12.97,77.59" {
		t.Errorf("driver location = %q, want preserved value", got)
	}

	// Empty update applies nothing.
	before := s.Snapshot()
	s.ApplyUpdate(StatusUpdate{})
	if got := s.Snapshot(); !reflect.DeepEqual(got.Completed, before.Completed) || got.EstimatedTime != before.EstimatedTime {
		t.Error("empty update mutated session state")
	}
}

func TestFeedErrorSurfacedAndCleared(t *testing.T) {
	s := NewSession("ord-1")
	s.ApplyUpdate(StatusUpdate{OrderStatus: "accepted"})

	s.ApplyUpdate(StatusUpdate{Error: "kitchen offline"})
	snap := s.Snapshot()
	if snap.FeedError != "kitchen offline" {
		t.Fatalf("feedError = %q, want kitchen offline", snap.FeedError)
	}
	// The error does not touch milestone state.
	if snap.Current != "accepted" {
		t.Errorf("current = %q, want accepted", snap.Current)
	}

	// An error-only update keeps the error; a status-bearing one clears it.
	s.ApplyUpdate(StatusUpdate{EstimatedTime: "40 min"})
	if got := s.Snapshot().FeedError; got != "kitchen offline" {
		t.Errorf("feedError = %q, want retained until a status arrives", got)
	}
	s.ApplyUpdate(StatusUpdate{OrderStatus: "preparing"})
	if got := s.Snapshot().FeedError; got != "" {
		t.Errorf("feedError = %q, want cleared after recovery", got)
	}
}

func TestDeliveryStatusFlows(t *testing.T) {
	s := NewSession("ord-1")
	s.ApplyUpdate(StatusUpdate{DeliveryStatus: "assigned"})

	if !s.ShowDeliverySection() {
		t.Error("delivery section should show after a delivery-side milestone")
	}
	if got := s.Current(); got != "assigned" {
		t.Errorf("current = %q, want assigned", got)
	}
}

func TestShowDeliveryFromOrderStatus(t *testing.T) {
	// orderStatus alone indicating completion surfaces the delivery section
	// even before any delivery milestone lands in the completed set.
	s := NewSession("ord-1")
	s.mu.Lock()
	s.orderStatus = "ready"
	s.mu.Unlock()

	if !s.ShowDeliverySection() {
		t.Error("delivery section should show when orderStatus indicates handoff")
	}
}

func TestOverallProgressAveragesSections(t *testing.T) {
	s := NewSession("ord-1")
	s.Apply(milestones.Assigned) // restaurant 100%, delivery 1/5 = 20%
	if got := s.OverallProgress(); got != 60 {
		t.Errorf("overall = %d, want 60", got)
	}
}
