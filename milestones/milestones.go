package milestones

// Category groups milestones into the two timeline sections plus the
// terminal-exceptional states that never appear in the regular flow.
const (
	CategoryRestaurant = "restaurant"
	CategoryDelivery   = "delivery"
	CategorySpecial    = "special"
)

// Milestone ids recognized from both status services. Any other token
// is ignored by the reconciler.
const (
	Pending    = "pending"
	Accepted   = "accepted"
	Preparing  = "preparing"
	Ready      = "ready"
	Assigned   = "assigned"
	InProgress = "in-progress"
	PickUp     = "pick-up"
	EnRoute    = "en_route"
	Completed  = "completed"
	Cancelled  = "cancelled"
	Failed     = "failed"
)

// Handoff is the milestone at which the order service is done and the
// delivery service becomes the authoritative status source.
const Handoff = Ready

// Milestone is one named stage of the order lifecycle. Rank is assigned
// at catalog construction so ordering never depends on slice position.
type Milestone struct {
	ID          string
	Title       string
	Description string
	Category    string
	Rank        int
}

// catalog is the canonical ordered stage table, fixed at init.
var catalog = buildCatalog([]Milestone{
	{ID: Pending, Title: "Order Received", Description: "Your order is being processed", Category: CategoryRestaurant},
	{ID: Accepted, Title: "Order Confirmed", Description: "Restaurant has accepted your order", Category: CategoryRestaurant},
	{ID: Preparing, Title: "Preparing", Description: "Chef is preparing your food", Category: CategoryRestaurant},
	{ID: Ready, Title: "Ready for Pickup", Description: "Your order is ready for the driver", Category: CategoryRestaurant},

	{ID: Assigned, Title: "Driver Assigned", Description: "A driver has been assigned to your order", Category: CategoryDelivery},
	{ID: InProgress, Title: "Driver to Restaurant", Description: "Driver is heading to the restaurant", Category: CategoryDelivery},
	{ID: PickUp, Title: "Order Picked Up", Description: "Driver has your food and is leaving", Category: CategoryDelivery},
	{ID: EnRoute, Title: "On the Way", Description: "Driver is heading to your location", Category: CategoryDelivery},
	{ID: Completed, Title: "Delivered", Description: "Your order has arrived safely!", Category: CategoryDelivery},

	{ID: Cancelled, Title: "Cancelled", Description: "Your order was cancelled", Category: CategorySpecial},
	{ID: Failed, Title: "Delivery Failed", Description: "There was a problem with your delivery", Category: CategorySpecial},
})

var byID = func() map[string]Milestone {
	m := make(map[string]Milestone, len(catalog))
	for _, ms := range catalog {
		m[ms.ID] = ms
	}
	return m
}()

func buildCatalog(ms []Milestone) []Milestone {
	for i := range ms {
		ms[i].Rank = i
	}
	return ms
}

// Find looks up a milestone by id.
func Find(id string) (Milestone, bool) {
	m, ok := byID[id]
	return m, ok
}

// Rank returns a milestone's position in the canonical catalog order.
func Rank(id string) (int, bool) {
	m, ok := byID[id]
	return m.Rank, ok
}

// All returns the full catalog in canonical order.
func All() []Milestone {
	out := make([]Milestone, len(catalog))
	copy(out, catalog)
	return out
}

// ByCategory returns the milestones of one category, preserving catalog order.
func ByCategory(category string) []Milestone {
	var out []Milestone
	for _, m := range catalog {
		if m.Category == category {
			out = append(out, m)
		}
	}
	return out
}

// Regular returns all non-special milestones in catalog order.
func Regular() []Milestone {
	var out []Milestone
	for _, m := range catalog {
		if m.Category != CategorySpecial {
			out = append(out, m)
		}
	}
	return out
}

// IsSpecial reports whether id names a terminal-exceptional milestone.
func IsSpecial(id string) bool {
	m, ok := byID[id]
	return ok && m.Category == CategorySpecial
}

// IsTerminal reports whether id ends the tracking lifecycle.
func IsTerminal(id string) bool {
	return id == Completed || IsSpecial(id)
}

// HandoffReached reports whether the given status means the restaurant side
// is finished and the delivery service owns further updates.
func HandoffReached(id string) bool {
	m, ok := byID[id]
	if !ok || m.Category == CategorySpecial {
		return false
	}
	handoff, _ := Rank(Handoff)
	return m.Rank >= handoff
}
