package cart

// Event names the change that produced a Snapshot.
type Event string

const (
	EventHydrated        Event = "hydrated"
	EventItemAdded       Event = "item_added"
	EventItemRemoved     Event = "item_removed"
	EventQuantityChanged Event = "quantity_changed"
	EventCleared         Event = "cleared"
	EventDrawerChanged   Event = "drawer_changed"
)

// String implements fmt.Stringer.
func (e Event) String() string {
	return string(e)
}

// TouchesLines reports whether the event changed line data.
func (e Event) TouchesLines() bool {
	switch e {
	case EventItemAdded, EventItemRemoved, EventQuantityChanged, EventCleared, EventHydrated:
		return true
	}
	return false
}
