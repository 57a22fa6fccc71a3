package notification

import (
	"strconv"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

// ListID is the DOM id of the notification list container.
const ListID = "notification-list"

// Render returns the list body for the current state. Items are keyed by id.
func (v *View) Render() g.Node {
	switch v.State() {
	case StateLoaded:
		return List(v.Items())
	case StateFailed:
		return h.Div(h.ID(ListID), h.Class("notification-main notification-error"),
			h.P(g.Text("Notifications are unavailable right now.")),
		)
	default:
		return h.Div(h.ID(ListID), h.Class("notification-main"))
	}
}

// List renders one block per notification, in order.
func List(items []Notification) g.Node {
	return h.Div(h.ID(ListID), h.Class("notification-main"),
		g.Map(items, Item),
	)
}

// Item renders a single notification block.
func Item(n Notification) g.Node {
	return h.Div(
		h.ID("notification-"+strconv.Itoa(n.ID)),
		h.Class("notification-item"),
		g.Attr("data-id", strconv.Itoa(n.ID)),
		h.H2(g.Text(n.Title)),
		h.P(g.Text(n.Message)),
	)
}
