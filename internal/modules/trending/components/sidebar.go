package components

import (
	"encoding/json"
	"strconv"

	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	h "maragu.dev/gomponents/html"
)

// SidebarID is the DOM id swapped by every sidebar update.
const SidebarID = "trending-sidebar"

// SidebarProps is the view model for the sidebar.
type SidebarProps struct {
	// Base is the URL prefix the module is mounted under, e.g. "/app/trending".
	Base    string
	Topics  []string
	Version uint64
	// Notice is an optional inline message, e.g. a failed refresh.
	Notice string
}

// Sidebar renders the trending topics panel with its add, remove and refresh controls.
func Sidebar(p SidebarProps) g.Node {
	return sidebar(p)
}

// SidebarOOB renders the sidebar for an out-of-band swap pushed over the websocket.
func SidebarOOB(p SidebarProps) g.Node {
	return sidebar(p, hx.SwapOOB("true"))
}

func sidebar(p SidebarProps, extra ...g.Node) g.Node {
	swap := []g.Node{hx.Target("#" + SidebarID), hx.Swap("outerHTML")}

	return h.Aside(
		h.ID(SidebarID),
		h.Class("right-sidebar"),
		g.Attr("data-version", strconv.FormatUint(p.Version, 10)),
		g.Group(extra),
		h.H3(g.Text("Trending")),
		g.If(p.Notice != "", h.P(h.Class("sidebar-notice"), g.Text(p.Notice))),
		g.If(len(p.Topics) == 0, h.P(h.Class("sidebar-empty"), g.Text("No trending topics yet."))),
		h.Ul(h.Class("trending-list"),
			g.Map(p.Topics, func(topic string) g.Node {
				vals, _ := json.Marshal(map[string]string{"topic": topic})
				return h.Li(h.Class("trending-item"),
					h.Span(g.Text(topic)),
					h.Button(
						h.Type("button"),
						h.Class("trending-remove"),
						g.Attr("aria-label", "Remove "+topic),
						hx.Post(p.Base+"/topics/remove"),
						hx.Vals(string(vals)),
						g.Group(swap),
						g.Text("×"),
					),
				)
			}),
		),
		h.Form(
			h.Class("trending-add"),
			h.Action(p.Base+"/topics"),
			h.Method("post"),
			hx.Post(p.Base+"/topics"),
			g.Group(swap),
			h.Input(h.Type("text"), h.Name("topic"), h.Placeholder("Add a topic"), h.Required(), h.MaxLength("64")),
			h.Button(h.Type("submit"), g.Text("Add")),
		),
		h.Form(
			h.Class("trending-refresh"),
			h.Action(p.Base+"/refresh"),
			h.Method("post"),
			hx.Post(p.Base+"/refresh"),
			g.Group(swap),
			h.Button(h.Type("submit"), g.Text("Refresh")),
		),
	)
}

// Page wraps the sidebar in a container connected to the live-update websocket.
func Page(base string, sidebar g.Node) g.Node {
	return h.Div(
		h.Class("trending-page"),
		hx.Ext("ws"),
		g.Attr("ws-connect", base+"/ws"),
		h.H1(g.Text("Trending topics")),
		sidebar,
	)
}
