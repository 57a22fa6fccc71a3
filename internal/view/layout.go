package view

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	g "maragu.dev/gomponents"
	c "maragu.dev/gomponents/components"
	h "maragu.dev/gomponents/html"
)

const (
	htmxScript   = "https://unpkg.com/htmx.org@2.0.4"
	htmxWSScript = "https://unpkg.com/htmx-ext-ws@2.0.2/ws.js"
)

// NavItem is a link in the page header.
type NavItem struct {
	Label string
	Href  string
}

// NavFor builds a header link for each module name, mounted under /app.
func NavFor(names ...string) []NavItem {
	title := cases.Title(language.English)
	items := make([]NavItem, 0, len(names))
	for _, name := range names {
		items = append(items, NavItem{Label: title.String(name), Href: "/app/" + name})
	}
	return items
}

// PageData carries everything the base layout needs.
type PageData struct {
	Title string
	Flash FlashData
	Nav   []NavItem
	Body  g.Node
}

// CalculateTitle returns the document title for a page title.
func CalculateTitle(title string) string {
	if title != "" {
		return title + " - Trendline"
	}
	return "Trendline"
}

// Page is the base HTML document shared by every full-page response.
func Page(p PageData) g.Node {
	return c.HTML5(c.HTML5Props{
		Title:    CalculateTitle(p.Title),
		Language: "en",
		Head: []g.Node{
			h.Link(h.Rel("stylesheet"), h.Href("/static/app.css")),
			h.Script(h.Src(htmxScript)),
			h.Script(h.Src(htmxWSScript)),
		},
		Body: []g.Node{
			h.Header(h.Class("site-header"),
				h.A(h.Href("/"), h.Class("brand"), g.Text("Trendline")),
				h.Nav(g.Map(p.Nav, func(item NavItem) g.Node {
					return h.A(h.Href(item.Href), g.Text(item.Label))
				})),
			),
			Flash(p.Flash),
			h.Main(h.Class("site-main"), p.Body),
		},
	})
}

// Flash renders queued flash messages, or nothing.
func Flash(f FlashData) g.Node {
	if f.Empty() {
		return nil
	}
	return h.Div(h.ID("flash"), h.Class("flash"),
		g.Map(f.Success, func(msg string) g.Node {
			return h.P(h.Class("flash-success"), g.Text(msg))
		}),
		g.Map(f.Error, func(msg string) g.Node {
			return h.P(h.Class("flash-error"), g.Text(msg))
		}),
	)
}
