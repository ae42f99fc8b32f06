package nav

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

type Link struct {
	Label  string
	Href   string
	Active bool
}

// TopNavData is shared with page renderers.
type TopNavData struct {
	Links []Link
}

// BuildTopNavData marks the link whose href equals activePath.
func BuildTopNavData(activePath string) TopNavData {
	links := []Link{
		{Label: "Dashboard", Href: "/"},
		{Label: "Help", Href: "/help"},
		{Label: "Download Backup", Href: "/api/backup"},
	}
	for i := range links {
		links[i].Active = links[i].Href == activePath
	}
	return TopNavData{Links: links}
}

func TopNav(data TopNavData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<nav class="topnav">`)
		for _, l := range data.Links {
			class := ""
			if l.Active {
				class = ` class="active"`
			}
			b.WriteString(`<a href="` + templ.EscapeString(l.Href) + `"` + class + `>` + templ.EscapeString(l.Label) + `</a> `)
		}
		b.WriteString(`</nav>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
