package shipments

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"qctracker/core/qc"
	sharedhtml "qctracker/frontend/shared/html"
	"qctracker/frontend/shared/nav"
)

// DashboardPage renders the stats cards and the shipment table.
func DashboardPage(data DashboardData) templ.Component {
	return sharedhtml.Layout("QC Dashboard", dashboardBody(data))
}

func dashboardBody(data DashboardData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := nav.TopNav(nav.BuildTopNavData("/")).Render(ctx, w); err != nil {
			return err
		}
		var b strings.Builder
		b.WriteString(`<main><h1>Quality Control Dashboard</h1>`)
		if data.Message != "" {
			fmt.Fprintf(&b, `<div class="alert" role="alert">%s</div>`, templ.EscapeString(data.Message))
		}

		b.WriteString(`<section class="stats">`)
		writeStat(&b, "Total Shipments", data.Stats.Total)
		writeStat(&b, "Pending QC", data.Stats.Pending)
		writeStat(&b, "Completed", data.Stats.Completed)
		writeStat(&b, "Issues Found", data.Stats.IssuesFound)
		b.WriteString(`</section>`)

		b.WriteString(`<table id="shipments"><thead><tr><th>Shipment ID</th><th>Supplier</th><th>Items</th><th>Expected</th><th>Status</th><th>Pass Rate</th><th>Action</th></tr></thead><tbody>`)
		if len(data.Shipments) == 0 {
			b.WriteString(`<tr><td colspan="7">No shipments yet.</td></tr>`)
		}
		for _, s := range data.Shipments {
			writeRow(&b, s)
		}
		b.WriteString(`</tbody></table></main>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeStat(b *strings.Builder, label string, value int) {
	fmt.Fprintf(b, `<div class="stat"><div class="label">%s</div><div class="value">%d</div></div>`, templ.EscapeString(label), value)
}

func writeRow(b *strings.Builder, s ShipmentView) {
	rate := "-"
	if s.PassRate != "" {
		rate = fmt.Sprintf(`<span class="band-%s">%s%%</span>`, s.Band, s.PassRate)
	}
	fmt.Fprintf(b, `<tr data-id="%s"><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td><span class="badge badge-%s">%s</span></td><td>%s</td><td>%s</td></tr>`,
		templ.EscapeString(s.ID),
		templ.EscapeString(s.ID),
		templ.EscapeString(s.Supplier),
		templ.EscapeString(strings.Join(s.Items, ", ")),
		templ.EscapeString(s.ExpectedDate),
		templ.EscapeString(string(s.Status)),
		templ.EscapeString(s.StatusLabel),
		rate,
		actionLink(s),
	)
}

func actionLink(s ShipmentView) string {
	href := "/api/shipments/" + url.PathEscape(s.ID)
	if s.Action == qc.ActionView && s.Level2Data != nil {
		href += "/report.pdf"
	}
	return fmt.Sprintf(`<a href="%s">%s</a>`, templ.EscapeString(href), templ.EscapeString(string(s.Action)))
}
