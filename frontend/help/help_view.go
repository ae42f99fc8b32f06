package help

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"qctracker/core/qc"
	sharedhtml "qctracker/frontend/shared/html"
	"qctracker/frontend/shared/nav"
	"qctracker/models"
)

type StatusRow struct {
	Status models.QCStatus
	Label  string
	Action qc.Action
}

// PageData describes the QC workflow and the accepted form values.
type PageData struct {
	Statuses    []StatusRow
	Conditions  []string
	Packaging   []string
	SampleSizes []string
	DefectTypes []string
}

func BuildPageData() PageData {
	statuses := []models.QCStatus{
		models.StatusPending,
		models.StatusLevel1Complete,
		models.StatusLevel2Complete,
		models.StatusCompleted,
	}
	data := PageData{
		Conditions:  qc.ConditionOptions,
		Packaging:   qc.PackagingOptions,
		DefectTypes: qc.DefectTypeOptions,
	}
	for _, s := range statuses {
		data.Statuses = append(data.Statuses, StatusRow{
			Status: s,
			Label:  qc.StatusLabel(s),
			Action: qc.NextAction(models.Shipment{Status: s}),
		})
	}
	for _, n := range qc.SampleSizeOptions {
		data.SampleSizes = append(data.SampleSizes, strconv.Itoa(n))
	}
	return data
}

func HelpPage(data PageData) templ.Component {
	return sharedhtml.Layout("QC Help", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := nav.TopNav(nav.BuildTopNavData("/help")).Render(ctx, w); err != nil {
			return err
		}
		var b strings.Builder
		b.WriteString(`<main><h1>Quality Control Workflow</h1>`)
		b.WriteString(`<p>Every shipment starts as Pending. Level 1 records the receipt inspection; Level 2 records the sample inspection and needs a completed Level 1. Drafts store data without changing the status; a Level 1 draft is only accepted while the shipment is Pending.</p>`)

		b.WriteString(`<h2>Statuses</h2><table><thead><tr><th>Status</th><th>Label</th><th>Next Action</th></tr></thead><tbody>`)
		for _, row := range data.Statuses {
			fmt.Fprintf(&b, `<tr><td><code>%s</code></td><td>%s</td><td>%s</td></tr>`,
				templ.EscapeString(string(row.Status)), templ.EscapeString(row.Label), templ.EscapeString(string(row.Action)))
		}
		b.WriteString(`</tbody></table>`)

		writeList(&b, "Overall Condition", data.Conditions)
		writeList(&b, "Packaging Integrity", data.Packaging)
		writeList(&b, "Sample Size", data.SampleSizes)
		writeList(&b, "Defect Types", data.DefectTypes)

		b.WriteString(`<h2>Quality Bands</h2><p>Pass rate is passed items over items checked. Good is 95% or more, Fair is 80% or more, anything lower is Poor.</p></main>`)
		_, err := io.WriteString(w, b.String())
		return err
	}))
}

func writeList(b *strings.Builder, title string, values []string) {
	b.WriteString(`<h2>` + templ.EscapeString(title) + `</h2><ul>`)
	for _, v := range values {
		b.WriteString(`<li>` + templ.EscapeString(v) + `</li>`)
	}
	b.WriteString(`</ul>`)
}
