package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/models"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/reconcile"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/reporting"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// renderSummary prints the outcome counts of a run and any failed ads.
func renderSummary(w io.Writer, s reconcile.Summary) {
	t := newTable(w)
	t.SetTitle("Run " + s.RunID)
	t.AppendHeader(table.Row{"Inserted", "Updated", "Failed", "Total", "Duration"})
	t.AppendRow(table.Row{s.Inserted, s.Updated, s.Failed, s.Total, s.Duration.Round(time.Millisecond)})
	t.Render()

	if len(s.Failures) == 0 {
		return
	}
	f := newTable(w)
	f.SetTitle("Failures")
	f.AppendHeader(table.Row{"Ad ID", "Error"})
	for _, fl := range s.Failures {
		f.AppendRow(table.Row{fl.AdID, fl.Error})
	}
	f.Render()
}

// renderAds lists canonical ads, one row each.
func renderAds(w io.Writer, ads []models.CanonicalAd) {
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Ad ID", "Status", "Start", "Page", "Platforms", "Versions"})
	for i, ad := range ads {
		t.AppendRow(table.Row{
			i + 1,
			ad.AdID,
			ad.Status,
			deref(ad.StartDate),
			deref(ad.PageName),
			strings.Join(ad.Platforms, ", "),
			ad.VersionCount,
		})
	}
	t.AppendFooter(table.Row{"", "Total", len(ads)})
	t.Render()
}

// renderImportReport prints daily outcomes and the ads failing most often.
func renderImportReport(w io.Writer, r *reporting.ImportSummary) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Date", "Runs", "Inserted", "Updated", "Failed"})
	for _, d := range r.Daily {
		t.AppendRow(table.Row{d.Date, d.Runs, d.Inserted, d.Updated, d.Failed})
	}
	t.AppendFooter(table.Row{"Total", r.Totals.Runs, r.Totals.Inserted, r.Totals.Updated, r.Totals.Failed})
	t.Render()
	fmt.Fprintf(w, "Failure rate: %.2f%%\n", r.FailureRate)

	if len(r.TopFailures) == 0 {
		return
	}
	f := newTable(w)
	f.SetTitle("Most frequent failures")
	f.AppendHeader(table.Row{"Ad ID", "Failures", "Last error", "Last seen"})
	for _, fa := range r.TopFailures {
		f.AppendRow(table.Row{fa.AdID, fa.Failures, fa.LastError, fa.LastSeen.Format("2006-01-02 15:04:05")})
	}
	f.Render()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
