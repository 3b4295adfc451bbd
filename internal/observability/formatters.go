// Package observability provides logging setup and formatted CLI output.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/nap-verifier/internal/followup"
	"github.com/jonathan/nap-verifier/internal/types"
	"github.com/jonathan/nap-verifier/internal/verification"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintRunResult outputs one record's verification run, link by link.
func (p *Printer) PrintRunResult(run *verification.RunResult) {
	if run == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Record: %s\n", run.RecordID)
	fmt.Fprintf(&sb, "Links:  %d  (verified %d, skipped %d, error %d)\n",
		run.Summary.Total, run.Summary.Success, run.Summary.Skipped, run.Summary.Error)

	for _, r := range run.Results {
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "%s %s\n", outcomeMark(r.Outcome), r.SiteName)
		fmt.Fprintf(&sb, "  status: %s  priority: %s (%d)\n", r.Status, r.PriorityTier, r.PriorityScore)
		if r.Fields != nil {
			fmt.Fprintf(&sb, "  name %s  address %s  phone %s  confidence %.2f\n",
				r.Fields.Name.Status, r.Fields.Address.Status, r.Fields.Phone.Status, r.Confidence)
		}
		if len(r.OutdatedFields) > 0 {
			fmt.Fprintf(&sb, "  outdated: %s\n", strings.Join(r.OutdatedFields, ", "))
		}
		if r.ErrorMessage != "" {
			fmt.Fprintf(&sb, "  error: %s\n", r.ErrorMessage)
		}
	}

	p.printBox("VERIFICATION RUN", strings.TrimSuffix(sb.String(), "\n"))
}

func outcomeMark(o verification.Outcome) string {
	switch o {
	case verification.OutcomeVerified:
		return "✓"
	case verification.OutcomeSkipped:
		return "-"
	default:
		return "✗"
	}
}

// PrintBatchResult outputs the totals of a multi-record run.
func (p *Printer) PrintBatchResult(batch *verification.BatchResult) {
	if batch == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Records:  %d (%d failed)\n", batch.Records, batch.RecordsFailed)
	fmt.Fprintf(&sb, "Links:    %d\n", batch.Summary.Total)
	fmt.Fprintf(&sb, "Verified: %d\n", batch.Summary.Success)
	fmt.Fprintf(&sb, "Skipped:  %d\n", batch.Summary.Skipped)
	fmt.Fprintf(&sb, "Errors:   %d", batch.Summary.Error)
	if batch.Cancelled {
		sb.WriteString("\n\nCancelled before all records were started")
	}

	p.printBox("BATCH VERIFICATION", sb.String())
}

// PrintFollowUps outputs overdue correction requests.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintFollowUps(items []followup.FollowUp) {
	if len(items) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ NO FOLLOW-UPS DUE")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d correction requests need follow-up:\n\n", len(items))

	count := min(len(items), maxItemsToShow)
	for i := range count {
		f := items[i]
		mark := "•"
		if f.Urgent {
			mark = "⚠"
		}
		fmt.Fprintf(&sb, "%s %s  %d days  link %s\n", mark, f.Request.Status, f.DaysElapsed, f.Request.LinkID)
		if f.Request.Note != "" {
			fmt.Fprintf(&sb, "  %s\n", f.Request.Note)
		}
	}
	if len(items) > maxItemsToShow {
		fmt.Fprintf(&sb, "\n... and %d more", len(items)-maxItemsToShow)
	}

	p.printBox("CORRECTION FOLLOW-UPS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMismatches outputs one page of the mismatch listing.
func (p *Printer) PrintMismatches(page *verification.MismatchPage) {
	if page == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Showing %d of %d (offset %d)\n", len(page.Items), page.Total, page.Offset)
	for _, status := range []types.ListingStatus{
		types.ListingMismatched, types.ListingNeedsReview, types.ListingUnregistered,
		types.ListingUnchecked, types.ListingInaccessible,
	} {
		if n := page.Counts[status]; n > 0 {
			fmt.Fprintf(&sb, "  %-13s %d\n", status, n)
		}
	}

	for _, l := range page.Items {
		site := l.SiteID.String()
		if l.Site != nil {
			site = l.Site.Name
		}
		fmt.Fprintf(&sb, "\n%4d  %-7s %-12s %s\n", l.PriorityScore, l.PriorityTier, l.Status, site)
		if l.DetectedName != nil {
			fmt.Fprintf(&sb, "      listed as %s\n", *l.DetectedName)
		}
	}

	p.printBox("LISTINGS NEEDING ATTENTION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintHistory outputs a link's verification log, newest first.
func (p *Printer) PrintHistory(entries []types.VerificationLogEntry) {
	if len(entries) == 0 {
		p.printBox("VERIFICATION HISTORY", "No attempts recorded")
		return
	}

	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s  %-12s %.2f\n", e.VerifiedAt.Format("2006-01-02 15:04"), e.OverallStatus, e.Confidence)
		if e.ErrorMessage != nil {
			fmt.Fprintf(&sb, "      error: %s\n", *e.ErrorMessage)
		}
		if len(e.OutdatedFields) > 0 {
			fmt.Fprintf(&sb, "      outdated: %s\n", strings.Join(e.OutdatedFields, ", "))
		}
	}
	p.printBox("VERIFICATION HISTORY", strings.TrimSuffix(sb.String(), "\n"))
}
