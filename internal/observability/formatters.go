package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/interview-scheduler/internal/scheduling"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
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
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSlots lists the free slots of a day, one per line.
func (p *Printer) PrintSlots(date time.Time, durationMinutes int, slots []scheduling.Slot) {
	var sb strings.Builder
	if len(slots) == 0 {
		sb.WriteString("No free slots.\n")
	}
	for _, s := range slots {
		sb.WriteString(fmt.Sprintf("%s - %s\n", s.StartTime.Format("15:04"), s.EndTime.Format("15:04")))
	}
	sb.WriteString(fmt.Sprintf("\nTotal: %d", len(slots)))

	title := fmt.Sprintf("AVAILABLE SLOTS  %s  (%d min)", date.Format("Mon 2006-01-02 MST"), durationMinutes)
	p.printBox(title, sb.String())
}

// PrintInterview outputs a human-readable summary of one interview.
func (p *Printer) PrintInterview(iv *scheduling.Interview) {
	if iv == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ID:        %s\n", iv.ID))
	sb.WriteString(fmt.Sprintf("Status:    %s\n", iv.Status))
	sb.WriteString(fmt.Sprintf("When:      %s (%d min)\n", iv.ScheduledDate.UTC().Format(time.RFC3339), iv.Duration))
	sb.WriteString(fmt.Sprintf("Format:    %s / %s / %s\n", iv.Format, iv.InterviewType, iv.InterviewStage))
	sb.WriteString(fmt.Sprintf("Confirmed: recruiter=%t candidate=%t\n", iv.RecruiterConfirmed, iv.CandidateConfirmed))

	if n := len(iv.RescheduleHistory); n > 0 {
		sb.WriteString(fmt.Sprintf("\nReschedules (%d):\n", n))
		shown := iv.RescheduleHistory
		if n > maxItemsToShow {
			shown = shown[n-maxItemsToShow:]
			sb.WriteString(fmt.Sprintf("  ... %d earlier\n", n-maxItemsToShow))
		}
		for _, e := range shown {
			sb.WriteString(fmt.Sprintf("  %s -> %s\n",
				e.OriginalDate.UTC().Format("01-02 15:04"), e.NewDate.UTC().Format("01-02 15:04")))
		}
	}
	if iv.Cancellation != nil && iv.Cancellation.Reason != "" {
		sb.WriteString(fmt.Sprintf("\nCancelled: %s\n", iv.Cancellation.Reason))
	}

	p.printBox(strings.ToUpper(iv.Title), sb.String())
}
