package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"assetfetch/internal/fetcher"
	"assetfetch/pkg/catalog"
)

// ConsoleReporter prints one progress block per entry:
//
//	Downloading squats...
//	  -> OK (GIF)
type ConsoleReporter struct {
	out       io.Writer
	quiet     bool
	startTime time.Time
}

// NewConsoleReporter creates a reporter writing to out. With quiet set it
// prints nothing and only measures the elapsed time.
func NewConsoleReporter(out io.Writer, quiet bool) *ConsoleReporter {
	return &ConsoleReporter{
		out:       out,
		quiet:     quiet,
		startTime: time.Now(),
	}
}

// Start is called before an entry is fetched
func (r *ConsoleReporter) Start(entry catalog.Entry) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.out, "Downloading %s...\n", entry.LocalID)
}

// Done is called with the outcome of an entry
func (r *ConsoleReporter) Done(outcome fetcher.Outcome) {
	if r.quiet {
		return
	}

	if outcome.Succeeded {
		fmt.Fprintf(r.out, "  -> %s\n", Green(fmt.Sprintf("OK (%s)", strings.ToUpper(outcome.Format))))
	} else {
		fmt.Fprintf(r.out, "  -> %s\n", Red("FAILED"))
	}
}

// GetElapsedTime returns the elapsed time since the reporter was created
func (r *ConsoleReporter) GetElapsedTime() time.Duration {
	return time.Since(r.startTime)
}

// PrintSummary prints the closing summary line preceded by a blank line
func PrintSummary(out io.Writer, summary fetcher.Summary) {
	fmt.Fprintf(out, "\nSummary: %d succeeded, %d failed.\n", summary.Succeeded, summary.Failed)
}

// PrintFailures lists the entries that could not be fetched
func PrintFailures(out io.Writer, summary fetcher.Summary) {
	failed := summary.FailedEntries()
	if len(failed) == 0 {
		return
	}
	fmt.Fprintln(out, Yellow("Unavailable:"))
	for _, entry := range failed {
		fmt.Fprintf(out, "  %s %s\n", entry.LocalID, Dim("("+entry.RemoteID+")"))
	}
}
