package ui

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"assetfetch/internal/fetcher"
	"assetfetch/pkg/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withColors(t *testing.T, enabled bool) {
	t.Helper()
	prev := colorEnabled
	SetColorEnabled(enabled)
	t.Cleanup(func() { SetColorEnabled(prev) })
}

func TestConsoleReporterLines(t *testing.T) {
	withColors(t, false)
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf, false)

	squats := catalog.Entry{LocalID: "squats", RemoteID: "Squat"}
	plank := catalog.Entry{LocalID: "plank", RemoteID: "Plank"}
	burpees := catalog.Entry{LocalID: "burpees", RemoteID: "Burpee"}

	r.Start(burpees)
	r.Done(fetcher.Outcome{Entry: burpees, Succeeded: true, Format: "jpg"})
	r.Start(squats)
	r.Done(fetcher.Outcome{Entry: squats, Succeeded: true, Format: "gif"})
	r.Start(plank)
	r.Done(fetcher.Outcome{Entry: plank})

	expected := "Downloading burpees...\n  -> OK (JPG)\n" +
		"Downloading squats...\n  -> OK (GIF)\n" +
		"Downloading plank...\n  -> FAILED\n"
	assert.Equal(t, expected, buf.String())
}

func TestConsoleReporterQuiet(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf, true)

	entry := catalog.Entry{LocalID: "squats", RemoteID: "Squat"}
	r.Start(entry)
	r.Done(fetcher.Outcome{Entry: entry, Succeeded: true, Format: "gif"})

	assert.Empty(t, buf.String())
}

func TestConsoleReporterColors(t *testing.T) {
	withColors(t, true)
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf, false)

	r.Done(fetcher.Outcome{Succeeded: true, Format: "gif"})
	assert.Contains(t, buf.String(), "\033[32mOK (GIF)\033[0m")
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, fetcher.Summary{Succeeded: 1, Failed: 1})
	assert.Equal(t, "\nSummary: 1 succeeded, 1 failed.\n", buf.String())
}

func TestPrintFailures(t *testing.T) {
	withColors(t, false)

	var buf bytes.Buffer
	PrintFailures(&buf, fetcher.Summary{Succeeded: 1})
	assert.Empty(t, buf.String())

	PrintFailures(&buf, fetcher.Summary{
		Succeeded: 1,
		Failed:    1,
		Outcomes: []fetcher.Outcome{
			{Entry: catalog.Entry{LocalID: "squats", RemoteID: "Squat"}, Succeeded: true},
			{Entry: catalog.Entry{LocalID: "plank", RemoteID: "Plank"}, Attempts: []fetcher.Attempt{{Format: "jpg", Err: errors.New("404")}}},
		},
	})
	assert.Equal(t, "Unavailable:\n  plank (Plank)\n", buf.String())
}

func TestColorize(t *testing.T) {
	withColors(t, true)
	assert.Equal(t, "\033[31mx\033[0m", Red("x"))

	SetColorEnabled(false)
	assert.Equal(t, "x", Red("x"))
}

func TestShouldColor(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, ShouldColor(f, false), "regular files are not terminals")
	assert.False(t, ShouldColor(os.Stdout, true))

	t.Setenv("NO_COLOR", "1")
	assert.False(t, ShouldColor(os.Stdout, false))
}

func TestPrintHelpers(t *testing.T) {
	withColors(t, false)
	var buf bytes.Buffer
	prev := Output
	Output = &buf
	t.Cleanup(func() { Output = prev })

	PrintInfo("Output", "assets/exercises")
	PrintWarning("Catalog override", "custom.yaml")
	PrintError("Failed")
	PrintSuccess("Done")

	assert.Equal(t, "Output: assets/exercises\nCatalog override: custom.yaml\nFailed\nDone\n", buf.String())
}

type recordingSender struct {
	title, message string
	err            error
}

func (s *recordingSender) Send(title, message string) error {
	s.title, s.message = title, message
	return s.err
}

func TestNotifyRunComplete(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifierWithSender(sender)

	require.NoError(t, n.NotifyRunComplete(fetcher.Summary{Succeeded: 38, Failed: 1}))
	assert.Equal(t, "assetfetch", sender.title)
	assert.Equal(t, "38 succeeded, 1 failed", sender.message)

	sender.err = errors.New("notify-send not found")
	assert.Error(t, n.NotifyRunComplete(fetcher.Summary{}))

	assert.NoError(t, NewNotifierWithSender(nil).NotifyRunComplete(fetcher.Summary{Failed: 2}))
}
