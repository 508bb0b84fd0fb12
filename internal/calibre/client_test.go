package calibre

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zvirja/kindler-bot/internal/config"
)

// fakeExec replays canned output and records the invocation.
type fakeExec struct {
	exitCode int
	output   []string
	err      error

	gotTool Tool
	gotArgs []string
}

func (f *fakeExec) Run(_ context.Context, tool Tool, args []string) (int, []string, error) {
	f.gotTool = tool
	f.gotArgs = args
	return f.exitCode, f.output, f.err
}

func newTestClient(exec *fakeExec) *Client {
	smtp := config.SMTPConfig{
		RelayServer: "smtp.example.com",
		Port:        587,
		Username:    "bot",
		Password:    "secret",
		FromEmail:   "bot@example.com",
		Encryption:  "TLS",
	}
	return NewClient(exec, smtp, slog.Default())
}

func TestGetBookInfo_ParsesTitleAndAuthor(t *testing.T) {
	exec := &fakeExec{output: []string{
		"Title               : The Go Programming Language",
		"Author(s)           : Alan Donovan & Brian Kernighan",
		"Languages           : eng",
	}}
	c := newTestClient(exec)

	info, result := c.GetBookInfo(context.Background(), "/tmp/book.epub")
	require.True(t, result.OK())
	assert.Equal(t, "The Go Programming Language", info.Title)
	assert.Equal(t, "Alan Donovan & Brian Kernighan", info.Author)
	assert.Equal(t, ToolMeta, exec.gotTool)
	assert.Equal(t, []string{"/tmp/book.epub"}, exec.gotArgs)
}

func TestGetBookInfo_PartialMetadataStillSucceeds(t *testing.T) {
	// PDFs often yield a title plus a ValueError on the same run.
	exec := &fakeExec{exitCode: 1, output: []string{
		"Title               : Some PDF",
		"ValueError: Could not read metadata",
	}}
	c := newTestClient(exec)

	info, result := c.GetBookInfo(context.Background(), "/tmp/book.pdf")
	require.True(t, result.OK())
	assert.Equal(t, "Some PDF", info.Title)
	assert.Equal(t, "<unknown>", info.Author)
}

func TestGetBookInfo_ReportsCalibreError(t *testing.T) {
	exec := &fakeExec{exitCode: 1, output: []string{
		"ValueError: Could not read metadata",
	}}
	c := newTestClient(exec)

	_, result := c.GetBookInfo(context.Background(), "/tmp/book.xyz")
	require.False(t, result.OK())
	assert.Equal(t, "Could not read metadata", result.Err)
}

func TestGetBookInfo_NoMetadataAtAllIsUnknown(t *testing.T) {
	exec := &fakeExec{output: []string{"Languages           : eng"}}
	c := newTestClient(exec)

	info, result := c.GetBookInfo(context.Background(), "/tmp/book.txt")
	require.True(t, result.OK())
	assert.Equal(t, "<unknown>", info.Title)
	assert.Equal(t, "<unknown>", info.Author)
}

func TestExportCover(t *testing.T) {
	testCases := []struct {
		name     string
		exitCode int
		output   []string
		wantOK   bool
		wantErr  string
	}{
		{
			name:   "saved",
			output: []string{"Cover saved to /tmp/cover.jpg"},
			wantOK: true,
		},
		{
			name:    "no cover",
			output:  []string{"No cover found"},
			wantErr: "No cover found",
		},
		{
			name:     "calibre error",
			exitCode: 1,
			output:   []string{"ValueError: bad file"},
			wantErr:  "bad file",
		},
		{
			name:    "silent failure",
			output:  []string{},
			wantErr: "Cover was not saved",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			exec := &fakeExec{exitCode: tc.exitCode, output: tc.output}
			c := newTestClient(exec)

			result := c.ExportCover(context.Background(), "/tmp/book.epub", "/tmp/cover.jpg")
			assert.Equal(t, tc.wantOK, result.OK())
			if !tc.wantOK {
				assert.Equal(t, tc.wantErr, result.Err)
			}
			assert.Equal(t, []string{"/tmp/book.epub", "--get-cover", "/tmp/cover.jpg"}, exec.gotArgs)
		})
	}
}

func TestConvertBook(t *testing.T) {
	exec := &fakeExec{output: []string{"EPUB output written to /tmp/book.epub"}}
	c := newTestClient(exec)

	result := c.ConvertBook(context.Background(), "/tmp/book.fb2", "/tmp/book.epub")
	require.True(t, result.OK())
	assert.Equal(t, ToolConvert, exec.gotTool)
	assert.Equal(t, []string{"/tmp/book.fb2", "/tmp/book.epub", "--output-profile", "kindle"}, exec.gotArgs)
}

func TestConvertBook_NonZeroExitFails(t *testing.T) {
	exec := &fakeExec{exitCode: 2, output: []string{"something went wrong"}}
	c := newTestClient(exec)

	result := c.ConvertBook(context.Background(), "/tmp/book.fb2", "/tmp/book.epub")
	require.False(t, result.OK())
	assert.Equal(t, "Calibre exited with error code", result.Err)
}

func TestSendByEmail_PassesRelayConfig(t *testing.T) {
	exec := &fakeExec{}
	c := newTestClient(exec)

	result := c.SendByEmail(context.Background(), "/tmp/book.epub", "reader@kindle.com")
	require.True(t, result.OK())
	assert.Equal(t, ToolSMTP, exec.gotTool)
	assert.Equal(t, []string{
		"--subject", "book.epub",
		"--attachment", "/tmp/book.epub",
		"--relay", "smtp.example.com",
		"--port", "587",
		"--encryption-method", "TLS",
		"--username", "bot",
		"--password", "secret",
		"bot@example.com",
		"reader@kindle.com",
		"Send to kindle",
	}, exec.gotArgs)
}

func TestSendByEmail_SurfacesErrorLine(t *testing.T) {
	exec := &fakeExec{exitCode: 1, output: []string{
		"Error: (535, 'Authentication failed')",
	}}
	c := newTestClient(exec)

	result := c.SendByEmail(context.Background(), "/tmp/book.epub", "reader@kindle.com")
	require.False(t, result.OK())
	assert.Equal(t, "(535, 'Authentication failed')", result.Err)
}
