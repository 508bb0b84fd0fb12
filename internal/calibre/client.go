package calibre

import (
	"context"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zvirja/kindler-bot/internal/config"
)

// Result reports the outcome of a single Calibre operation. Callers only
// inspect the success flag and the error text for display.
type Result struct {
	Err string
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool {
	return r.Err == ""
}

func failed(err string) Result {
	return Result{Err: err}
}

// BookInfo is the metadata extracted from an e-book file.
type BookInfo struct {
	Title  string
	Author string
}

// Client provides high-level Calibre operations on top of an Exec.
type Client struct {
	exec Exec
	smtp config.SMTPConfig
	log  *slog.Logger
}

// NewClient creates a Calibre client.
func NewClient(exec Exec, smtp config.SMTPConfig, logger *slog.Logger) *Client {
	return &Client{exec: exec, smtp: smtp, log: logger}
}

// GetBookInfo reads the title and author from an e-book file. Calibre may
// report both values and an error for some formats (PDF notably), so partial
// metadata still counts as success.
func (c *Client) GetBookInfo(ctx context.Context, path string) (BookInfo, Result) {
	exitCode, output, err := c.exec.Run(ctx, ToolMeta, []string{path})
	if err != nil {
		return BookInfo{}, failed(err.Error())
	}

	const unknown = "<unknown>"

	title := keyedValue("Title", output)
	author := keyedValue("Author(s)", output)
	if title != "" || author != "" {
		return BookInfo{Title: orDefault(title, unknown), Author: orDefault(author, unknown)}, Result{}
	}

	if cliErr := calibreError(output); exitCode != 0 || cliErr != "" {
		c.log.Warn("get book info failed", "exit_code", exitCode, "output", output)
		return BookInfo{}, failed(orDefault(cliErr, "Calibre exited with error code"))
	}

	return BookInfo{Title: unknown, Author: unknown}, Result{}
}

// ExportCover extracts the book cover image into coverPath.
func (c *Client) ExportCover(ctx context.Context, path, coverPath string) Result {
	exitCode, output, err := c.exec.Run(ctx, ToolMeta, []string{path, "--get-cover", coverPath})
	if err != nil {
		return failed(err.Error())
	}

	if cliErr := calibreError(output); exitCode != 0 || cliErr != "" {
		c.log.Warn("export cover failed", "exit_code", exitCode, "output", output)
		return failed(orDefault(cliErr, "Calibre exited with error code"))
	}

	for _, line := range output {
		if strings.Contains(line, "No cover found") {
			return failed("No cover found")
		}
	}

	if len(output) == 0 || !strings.HasPrefix(output[len(output)-1], "Cover saved to") {
		return failed("Cover was not saved")
	}

	return Result{}
}

// ConvertBook converts the source file to the destination format, tuned for
// Kindle output.
func (c *Client) ConvertBook(ctx context.Context, srcPath, dstPath string) Result {
	exitCode, output, err := c.exec.Run(ctx, ToolConvert, []string{srcPath, dstPath, "--output-profile", "kindle"})
	if err != nil {
		return failed(err.Error())
	}

	if cliErr := calibreError(output); exitCode != 0 || cliErr != "" {
		c.log.Warn("convert book failed", "exit_code", exitCode, "output", output)
		return failed(orDefault(cliErr, "Calibre exited with error code"))
	}

	return Result{}
}

// SendByEmail mails the file as an attachment through calibre-smtp using the
// configured relay.
func (c *Client) SendByEmail(ctx context.Context, path, email string) Result {
	fileName := filepath.Base(path)

	exitCode, output, err := c.exec.Run(ctx, ToolSMTP, []string{
		"--subject", fileName,
		"--attachment", path,
		"--relay", c.smtp.RelayServer,
		"--port", strconv.Itoa(c.smtp.Port),
		"--encryption-method", c.smtp.Encryption,
		"--username", c.smtp.Username,
		"--password", c.smtp.Password,
		c.smtp.FromEmail,
		email,
		"Send to kindle",
	})
	if err != nil {
		return failed(err.Error())
	}

	var cliErr string
	for _, line := range output {
		if strings.Contains(line, "Error") {
			parts := strings.SplitN(line, ":", 2)
			cliErr = strings.TrimSpace(parts[len(parts)-1])
		}
	}
	if exitCode != 0 || cliErr != "" {
		c.log.Warn("send by email failed", "exit_code", exitCode, "output", output)
		return failed(orDefault(cliErr, "Calibre exited with error code"))
	}

	return Result{}
}

// keyedValue extracts "value" from the first "Key : value" output line.
func keyedValue(key string, output []string) string {
	for _, line := range output {
		if strings.HasPrefix(line, key) {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) == 2 {
				return strings.TrimSpace(parts[1])
			}
		}
	}
	return ""
}

// calibreError extracts the error text Calibre reports on its output.
func calibreError(output []string) string {
	return keyedValue("ValueError", output)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
