// Package fetch adapts external report fetchers to domain.Fetcher.
//
// The browser session, search and download steps live in a separate
// process. ExecFetcher runs it once per identifier and reads a JSON
// envelope from its stdout: either a parsed extract or a failure.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/vchain/internal/domain"
	"github.com/persistorai/vchain/internal/models"
)

// DefaultTimeout bounds a single fetch when ExecFetcher.Timeout is zero.
const DefaultTimeout = 5 * time.Minute

// maxStderr caps how much stderr is kept for error messages.
const maxStderr = 4096

var _ domain.Fetcher = (*ExecFetcher)(nil)

// ErrNoCommand is returned when no fetch command is configured.
var ErrNoCommand = errors.New("fetch command is not configured")

// envelope is the fetch command's stdout document.
type envelope struct {
	models.Extract
	Failure string `json:"failure,omitempty"`
	Message string `json:"message,omitempty"`
}

// ExecFetcher runs Command with arguments <identifier> <collection>.
type ExecFetcher struct {
	Command    []string
	Collection string
	Timeout    time.Duration
	Log        *logrus.Logger
}

// NewExecFetcher splits command on whitespace and returns a fetcher for collection.
func NewExecFetcher(command, collection string, timeout time.Duration, log *logrus.Logger) (*ExecFetcher, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, ErrNoCommand
	}

	return &ExecFetcher{Command: argv, Collection: collection, Timeout: timeout, Log: log}, nil
}

// FetchReport runs the command for identifier. A failure envelope is
// returned as *models.FetchFailure; stdout that is not an envelope wraps
// models.ErrMalformedExtract; a crash or timeout without an envelope is a
// plain (transient) error.
func (f *ExecFetcher) FetchReport(ctx context.Context, identifier string) (*models.Extract, error) {
	if len(f.Command) == 0 {
		return nil, ErrNoCommand
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(append([]string{}, f.Command[1:]...), identifier, f.Collection)

	cmd := exec.CommandContext(runCtx, f.Command[0], args...) //nolint:gosec // command comes from operator config.
	cmd.Env = append(os.Environ(), "LANG=C.UTF-8", "LC_ALL=C.UTF-8")
	cmd.WaitDelay = time.Second // grandchildren holding stdout must not outlive the kill

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()

	log := f.Log.WithFields(logrus.Fields{
		"identifier": identifier,
		"collection": f.Collection,
		"duration":   time.Since(start),
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("fetching %s: timed out after %s", identifier, timeout)
	}

	var env envelope
	decodeErr := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &env)

	switch {
	case decodeErr == nil && env.Failure != "":
		reason, err := models.ParseReason(env.Failure)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", identifier, err)
		}

		log.WithField("reason", reason).Debug("fetch command reported failure")

		return nil, &models.FetchFailure{Identifier: identifier, Reason: reason, Message: env.Message}
	case runErr != nil:
		return nil, fmt.Errorf("fetching %s: %w: %s", identifier, runErr, tail(stderr.Bytes()))
	case decodeErr != nil:
		return nil, fmt.Errorf("%w: fetching %s: decoding output: %w", models.ErrMalformedExtract, identifier, decodeErr)
	}

	log.WithField("rows", len(env.Rows)).Debug("fetch command returned extract")

	x := env.Extract

	return &x, nil
}

// tail returns the last maxStderr bytes of b, trimmed.
func tail(b []byte) string {
	b = bytes.TrimSpace(b)
	if len(b) > maxStderr {
		b = b[len(b)-maxStderr:]
	}

	return string(b)
}
