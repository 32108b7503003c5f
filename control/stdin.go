package control

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
)

// maxLineBytes bounds a single stdin message.
const maxLineBytes = 1 << 20

// ReadLines reads newline-delimited update messages from r and submits each
// decoded patch to sink. Lines that fail to decode are logged and skipped; a
// line with one bad field still submits the fields that decoded. It returns
// when r reaches EOF, a read fails, or ctx is done between lines.
func ReadLines(ctx context.Context, r io.Reader, sink Sink) error {
	logger := slog.With("component", "control", "transport", "stdin")
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)

	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line++

		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		p, ok, err := decode(data)
		if err != nil {
			logger.Warn("bad settings message", "line", line, "error", err)
		}
		if !ok || p.Empty() {
			continue
		}
		sink.Submit(p)
		logger.Debug("settings patch queued", "line", line, "fields", p.Fields())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	logger.Info("stdin closed", "lines", line)
	return nil
}
