// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
)

// LogRecord is one decoded JSON log line. Standard keys are "level"
// and "msg"; attributes appear under their own keys.
type LogRecord map[string]any

// Message returns the record's "msg" field.
func (r LogRecord) Message() string {
	message, _ := r["msg"].(string)
	return message
}

// CaptureLogger returns a debug-level logger that writes JSON lines to
// memory, and a function that decodes every record written so far.
//
//	logger, records := testutil.CaptureLogger(t)
//	... exercise code with logger ...
//	for _, record := range records() {
//		if record.Message() == "slow statement batch" { ... }
//	}
func CaptureLogger(t *testing.T) (*slog.Logger, func() []LogRecord) {
	t.Helper()
	buffer := &lockedBuffer{}
	logger := slog.New(slog.NewJSONHandler(buffer, &slog.HandlerOptions{Level: slog.LevelDebug}))

	records := func() []LogRecord {
		t.Helper()
		var decoded []LogRecord
		scanner := bufio.NewScanner(bytes.NewReader(buffer.snapshot()))
		for scanner.Scan() {
			var record LogRecord
			if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
				t.Fatalf("decoding log line %q: %v", scanner.Text(), err)
			}
			decoded = append(decoded, record)
		}
		return decoded
	}
	return logger, records
}

type lockedBuffer struct {
	mu     sync.Mutex
	buffer bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.Write(p)
}

func (b *lockedBuffer) snapshot() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buffer.Bytes())
}
