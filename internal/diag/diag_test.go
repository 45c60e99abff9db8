package diag_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kestrel-systems/procwatch/internal/diag"
)

func TestDumpFatalWalksWrappedChain(t *testing.T) {
	base := errors.New("fcntl failed")
	wrapped := fmt.Errorf("arming self-pipe: %w", base)

	var buf bytes.Buffer
	diag.DumpFatal(&buf, "supervisor init", wrapped)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "[SYSTEM] fatal: supervisor init: arming self-pipe: fcntl failed\n"))
	assert.Contains(t, out, "arming self-pipe")
	assert.Contains(t, out, "fcntl failed")
}

func TestDumpFatalHandlesUnwrappedError(t *testing.T) {
	var buf bytes.Buffer
	diag.DumpFatal(&buf, "pipe", errors.New("boom"))

	assert.Contains(t, buf.String(), "[SYSTEM] fatal: pipe: boom")
}
