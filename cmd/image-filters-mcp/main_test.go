package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ironsheep/image-filters-mcp/internal/filters"
)

func TestPrintUsage_ListsFilters(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf)
	out := buf.String()

	for _, name := range filters.Names() {
		if !strings.Contains(out, name) {
			t.Errorf("usage does not mention filter %q", name)
		}
	}
	if !strings.Contains(out, "image_filter") {
		t.Error("usage does not mention the image_filter tool")
	}
	if !strings.Contains(out, logLevelEnv) {
		t.Errorf("usage does not mention %s", logLevelEnv)
	}
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	printVersion(&buf)
	if !strings.HasPrefix(buf.String(), "image-filters-mcp "+Version) {
		t.Errorf("version output: got %q", buf.String())
	}
}
