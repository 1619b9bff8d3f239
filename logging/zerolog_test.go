package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestZerologAdapter_LogsWithKeyvals(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewZerologAdapter(zerolog.New(&buf))

	adapter.Info(context.Background(), "dispatch handled", "v", 5, "type", "hi")

	out := buf.String()
	if !strings.Contains(out, `"message":"dispatch handled"`) {
		t.Errorf("output missing message field: %s", out)
	}
	if !strings.Contains(out, `"v":5`) {
		t.Errorf("output missing v keyval: %s", out)
	}
	if !strings.Contains(out, `"type":"hi"`) {
		t.Errorf("output missing type keyval: %s", out)
	}
}

func TestZerologAdapter_OddKeyvalsIgnoresTrailingKey(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewZerologAdapter(zerolog.New(&buf))

	adapter.Error(context.Background(), "boom", "orphan")

	out := buf.String()
	if !strings.Contains(out, `"message":"boom"`) {
		t.Errorf("output missing message field: %s", out)
	}
	if strings.Contains(out, "orphan") {
		t.Errorf("trailing unpaired key leaked into output: %s", out)
	}
}
