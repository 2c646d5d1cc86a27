package telemetry

import (
	"context"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestTimingCollector_Hierarchy(t *testing.T) {
	collector := NewTimingCollector()

	root := collector.Start("book main.ledger")
	child := root.Child("loader.load")
	grandchild := child.Child("parse main.ledger")
	grandchild.End()
	child.End()
	sibling := root.Child("ledger.booking")
	sibling.End()
	root.End()

	var sb strings.Builder
	collector.Report(&sb)
	out := sb.String()

	assert.Contains(t, out, "book main.ledger")
	assert.Contains(t, out, "├─ loader.load")
	assert.Contains(t, out, "│  └─ parse main.ledger")
	assert.Contains(t, out, "└─ ledger.booking")
}

func TestTimingCollector_EmptyReport(t *testing.T) {
	collector := NewTimingCollector()

	var sb strings.Builder
	collector.Report(&sb)
	assert.Equal(t, "", sb.String())
}

func TestFromContext_Noop(t *testing.T) {
	// Without a collector in the context, timers are no-ops.
	ctx := context.Background()
	timer := StartTimer(ctx, "anything")
	timer.Child("nested").End()
	timer.End()
}

func TestStartTimer_UsesRootTimer(t *testing.T) {
	collector := NewTimingCollector()
	ctx := WithCollector(context.Background(), collector)

	root := collector.Start("root")
	ctx = WithRootTimer(ctx, root)

	nested := StartTimer(ctx, "nested")
	nested.End()
	root.End()

	var sb strings.Builder
	collector.Report(&sb)
	assert.Contains(t, sb.String(), "└─ nested")
}

func TestStartTimer_FallsBackToCollector(t *testing.T) {
	collector := NewTimingCollector()
	ctx := WithCollector(context.Background(), collector)

	timer := StartTimer(ctx, "solo")
	timer.End()

	var sb strings.Builder
	collector.Report(&sb)
	assert.Contains(t, sb.String(), "solo")
}
