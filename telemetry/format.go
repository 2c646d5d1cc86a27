package telemetry

import (
	"fmt"
	"io"
	"time"
)

// formatTimingTree outputs the timing tree in a hierarchical format.
// Example output:
//
//	book main.ledger: 125ms
//	├─ loader.load: 85ms
//	│  ├─ parse main.ledger: 45ms
//	│  └─ parse accounts.ledger: 5ms
//	└─ ledger.booking (412 directives): 40ms
func formatTimingTree(w io.Writer, root *timerNode) {
	duration := root.end.Sub(root.start)
	_, _ = fmt.Fprintf(w, "%s: %s\n", root.name, formatDuration(duration))

	for i, child := range root.children {
		isLast := i == len(root.children)-1
		formatNode(w, child, "", isLast)
	}
}

// formatNode recursively formats a node and its children.
func formatNode(w io.Writer, node *timerNode, prefix string, isLast bool) {
	duration := node.end.Sub(node.start)

	var branch, extension string
	if isLast {
		branch = "└─ "
		extension = "   "
	} else {
		branch = "├─ "
		extension = "│  "
	}

	_, _ = fmt.Fprintf(w, "%s%s%s: %s\n", prefix, branch, node.name, formatDuration(duration))

	childPrefix := prefix + extension
	for i, child := range node.children {
		childIsLast := i == len(node.children)-1
		formatNode(w, child, childPrefix, childIsLast)
	}
}

// formatDuration formats a duration for display.
// Shows milliseconds for < 1s, seconds for >= 1s.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		ms := float64(d) / float64(time.Millisecond)
		return fmt.Sprintf("%.0fms", ms)
	}
	s := float64(d) / float64(time.Second)
	return fmt.Sprintf("%.2fs", s)
}
