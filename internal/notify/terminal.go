package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// TerminalNotifier prints notifications to a terminal with
// type-coded colors.
type TerminalNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTerminalNotifier creates a notifier writing to stdout.
func NewTerminalNotifier() *TerminalNotifier {
	return &TerminalNotifier{out: os.Stdout}
}

// Send implements Notifier.
func (t *TerminalNotifier) Send(_ context.Context, n Notification) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	ts := n.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	var paint *color.Color
	switch n.Type {
	case NotificationTrade:
		paint = color.New(color.FgGreen, color.Bold)
	case NotificationRisk:
		paint = color.New(color.FgYellow, color.Bold)
	case NotificationError:
		paint = color.New(color.FgRed, color.Bold)
	default:
		paint = color.New(color.FgCyan)
	}

	fmt.Fprintf(t.out, "[%s] %s %s\n",
		ts.Format("15:04:05"),
		paint.Sprintf("%-6s", string(n.Type)),
		n.Title,
	)
	if n.Message != "" {
		fmt.Fprintf(t.out, "         %s\n", n.Message)
	}
	for key, value := range n.Data {
		fmt.Fprintf(t.out, "         %s: %v\n", key, value)
	}
	return nil
}
