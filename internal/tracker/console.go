package tracker

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/statuswatch/statuswatch/internal/incident"
)

const ruleWidth = 60

// Notifier receives incidents reported by the live loop.
type Notifier interface {
	// Startup is called once per feed with its most recent entry when the
	// baseline is taken.
	Startup(feedName string, inc incident.Incident) error

	// Incident is called for every newly observed incident.
	Incident(feedName string, inc incident.Incident) error
}

// ConsoleNotifier prints incidents as human-readable blocks.
type ConsoleNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

var _ Notifier = (*ConsoleNotifier)(nil)

// NewConsoleNotifier writes to w.
func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{w: w}
}

// Startup prints the startup header followed by the incident.
func (c *ConsoleNotifier) Startup(feedName string, inc incident.Incident) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	bw := bufio.NewWriter(c.w)
	fmt.Fprintf(bw, "\n[%s] Latest incident at startup:\n", feedName)
	writeIncident(bw, inc)
	return bw.Flush()
}

// Incident prints one incident block.
func (c *ConsoleNotifier) Incident(_ string, inc incident.Incident) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	bw := bufio.NewWriter(c.w)
	writeIncident(bw, inc)
	return bw.Flush()
}

func writeIncident(w io.Writer, inc incident.Incident) {
	style := incident.StyleLive
	fmt.Fprintf(w, "\n[%s] Incident: %s\n", style.Timestamp(inc.Timestamp), inc.Title)
	fmt.Fprintf(w, "Status: %s\n", style.Status(inc))
	if msg := style.Message(inc); msg != "" {
		fmt.Fprintf(w, "Message: %s\n", msg)
	}
	if len(inc.AffectedProducts) > 0 {
		fmt.Fprintf(w, "Affected Products: %s\n", strings.Join(inc.AffectedProducts, ", "))
	}
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
}

// Banner prints the tracker header: title, one line per feed and the interval.
func Banner(w io.Writer, title string, feeds []string, interval time.Duration) error {
	bw := bufio.NewWriter(w)
	rule := strings.Repeat("=", ruleWidth)
	fmt.Fprintln(bw, rule)
	fmt.Fprintln(bw, title)
	for _, f := range feeds {
		fmt.Fprintf(bw, "Feed: %s\n", f)
	}
	fmt.Fprintf(bw, "Interval: %ds\n", int(interval.Seconds()))
	fmt.Fprintln(bw, rule)
	return bw.Flush()
}
