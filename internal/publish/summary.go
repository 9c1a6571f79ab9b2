package publish

import (
	"bufio"
	"fmt"
	"io"

	"github.com/statuswatch/statuswatch/internal/snapshot"
)

// WriteSummary prints the batch report for a published snapshot: one line per
// provider that failed to fetch, one per generated document, then totals.
func WriteSummary(w io.Writer, snap *snapshot.Snapshot) error {
	bw := bufio.NewWriter(w)

	for _, p := range snap.Providers.Providers {
		if ps, ok := snap.Status.Providers[p.Name]; ok && ps.FetchError != "" {
			fmt.Fprintf(bw, "Error fetching %s: %s\n", p.DisplayName, ps.FetchError)
		}
	}

	fmt.Fprintf(bw, "✓ Generated %s\n", ProvidersFile)
	fmt.Fprintf(bw, "✓ Generated %s\n", StatusFile)
	fmt.Fprintf(bw, "✓ Generated %s (%d incidents)\n", IncidentsFile, snap.Incidents.Count)
	fmt.Fprintf(bw, "✓ Generated %s\n", AnalyticsFile)
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "✨ Successfully generated all data files!")
	fmt.Fprintf(bw, "Total providers: %d\n", snap.Providers.Count)
	fmt.Fprintf(bw, "Total incidents: %d\n", snap.Incidents.Count)

	return bw.Flush()
}
