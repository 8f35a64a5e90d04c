package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func (g *Generator) generateTextReport(ctx context.Context, outputDir string, hours int) error {
	filename := filepath.Join(outputDir, "summary.txt")
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintf(file, "Server Discovery Report\n")
	fmt.Fprintf(file, "Generated: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(file, "Period: Last %d hours\n\n", hours)
	fmt.Fprintln(file, strings.Repeat("=", 60))

	fmt.Fprintln(file, "\nCATALOG")

	counts, err := g.db.CountByStatus(ctx)
	if err != nil {
		return err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	fmt.Fprintf(file, "Cataloged servers: %d\n", total)
	for status, n := range counts {
		fmt.Fprintf(file, "  %s: %d\n", status, n)
	}

	fmt.Fprintln(file)
	fmt.Fprintln(file, strings.Repeat("=", 60))
	fmt.Fprintln(file, "\nSCAN ACTIVITY")

	points, err := g.db.DiscoveryCounts(ctx, hours)
	if err != nil {
		return err
	}
	var probed, reachable int
	for _, p := range points {
		probed += p.Probed
		reachable += p.Reachable
	}
	fmt.Fprintf(file, "Probes completed: %d\n", probed)
	fmt.Fprintf(file, "Servers reached: %d\n", reachable)
	if probed > 0 {
		fmt.Fprintf(file, "Hit rate: %.4f%%\n", float64(reachable)/float64(probed)*100)
	}

	fmt.Fprintln(file, "\nMOST RECENTLY SEEN")

	servers, err := g.db.ListServers(ctx, 20)
	if err != nil {
		return err
	}
	for _, s := range servers {
		fmt.Fprintf(file, "%s  %s  %d/%d players  [%s]  seen %s\n",
			s.Target.Addr(), s.VersionName, s.Online, s.MaxPlayers,
			s.LastStatus, s.LastSeen.Format("2006-01-02 15:04:05"))
	}

	fmt.Fprintln(file, strings.Repeat("=", 60))
	return nil
}
