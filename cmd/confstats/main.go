// Command confstats summarizes a confidence log and suggests values for
// early_stop_threshold and min_cache_confidence.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"map-helper/internal/config"
	"map-helper/internal/conflog"
)

func main() {
	configPath := flag.String("c", "", "Configuration file (defaults to the user config)")
	flag.Parse()

	cfg, _, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logPath := cfg.ConfidenceLog
	if flag.NArg() > 0 {
		logPath = flag.Arg(0)
	}

	f, err := os.Open(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s not found. Run detection first to generate logs.\n", logPath)
		os.Exit(1)
	}
	samples, skipped, err := conflog.Parse(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(samples) == 0 {
		fmt.Println("No confidence data found in log file.")
		return
	}

	current := conflog.Thresholds{
		EarlyStop:          cfg.EarlyStopThreshold,
		MinCacheConfidence: cfg.MinCacheConfidence,
	}
	report := conflog.Analyze(samples, current)

	fmt.Println("=== Confidence score analysis ===")
	if skipped > 0 {
		fmt.Printf("(%d malformed lines skipped)\n", skipped)
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Group", "Count", "Min", "Max", "Avg", "P25", "Median", "P75", "P90"})
	tw.AppendRow(statsRow("all", report.Overall))
	tw.AppendSeparator()
	for _, k := range conflog.Keys(report.ByKind) {
		tw.AppendRow(statsRow(k, report.ByKind[k]))
	}
	tw.AppendSeparator()
	for _, m := range conflog.Keys(report.ByMap) {
		tw.AppendRow(statsRow(m, report.ByMap[m]))
	}
	fmt.Println(tw.Render())

	fmt.Println("\n=== Recommendations ===")
	fmt.Printf("early_stop_threshold = %d   # P75, currently %d\n", report.Suggested.EarlyStop, current.EarlyStop)
	fmt.Printf("min_cache_confidence = %d   # P25, currently %d\n", report.Suggested.MinCacheConfidence, current.MinCacheConfidence)
	for _, w := range report.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
}

func statsRow(name string, s conflog.Stats) table.Row {
	pct := func(v int) string { return strconv.Itoa(v) + "%" }
	return table.Row{name, s.Count, pct(s.Min), pct(s.Max), pct(s.Mean), pct(s.P25), pct(s.Median), pct(s.P75), pct(s.P90)}
}
