/*
Package main is the entry point for the lookalike command-line application.

lookalike is a bulk DNS/WHOIS reconnaissance tool for investigating
look-alike (typosquatting/phishing) domain registrations. Its two pipelines
are:
  - `collect`: read a CSV of domains and write a WHOIS + DNS report per
    domain ("Domain,Information" rows).
  - `tldscan`: read a line-delimited domain list, strip each input to its
    base name via the public suffix list, and probe that base across a
    catalog of TLDs, writing one detail row per variant.

The application uses the Cobra library for command-line interface structure
and flag parsing. It leverages several internal packages:
  - `internal/dnsx` and `internal/whoisx`: categorized DNS and WHOIS lookups.
  - `internal/engine`: a key-sharded worker pool with per-worker politeness
    pacing.
  - `internal/sink`: flush-per-row CSV output.
  - `internal/metrics`: optional Prometheus metrics.

Both pipelines pace their queries (one per delay per worker) and keep going
through per-domain failures; graceful shutdown is handled via context
cancellation triggered by OS signals (SIGINT, SIGTERM).
*/
package main

/*
lookalike — bulk DNS/WHOIS reconnaissance for look-alike domains
Copyright (C) 2026  Marit Deelstra <lookalike@driftsec.dev>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/driftsec/lookalike/internal/collect"
	"github.com/driftsec/lookalike/internal/dnsx"
	"github.com/driftsec/lookalike/internal/engine"
	"github.com/driftsec/lookalike/internal/metrics"
	"github.com/driftsec/lookalike/internal/sink"
	"github.com/driftsec/lookalike/internal/tldscan"
	"github.com/driftsec/lookalike/internal/whoisx"
)

// Global flags (persistent across commands)
var (
	metricsPort int
	showStats   bool
)

// Flags shared by the collect and tldscan commands
var (
	inputPath    string
	outputPath   string
	workers      int
	delay        time.Duration
	dnsTimeout   time.Duration
	whoisTimeout time.Duration
	tldsFile     string
)

var rootCmd = &cobra.Command{
	Use:   "lookalike",
	Short: "lookalike - bulk DNS/WHOIS reconnaissance for look-alike domains",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if metricsPort > 0 {
			metrics.EnableMetrics()
			if err := metrics.StartMetricsServer(fmt.Sprintf(":%d", metricsPort)); err != nil {
				log.Printf("Failed to start metrics server: %v", err)
			}
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if metrics.IsMetricsEnabled() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metrics.ShutdownMetricsServer(ctx); err != nil {
				log.Printf("Metrics server shutdown error: %v", err)
			}
		}
	},
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect WHOIS and DNS details for a CSV of domains",
	Long: `Reads domains from the first column of the input CSV and writes one
"Domain,Information" row per input row. The Information cell is a multi-line
WHOIS + DNS (A/AAAA, MX) report; per-domain failures are reported in the cell
instead of aborting the run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCollect()
	},
}

var tldscanCmd = &cobra.Command{
	Use:   "tldscan",
	Short: "Probe each input's base name across a catalog of TLDs",
	Long: `Reads one domain per line, extracts the base name in front of the
public suffix (sub.example.co.uk -> sub.example), and checks every base+TLD
combination with DNS (A/AAAA, NS, MX) and WHOIS. Output is one CSV row per
variant. WHOIS is skipped for variants whose address and NS lookups both
answer NXDOMAIN.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTLDScan()
	},
}

var tldsCmd = &cobra.Command{
	Use:   "tlds",
	Short: "Print the TLD catalog the tldscan command would use",
	RunE: func(cmd *cobra.Command, args []string) error {
		tlds, err := resolveCatalog()
		if err != nil {
			return err
		}
		for _, tld := range tlds {
			fmt.Println(tld)
		}
		fmt.Printf("%d TLDs\n", len(tlds))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().IntVar(&metricsPort, "metrics-port", 0, "Prometheus metrics port (0 disables metrics)")
	rootCmd.PersistentFlags().BoolVarP(&showStats, "stats", "s", true, "Show statistics during processing")

	collectCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input CSV file (domains in the first column)")
	collectCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output CSV file (.gz for compression)")
	collectCmd.Flags().IntVarP(&workers, "workers", "w", 1, "Concurrent lookup workers (1 = strictly sequential)")
	collectCmd.Flags().DurationVar(&delay, "delay", 750*time.Millisecond, "Politeness delay between queries per worker")
	collectCmd.Flags().DurationVar(&dnsTimeout, "dns-timeout", 3*time.Second, "Timeout per DNS query")
	collectCmd.Flags().DurationVar(&whoisTimeout, "whois-timeout", 10*time.Second, "Timeout per WHOIS query")

	tldscanCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input file (one domain per line)")
	tldscanCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output CSV file (.gz for compression)")
	tldscanCmd.Flags().IntVarP(&workers, "workers", "w", 1, "Concurrent lookup workers (1 = strictly sequential)")
	tldscanCmd.Flags().DurationVar(&delay, "delay", 800*time.Millisecond, "Politeness delay between variants per worker")
	tldscanCmd.Flags().DurationVar(&dnsTimeout, "dns-timeout", 2500*time.Millisecond, "Timeout per DNS query")
	tldscanCmd.Flags().DurationVar(&whoisTimeout, "whois-timeout", 10*time.Second, "Timeout per WHOIS query")
	tldscanCmd.Flags().StringVar(&tldsFile, "tlds-file", "", "File with TLDs to check, one per line (default: built-in catalog)")

	tldsCmd.Flags().StringVar(&tldsFile, "tlds-file", "", "File with TLDs to check, one per line (default: built-in catalog)")

	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(tldscanCmd)
	rootCmd.AddCommand(tldsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// promptIfEmpty keeps the interactive workflow: missing paths are asked for
// on stdin instead of failing, so the tool stays usable without flags.
func promptIfEmpty(value *string, prompt string) error {
	if *value != "" {
		return nil
	}
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading path from stdin: %w", err)
	}
	*value = strings.TrimSpace(input)
	if *value == "" {
		return fmt.Errorf("no path given")
	}
	return nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v, initiating shutdown...", sig)
		cancel()
	}()
	return ctx, cancel
}

// displayStats updates a single progress line every 2 seconds until ctx ends.
func displayStats(ctx context.Context, progress func() string) {
	ticker := time.NewTicker(time.Second * 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fmt.Printf("\r%s", progress())
		case <-ctx.Done():
			fmt.Println()
			return
		}
	}
}

func resolveCatalog() ([]string, error) {
	if tldsFile != "" {
		return tldscan.LoadCatalog(tldsFile)
	}
	return tldscan.NormalizeCatalog(tldscan.DefaultTLDs), nil
}

// runCollect is the handler for the 'collect' command.
func runCollect() error {
	if err := promptIfEmpty(&inputPath, "Enter the path to your input CSV file (e.g., domains.csv): "); err != nil {
		return err
	}
	if err := promptIfEmpty(&outputPath, "Enter the desired path for your output CSV file (e.g., domain_details.csv): "); err != nil {
		return err
	}
	log.Printf("Starting collection: input='%s', output='%s', workers=%d, delay=%v",
		inputPath, outputPath, workers, delay)

	input, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("opening input file: %w", err)
	}
	defer input.Close()

	out, err := sink.NewCSV(outputPath, collect.Header)
	if err != nil {
		return err
	}
	defer out.Close()

	ctx, cancel := signalContext()
	defer cancel()

	pool := engine.NewPool(ctx, workers, delay)
	defer pool.Shutdown()

	pipeline := &collect.Pipeline{
		DNS:   dnsx.NewResolver(dnsx.DefaultConfig(dnsTimeout)),
		Whois: whoisx.NewClient(whoisTimeout),
		Out:   out,
		Pool:  pool,
		Stats: collect.NewStats(),
	}

	var statsWg sync.WaitGroup
	if showStats {
		statsWg.Add(1)
		go func() {
			defer statsWg.Done()
			displayStats(ctx, pipeline.Stats.Progress)
		}()
	}

	runErr := pipeline.Run(ctx, input)
	cancel()
	statsWg.Wait()

	fmt.Printf("\n--- Final Collection Statistics ---\n%s\n", pipeline.Stats.Summary())
	if closeErr := out.Close(); closeErr != nil && runErr == nil {
		runErr = closeErr
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	log.Printf("Results saved to %s", outputPath)
	return nil
}

// runTLDScan is the handler for the 'tldscan' command.
func runTLDScan() error {
	if err := promptIfEmpty(&inputPath, "Enter the path to your input file (one domain per line): "); err != nil {
		return err
	}
	if err := promptIfEmpty(&outputPath, "Enter the path for your output CSV file: "); err != nil {
		return err
	}

	tlds, err := resolveCatalog()
	if err != nil {
		return err
	}
	log.Printf("Starting TLD scan: input='%s', output='%s', tlds=%d, workers=%d, delay=%v",
		inputPath, outputPath, len(tlds), workers, delay)

	input, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("opening input file: %w", err)
	}
	defer input.Close()

	out, err := sink.NewCSV(outputPath, tldscan.Header)
	if err != nil {
		return err
	}
	defer out.Close()

	ctx, cancel := signalContext()
	defer cancel()

	pool := engine.NewPool(ctx, workers, delay)
	defer pool.Shutdown()

	pipeline := &tldscan.Pipeline{
		DNS:   dnsx.NewResolver(dnsx.DefaultConfig(dnsTimeout)),
		Whois: whoisx.NewClient(whoisTimeout),
		Out:   out,
		Pool:  pool,
		Stats: tldscan.NewStats(),
		TLDs:  tlds,
	}

	var statsWg sync.WaitGroup
	if showStats {
		statsWg.Add(1)
		go func() {
			defer statsWg.Done()
			displayStats(ctx, pipeline.Stats.Progress)
		}()
	}

	runErr := pipeline.Run(ctx, input)
	cancel()
	statsWg.Wait()

	fmt.Printf("\n--- Final TLD Scan Statistics ---\n%s\n", pipeline.Stats.Summary())
	if closeErr := out.Close(); closeErr != nil && runErr == nil {
		runErr = closeErr
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	log.Printf("Results saved to %s", outputPath)
	return nil
}
