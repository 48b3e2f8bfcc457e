package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sentrascan/sentra/internal/engine"
	"github.com/sentrascan/sentra/internal/output"
	"github.com/sentrascan/sentra/internal/webscan"
)

var (
	scanTimeoutMS     int
	scanConcurrency   int
	scanPorts         string
	scanChecks        []string
	scanFrameworks    []string
	scanFormat        string
	scanComprehensive bool
	scanPDF           bool
	scanPing          bool
	scanOutputFile    string

	authType     string
	authUsername string
	authPassword string
	authLoginURL string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a security scan against a network range or web application",
}

var scanNetworkCmd = &cobra.Command{
	Use:   "network <target>",
	Short: "Discover hosts, scan ports and fingerprint services on an IP, hostname or CIDR",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyConfigDefaults(cmd)
		return runScan(cmd, engine.Request{
			Target:      args[0],
			TimeoutMS:   scanTimeoutMS,
			Concurrency: scanConcurrency,
			Ports:       scanPorts,
			Frameworks:  scanFrameworks,
			PingEnabled: scanPing,
		})
	},
}

var scanWebCmd = &cobra.Command{
	Use:   "web <url>",
	Short: "Crawl a web application and run vulnerability checks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyConfigDefaults(cmd)
		req := engine.Request{
			Target:     args[0],
			TimeoutMS:  scanTimeoutMS,
			Checks:     scanChecks,
			Frameworks: scanFrameworks,
		}
		if authUsername != "" {
			req.Credentials = &webscan.Credentials{
				Type:     webscan.AuthType(authType),
				Username: authUsername,
				Password: authPassword,
				LoginURL: authLoginURL,
			}
		}
		return runScan(cmd, req)
	},
}

func runScan(cmd *cobra.Command, req engine.Request) error {
	printer := newProgressPrinter()
	printer.Start()
	defer printer.Stop()

	e := engine.New(logger, printer.Listen)
	result, err := e.Run(cmd.Context(), req)
	if err != nil {
		return err
	}
	printer.Stop()

	printSummary(result)

	path := scanOutputFile
	if path == "" {
		path = filepath.Join(resultsDir, fmt.Sprintf("scan_%s.%s", time.Now().UTC().Format("20060102T150405"), scanFormat))
	}
	opts := output.Options{Format: scanFormat, Comprehensive: scanComprehensive}
	if err := output.WriteFile(path, result, opts); err != nil {
		return err
	}
	fmt.Printf("Results written to %s\n", path)

	if scanPDF {
		pdfPath := path[:len(path)-len(filepath.Ext(path))] + ".pdf"
		f, err := os.Create(pdfPath)
		if err != nil {
			return fmt.Errorf("creating PDF report: %w", err)
		}
		if err := output.WritePDF(f, result); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("PDF report written to %s\n", pdfPath)
	}
	return nil
}

func printSummary(result *engine.Result) {
	findings := result.Findings()
	fmt.Printf("\nScan %s (%s) finished: %d finding(s)\n", result.ScanID, result.Kind, len(findings))
	for _, f := range findings {
		fmt.Printf("  [%s] %s\n", formatSeverityWithColor(string(f.Severity)), f.Name)
	}
	for _, a := range result.Assessments {
		fmt.Printf("Compliance %s %s: %.1f (%s)\n",
			a.Name, a.Version, a.Score, formatComplianceWithColor(string(a.Status)))
	}
}

func init() {
	scanCmd.PersistentFlags().IntVar(&scanTimeoutMS, "timeout", 5000, "per-operation timeout in milliseconds")
	scanCmd.PersistentFlags().StringSliceVar(&scanFrameworks, "frameworks", nil, "compliance frameworks to assess (e.g. pci-dss,hipaa)")
	scanCmd.PersistentFlags().StringVar(&scanFormat, "format", "json", "result format: json or csv")
	scanCmd.PersistentFlags().BoolVar(&scanComprehensive, "comprehensive", false, "include full evidence and control detail in results")
	scanCmd.PersistentFlags().BoolVar(&scanPDF, "pdf", false, "also write a PDF report")
	scanCmd.PersistentFlags().StringVar(&scanOutputFile, "output", "", "result file path (default under results dir)")

	scanNetworkCmd.Flags().IntVarP(&scanConcurrency, "concurrency", "c", 0, "probe workers (1-500, default 50)")
	scanNetworkCmd.Flags().StringVarP(&scanPorts, "ports", "p", "", "port spec, e.g. 22,80,8000-8100 (default common ports)")
	scanNetworkCmd.Flags().BoolVar(&scanPing, "ping", true, "use ICMP ping for host discovery before TCP fallback")

	scanWebCmd.Flags().StringSliceVar(&scanChecks, "checks", nil, "vulnerability checks to run (default all)")
	scanWebCmd.Flags().StringVar(&authType, "auth-type", "form", "authentication type: basic or form")
	scanWebCmd.Flags().StringVar(&authUsername, "username", "", "username for authenticated scanning")
	scanWebCmd.Flags().StringVar(&authPassword, "password", "", "password for authenticated scanning")
	scanWebCmd.Flags().StringVar(&authLoginURL, "login-url", "", "login form URL (defaults to the target)")

	scanCmd.AddCommand(scanNetworkCmd)
	scanCmd.AddCommand(scanWebCmd)
}
