package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/sentrascan/sentra/internal/compliance"
	"github.com/sentrascan/sentra/internal/webscan"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "List available vulnerability checks and compliance frameworks",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("sentra %s (%s/%s)\n\n", Version, runtime.GOOS, runtime.GOARCH)
		fmt.Printf("Results directory: %s\n\n", resultsDir)

		fmt.Println("Web vulnerability checks (in execution order):")
		for _, name := range webscan.CheckNames() {
			fmt.Printf("  %s\n", name)
		}

		fmt.Println("\nCompliance frameworks:")
		for _, id := range compliance.FrameworkIDs() {
			fw, err := compliance.FrameworkByID(id)
			if err != nil {
				return err
			}
			fmt.Printf("  %-12s %s %s (%d controls)\n", fw.ID, fw.Name, fw.Version, len(fw.Controls))
		}
		return nil
	},
}
