package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sentrascan/sentra/internal/compliance"
	"github.com/sentrascan/sentra/internal/engine"
)

var complianceFrameworks []string

// complianceCmd re-assesses a previously written comprehensive result
// file, so frameworks can be evaluated without re-running the scan.
var complianceCmd = &cobra.Command{
	Use:   "compliance <result-file>",
	Short: "Assess compliance frameworks against a saved scan result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading result file: %w", err)
		}
		var result engine.Result
		if err := json.Unmarshal(data, &result); err != nil {
			return fmt.Errorf("parsing result file (use a --comprehensive JSON result): %w", err)
		}

		assessments, err := compliance.AssessAll(complianceFrameworks, result.Findings(), nil)
		if err != nil {
			return err
		}

		for _, a := range assessments {
			fmt.Printf("%s %s: %.1f (%s)\n", a.Name, a.Version, a.Score, formatComplianceWithColor(string(a.Status)))
			for _, c := range a.Controls {
				if c.Status == compliance.StatusNotApplicable {
					continue
				}
				fmt.Printf("  %-16s %-8s score %3d  %s\n",
					c.ControlID, formatComplianceWithColor(string(c.Status)), c.Score, c.Requirement)
			}
		}
		return nil
	},
}

func init() {
	complianceCmd.Flags().StringSliceVar(&complianceFrameworks, "frameworks", nil, "frameworks to assess (default all)")
}
