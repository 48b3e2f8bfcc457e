package cmd

import (
	"strings"

	"github.com/fatih/color"
)

var (
	colorCritical = color.New(color.FgRed, color.Bold).SprintFunc()
	colorHigh     = color.New(color.FgRed).SprintFunc()
	colorMedium   = color.New(color.FgYellow).SprintFunc()
	colorLow      = color.New(color.FgCyan).SprintFunc()
	colorGood     = color.New(color.FgGreen).SprintFunc()
)

func formatSeverityWithColor(severity string) string {
	switch strings.ToLower(severity) {
	case "critical":
		return colorCritical(severity)
	case "high":
		return colorHigh(severity)
	case "medium":
		return colorMedium(severity)
	case "low":
		return colorLow(severity)
	default:
		return severity
	}
}

func formatComplianceWithColor(status string) string {
	switch strings.ToLower(status) {
	case "compliant", "passed":
		return colorGood(status)
	case "partially-compliant", "partial":
		return colorMedium(status)
	case "non-compliant", "failed":
		return colorHigh(status)
	default:
		return status
	}
}
