package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"ThreatMonitor/internal/domain"
)

const previewRunes = 100

var (
	heavyRule = strings.Repeat("=", 60)
	lightRule = strings.Repeat("-", 60)
)

// FormatReport renders the operator-facing threat analysis text.
func FormatReport(report domain.RunReport) string {
	if report.Failed() {
		return "Monitoring error: " + report.Error
	}

	var b strings.Builder
	b.WriteString("THREAT ANALYSIS SUMMARY\n")
	b.WriteString(heavyRule + "\n")
	fmt.Fprintf(&b, "Timestamp: %s\n", report.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Total Entries: %d\n", report.TotalCount)
	fmt.Fprintf(&b, "Suspicious Content: %d\n", report.SuspiciousCount)
	fmt.Fprintf(&b, "Threat Level: %s\n", report.ThreatLevel)
	if report.Strategy != "" {
		fmt.Fprintf(&b, "Classifier: %s", report.Strategy)
		if report.ModelStatus != "" {
			fmt.Fprintf(&b, " (model %s)", report.ModelStatus)
		}
		b.WriteString("\n")
	}
	if report.Anomalies > 0 {
		fmt.Fprintf(&b, "Unscored Entries: %d\n", report.Anomalies)
	}
	b.WriteString("\n" + heavyRule + "\n")
	b.WriteString("DETAILED ANALYSIS:\n")

	for i, item := range report.Items {
		b.WriteString("\n")
		fmt.Fprintf(&b, "Entry %d: %s\n", i+1, item.Verdict.Label())
		fmt.Fprintf(&b, "URL: %s\n", item.SourceID)
		fmt.Fprintf(&b, "Classification: %s\n", classification(item.Verdict))
		fmt.Fprintf(&b, "Threat Score: %s\n", strconv.FormatFloat(item.Score, 'f', -1, 64))
		if len(item.Indicators) > 0 {
			fmt.Fprintf(&b, "Indicators: %s\n", strings.Join(item.Indicators, ", "))
		}
		fmt.Fprintf(&b, "Text Preview: %s\n", Preview(item.Text, previewRunes))
		b.WriteString(lightRule + "\n")
	}
	return b.String()
}

// FormatDigest is the short notification form of a report.
func FormatDigest(report domain.RunReport) string {
	if report.Failed() {
		return "Monitoring error: " + report.Error
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Threat Level: %s\n", report.ThreatLevel)
	fmt.Fprintf(&b, "Suspicious: %d of %d entries\n", report.SuspiciousCount, report.TotalCount)
	for _, item := range report.Items {
		if item.Verdict == domain.VerdictSafe {
			continue
		}
		fmt.Fprintf(&b, "\n- %s [%s]\n  %s\n", item.SourceID, item.Verdict.Label(), Preview(item.Text, previewRunes))
	}
	return b.String()
}

// Preview cuts text to limit runes, adding "..." when shortened.
func Preview(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

func classification(v domain.Verdict) string {
	if v == domain.VerdictSafe {
		return "NOT SUSPICIOUS"
	}
	return v.Label()
}
