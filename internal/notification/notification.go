// Package notification handles sending notifications to external services.
package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/containrrr/shoutrrr"

	"github.com/zorak1103/logsieve/internal/config"
	"github.com/zorak1103/logsieve/internal/processor"
)

// DefaultTopEntries is the number of values listed per report section.
const DefaultTopEntries = 5

// Notifier handles sending notifications via Shoutrrr
type Notifier struct {
	enabled     bool
	shoutrrrURL string
	send        func(url, message string) error
}

// NewNotifier initializes a Shoutrrr-based notification client from config.
func NewNotifier(cfg *config.Config) (*Notifier, error) {
	if !cfg.Notification.Enabled {
		return &Notifier{enabled: false}, nil
	}

	url := strings.TrimSpace(cfg.Notification.ShoutrrURL)
	if url == "" {
		return &Notifier{enabled: false}, fmt.Errorf("notification enabled but shoutrrr_url not configured: provide URL in format 'service://credentials' (e.g., slack://token@channel, discord://token@webhookid)")
	}

	return &Notifier{
		enabled:     true,
		shoutrrrURL: url,
		send: func(url, message string) error {
			return shoutrrr.Send(url, message)
		},
	}, nil
}

// FormatReportSummary builds the notification text for a report result,
// listing the topN most frequent values of every section.
func FormatReportSummary(title string, result processor.ReportResult, topN int, now time.Time) string {
	if topN <= 0 {
		topN = DefaultTopEntries
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 logsieve report: %s\n", title))
	sb.WriteString(fmt.Sprintf("📅 Time: %s\n", now.Format("2006-01-02 15:04:05")))

	if result.Empty() {
		sb.WriteString("✅ No report pattern matched\n")
	}

	for _, section := range result.Sections {
		sb.WriteString(fmt.Sprintf("\n🔎 %s (%d)\n", section.Pattern, section.Total()))
		entries := section.Matches.Entries()
		for i, e := range entries {
			if i == topN {
				sb.WriteString(fmt.Sprintf("  … %d more\n", len(entries)-topN))
				break
			}
			sb.WriteString(fmt.Sprintf("  %dx %s\n", e.Count, e.Key))
		}
	}

	if len(result.Errors) > 0 {
		sb.WriteString(fmt.Sprintf("\n⚠️  %d pattern(s) could not be applied\n", len(result.Errors)))
	}

	return sb.String()
}

// SendReportSummary delivers a report summary via the configured notification channel.
func (n *Notifier) SendReportSummary(title string, result processor.ReportResult) error {
	if !n.enabled {
		return nil // Notifications disabled
	}

	message := FormatReportSummary(title, result, DefaultTopEntries, time.Now())

	if err := n.send(n.shoutrrrURL, message); err != nil {
		// Extract service type from URL (e.g., "slack://..." -> "slack")
		serviceType := "unknown"
		if idx := strings.Index(n.shoutrrrURL, "://"); idx > 0 {
			serviceType = n.shoutrrrURL[:idx]
		}
		return fmt.Errorf("notification failed to send via %s (report: %s, sections: %d): %w", serviceType, title, len(result.Sections), err)
	}

	return nil
}

// IsEnabled reports whether notifications are configured and active.
func (n *Notifier) IsEnabled() bool {
	return n.enabled
}
