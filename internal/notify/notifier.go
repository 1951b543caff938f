// Package notify pushes finalized visit summaries to the clinician's Slack
// channel. Dispatch happens after the record is persisted and never affects
// the finalize result.
package notify

import (
	"context"
	"fmt"
	"strings"

	slacklib "github.com/slack-go/slack"

	"github.com/sohamkundu27/AITelehealth/internal/domain"
)

// SlackAPI abstracts the subset of the Slack client used by ClinicianNotifier.
// This allows testing without real HTTP calls.
type SlackAPI interface {
	PostMessage(channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// ClinicianNotifier posts visit summaries to a fixed Slack channel.
type ClinicianNotifier struct {
	api       SlackAPI
	channelID string
}

// NewClinicianNotifier creates a notifier posting to the given channel.
func NewClinicianNotifier(api SlackAPI, channelID string) *ClinicianNotifier {
	return &ClinicianNotifier{api: api, channelID: channelID}
}

// NotifyClinician posts the record's clinician note with a risk summary line.
func (n *ClinicianNotifier) NotifyClinician(_ context.Context, rec *domain.VisitRecord) error {
	_, _, err := n.api.PostMessage(n.channelID, slacklib.MsgOptionText(FormatSummary(rec), false))
	if err != nil {
		return fmt.Errorf("notify.ClinicianNotifier.NotifyClinician: %w", err)
	}

	return nil
}

// FormatSummary renders the Slack message body for a finalized visit.
func FormatSummary(rec *domain.VisitRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Visit %s finalized.\n", rec.SessionID)

	if rec.SafetyCheck != nil && len(rec.SafetyCheck.Risks) > 0 {
		flagged := make([]string, 0, len(rec.SafetyCheck.Risks))
		for _, risk := range rec.SafetyCheck.Risks {
			flagged = append(flagged, fmt.Sprintf("%s (%s)", risk.Type, risk.Severity))
		}
		fmt.Fprintf(&b, "Risks: %s\n", strings.Join(flagged, ", "))
	} else {
		b.WriteString("Risks: none\n")
	}

	b.WriteString(rec.ClinicianNote)
	return b.String()
}
