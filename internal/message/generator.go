// Package message renders a safety check into two differently framed
// narratives. Both composers are deterministic template composition over
// already-validated structured input; nothing here is model-generated, so
// no clinical claim can be fabricated.
package message

import (
	"fmt"
	"strings"

	"github.com/sohamkundu27/AITelehealth/internal/domain"
	"github.com/sohamkundu27/AITelehealth/internal/safety"
)

// Sentence templates. Tests depend on these exact strings; change with care.
const (
	renalRiskSentence        = "Monitor renal function: co-prescription of %s and %s carries a risk of acute kidney injury."
	bleedingRiskSentence     = "Monitor for bleeding: co-prescription of %s and %s increases bleeding risk."
	hyperkalemiaRiskSentence = "Monitor serum potassium: co-prescription of %s and %s can cause hyperkalemia."
	interactionsSentence     = "Interaction lookup flagged: %s."
	elderlyDosingSentence    = "Patient is over 65; consider reduced dosing and closer monitoring."
	standardFollowUpSentence = "No drug-safety concerns identified; standard follow-up recommended."

	nsaidWatchSentence    = "Watch for stomach upset or heartburn after taking your anti-inflammatory medication, and take it with food."
	kidneyWatchSentence   = "Contact your provider if you notice swelling, reduced urination, or unusual tiredness, as these can be signs of kidney problems."
	contactProviderClause = "Contact your provider if your symptoms don't improve."
	fullCourseSentence    = "Please complete the full course of your prescribed medication."
)

// maxInteractionDetails caps how many oracle findings the clinician sentence
// lists.
const maxInteractionDetails = 3

// ClinicianNote composes the clinician-facing summary in fixed priority
// order: rule findings, then oracle interactions, then the age note, with a
// generic fallback so the note is never empty. patientAge <= 0 means unknown.
func ClinicianNote(check *domain.SafetyCheck, patientAge int) string {
	var sentences []string

	for _, risk := range check.Risks {
		if len(risk.Drugs) < 2 {
			continue
		}
		switch risk.Type {
		case domain.RiskRenal:
			sentences = append(sentences, fmt.Sprintf(renalRiskSentence, risk.Drugs[0], risk.Drugs[1]))
		case domain.RiskBleeding:
			sentences = append(sentences, fmt.Sprintf(bleedingRiskSentence, risk.Drugs[0], risk.Drugs[1]))
		case domain.RiskHyperkalemia:
			sentences = append(sentences, fmt.Sprintf(hyperkalemiaRiskSentence, risk.Drugs[0], risk.Drugs[1]))
		}
	}

	if len(check.Interactions) > 0 {
		details := make([]string, 0, maxInteractionDetails)
		for _, finding := range check.Interactions {
			if len(details) == maxInteractionDetails {
				break
			}
			details = append(details, finding.Interaction)
		}
		sentences = append(sentences, fmt.Sprintf(interactionsSentence, strings.Join(details, "; ")))
	}

	if patientAge > 65 {
		sentences = append(sentences, elderlyDosingSentence)
	}

	if len(sentences) == 0 {
		return standardFollowUpSentence
	}
	return strings.Join(sentences, " ")
}

// PatientFollowUp composes the patient-facing follow-up. Conditions and
// order are fixed: the NSAID caution, the kidney-symptom watch when an
// ACE inhibitor and an NSAID were both prescribed, a generic
// contact-provider sentence when neither fired, and always the full-course
// reminder when anything was prescribed.
func PatientFollowUp(check *domain.SafetyCheck) string {
	var (
		hasNSAID bool
		hasACE   bool
	)
	for _, p := range check.Prescriptions {
		if safety.IsNSAID(p.Drug) {
			hasNSAID = true
		}
		if safety.IsACEInhibitor(p.Drug) {
			hasACE = true
		}
	}

	var sentences []string
	if hasNSAID {
		sentences = append(sentences, nsaidWatchSentence)
	}
	if hasNSAID && hasACE {
		sentences = append(sentences, kidneyWatchSentence)
	}
	if len(sentences) == 0 {
		sentences = append(sentences, contactProviderClause)
	}
	if len(check.Prescriptions) > 0 {
		sentences = append(sentences, fullCourseSentence)
	}

	return strings.Join(sentences, " ")
}
