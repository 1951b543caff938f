package message_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sohamkundu27/AITelehealth/internal/domain"
	"github.com/sohamkundu27/AITelehealth/internal/message"
)

func checkWith(prescriptions []string, risks []domain.RiskFinding, interactions []domain.InteractionFinding) *domain.SafetyCheck {
	rx := make([]domain.Prescription, 0, len(prescriptions))
	for _, d := range prescriptions {
		rx = append(rx, domain.Prescription{Drug: d})
	}
	return &domain.SafetyCheck{
		SessionID:     "visit-1",
		Prescriptions: rx,
		Risks:         risks,
		Interactions:  interactions,
	}
}

func TestClinicianNote(t *testing.T) {
	t.Parallel()

	t.Run("renal_risk_names_the_pair", func(t *testing.T) {
		t.Parallel()

		check := checkWith([]string{"Lisinopril", "Naproxen"}, []domain.RiskFinding{
			{Type: domain.RiskRenal, Severity: domain.SeverityModerate, Drugs: []string{"Lisinopril", "Naproxen"}},
		}, nil)

		note := message.ClinicianNote(check, 0)

		assert.Contains(t, note, "Lisinopril")
		assert.Contains(t, note, "Naproxen")
		assert.Contains(t, note, "renal function")
	})

	t.Run("interactions_capped_at_three", func(t *testing.T) {
		t.Parallel()

		check := checkWith([]string{"A", "B", "C", "D"}, nil, []domain.InteractionFinding{
			{Drug: "A", Interaction: "first"},
			{Drug: "B", Interaction: "second"},
			{Drug: "C", Interaction: "third"},
			{Drug: "D", Interaction: "fourth"},
		})

		note := message.ClinicianNote(check, 0)

		assert.Contains(t, note, "first; second; third")
		assert.NotContains(t, note, "fourth")
	})

	t.Run("age_over_65_adds_dosing_sentence", func(t *testing.T) {
		t.Parallel()

		check := checkWith([]string{"Amoxicillin"}, nil, nil)

		note := message.ClinicianNote(check, 72)

		assert.Contains(t, note, "over 65")
		assert.Contains(t, note, "reduced dosing")
	})

	t.Run("age_exactly_65_does_not", func(t *testing.T) {
		t.Parallel()

		check := checkWith([]string{"Amoxicillin"}, nil, nil)

		note := message.ClinicianNote(check, 65)

		assert.NotContains(t, note, "over 65")
	})

	t.Run("no_findings_yields_standard_followup_only", func(t *testing.T) {
		t.Parallel()

		check := checkWith([]string{"Amoxicillin"}, nil, nil)

		note := message.ClinicianNote(check, 0)

		assert.Equal(t, "No drug-safety concerns identified; standard follow-up recommended.", note)
	})

	t.Run("never_empty", func(t *testing.T) {
		t.Parallel()

		note := message.ClinicianNote(checkWith(nil, nil, nil), 0)
		assert.NotEmpty(t, note)
	})

	t.Run("priority_order", func(t *testing.T) {
		t.Parallel()

		check := checkWith([]string{"Lisinopril", "Naproxen"}, []domain.RiskFinding{
			{Type: domain.RiskRenal, Severity: domain.SeverityModerate, Drugs: []string{"Lisinopril", "Naproxen"}},
		}, []domain.InteractionFinding{
			{Drug: "Naproxen", Interaction: "lookup detail"},
		})

		note := message.ClinicianNote(check, 70)

		renalIdx := strings.Index(note, "renal function")
		lookupIdx := strings.Index(note, "lookup detail")
		ageIdx := strings.Index(note, "over 65")
		require.True(t, renalIdx >= 0 && lookupIdx >= 0 && ageIdx >= 0)
		assert.Less(t, renalIdx, lookupIdx)
		assert.Less(t, lookupIdx, ageIdx)
	})
}

func TestPatientFollowUp(t *testing.T) {
	t.Parallel()

	t.Run("nsaid_only", func(t *testing.T) {
		t.Parallel()

		followUp := message.PatientFollowUp(checkWith([]string{"Naproxen"}, nil, nil))

		assert.Contains(t, followUp, "stomach upset")
		assert.NotContains(t, followUp, "kidney")
		assert.True(t, strings.HasSuffix(followUp, "Please complete the full course of your prescribed medication."))
	})

	t.Run("ace_plus_nsaid_adds_kidney_watch", func(t *testing.T) {
		t.Parallel()

		followUp := message.PatientFollowUp(checkWith([]string{"Lisinopril", "Naproxen"}, nil, nil))

		assert.Contains(t, followUp, "stomach upset")
		assert.Contains(t, followUp, "kidney")
		kidneyIdx := strings.Index(followUp, "kidney")
		stomachIdx := strings.Index(followUp, "stomach upset")
		assert.Less(t, stomachIdx, kidneyIdx)
	})

	t.Run("no_nsaid_generic_contact_sentence", func(t *testing.T) {
		t.Parallel()

		followUp := message.PatientFollowUp(checkWith([]string{"Amoxicillin"}, nil, nil))

		assert.True(t, strings.HasPrefix(followUp, "Contact your provider if your symptoms don't improve."))
		assert.True(t, strings.HasSuffix(followUp, "Please complete the full course of your prescribed medication."))
	})

	t.Run("no_prescriptions_no_full_course_reminder", func(t *testing.T) {
		t.Parallel()

		followUp := message.PatientFollowUp(checkWith(nil, nil, nil))

		assert.Equal(t, "Contact your provider if your symptoms don't improve.", followUp)
	})
}
