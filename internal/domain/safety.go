package domain

// RiskType classifies a rule-based interaction finding.
type RiskType string

const (
	RiskRenal        RiskType = "renal_risk"
	RiskBleeding     RiskType = "bleeding_risk"
	RiskHyperkalemia RiskType = "hyperkalemia_risk"
)

// Severity grades a risk finding.
type Severity string

const (
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
)

// RiskFinding is one rule-table match: a representative drug pair for an
// interaction class.
type RiskFinding struct {
	Type     RiskType `json:"type"`
	Severity Severity `json:"severity"`
	Drugs    []string `json:"drugs"`
}

// InteractionFinding is one positive result from the external interaction
// oracle for a newly prescribed drug.
type InteractionFinding struct {
	Drug        string `json:"drug"`
	Interaction string `json:"interaction"`
	Source      string `json:"source,omitempty"`
}

// SafetyCheck is the post-call structured risk assessment. It is recomputed
// fresh on each finalize, never partially updated.
type SafetyCheck struct {
	SessionID      string               `json:"sessionId"`
	Prescriptions  []Prescription       `json:"prescriptions"`
	PatientHistory []string             `json:"patientHistory"`
	Risks          []RiskFinding        `json:"risks"`
	Interactions   []InteractionFinding `json:"interactions"`
}
