package safety

import (
	"strings"

	"github.com/sohamkundu27/AITelehealth/internal/domain"
)

// Drug class name patterns, matched by case-insensitive substring so dosage
// suffixes and brand qualifiers ("Naproxen 500mg") still classify.
var (
	aceInhibitorPatterns = []string{
		"lisinopril", "enalapril", "ramipril", "captopril",
		"benazepril", "quinapril", "fosinopril", "perindopril",
	}
	nsaidPatterns = []string{
		"ibuprofen", "naproxen", "diclofenac", "ketorolac",
		"indomethacin", "meloxicam", "celecoxib", "aspirin",
	}
	anticoagulantPatterns = []string{
		"warfarin", "apixaban", "rivaroxaban", "dabigatran",
		"enoxaparin", "heparin",
	}
	potassiumSparingPatterns = []string{
		"spironolactone", "eplerenone", "amiloride", "triamterene",
	}
)

// IsACEInhibitor reports whether the drug name matches the ACE-inhibitor
// class.
func IsACEInhibitor(drug string) bool { return matchesClass(drug, aceInhibitorPatterns) }

// IsNSAID reports whether the drug name matches the NSAID class.
func IsNSAID(drug string) bool { return matchesClass(drug, nsaidPatterns) }

// IsAnticoagulant reports whether the drug name matches the anticoagulant
// class.
func IsAnticoagulant(drug string) bool { return matchesClass(drug, anticoagulantPatterns) }

// IsPotassiumSparing reports whether the drug name matches the
// potassium-sparing diuretic class.
func IsPotassiumSparing(drug string) bool { return matchesClass(drug, potassiumSparingPatterns) }

func matchesClass(drug string, patterns []string) bool {
	d := strings.ToLower(drug)
	for _, p := range patterns {
		if strings.Contains(d, p) {
			return true
		}
	}
	return false
}

// interactionRule pairs two drug classes into a known risk.
type interactionRule struct {
	riskType domain.RiskType
	severity domain.Severity
	classA   func(string) bool
	classB   func(string) bool
}

// The rule table is evaluated in order; each class reports at most one
// representative drug pair, not all pairwise combinations.
var interactionRules = []interactionRule{
	{riskType: domain.RiskRenal, severity: domain.SeverityModerate, classA: IsACEInhibitor, classB: IsNSAID},
	{riskType: domain.RiskBleeding, severity: domain.SeverityHigh, classA: IsAnticoagulant, classB: IsNSAID},
	{riskType: domain.RiskHyperkalemia, severity: domain.SeverityModerate, classA: IsACEInhibitor, classB: IsPotassiumSparing},
}

// applyRules runs the fixed rule table over the session's prescriptions and
// the patient's known drug history. A pair only counts when at least one of
// its drugs was prescribed in this session; two historical drugs are an
// existing condition, not a finding of this visit.
func applyRules(prescriptions []domain.Prescription, history []string) []domain.RiskFinding {
	type pooledDrug struct {
		name       string
		prescribed bool
	}

	pool := make([]pooledDrug, 0, len(prescriptions)+len(history))
	for _, p := range prescriptions {
		pool = append(pool, pooledDrug{name: p.Drug, prescribed: true})
	}
	for _, h := range history {
		pool = append(pool, pooledDrug{name: h})
	}

	findings := []domain.RiskFinding{}
	for _, rule := range interactionRules {
		match := func() *domain.RiskFinding {
			for _, a := range pool {
				if !rule.classA(a.name) {
					continue
				}
				for _, b := range pool {
					if a.name == b.name || !rule.classB(b.name) {
						continue
					}
					if !a.prescribed && !b.prescribed {
						continue
					}
					return &domain.RiskFinding{
						Type:     rule.riskType,
						Severity: rule.severity,
						Drugs:    []string{a.name, b.name},
					}
				}
			}
			return nil
		}()
		if match != nil {
			findings = append(findings, *match)
		}
	}
	return findings
}
