package progress

import (
	"math"

	"meridian/models"
	"meridian/services/ledger"
)

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendWorsening Trend = "worsening"
)

// trendWindow is how many recent pain entries are inspected.
const trendWindow = 3

type Report struct {
	PatientID            string             `json:"patientId"`
	PercentComplete      int                `json:"percentComplete"`
	PainReduction        int                `json:"painReduction"`
	PainReductionPercent int                `json:"painReductionPercent"`
	Trend                Trend              `json:"trend"`
	SessionsCompleted    int                `json:"sessionsCompleted"`
	TotalSessions        int                `json:"totalSessions"`
	RenewalAlert         bool               `json:"renewalAlert"`
	Recommended          models.PackageType `json:"recommendedPackage"`
}

// CalculateProgress derives the progress report of a patient. pkg may be nil
// when the patient has no package yet.
func CalculateProgress(patient *models.Patient, pkg *models.TreatmentPackage) Report {
	r := Report{
		PatientID:            patient.ID,
		PainReduction:        patient.InitialPainScore - patient.CurrentPainScore,
		PainReductionPercent: PainReductionPercent(patient.InitialPainScore, patient.CurrentPainScore),
		Trend:                ClassifyTrend(patient.PainHistory),
	}
	if pkg != nil {
		r.SessionsCompleted = pkg.SessionsCompleted
		r.TotalSessions = pkg.TotalSessions
		r.PercentComplete = PercentComplete(pkg.SessionsCompleted, pkg.TotalSessions)
		r.RenewalAlert = ledger.ShouldShowRenewalAlert(pkg)
	}
	r.Recommended = ledger.RecommendPackage(r.PainReductionPercent)
	return r
}

func PercentComplete(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// PainReductionPercent is 0 when there is no initial pain to reduce.
func PainReductionPercent(initial, current int) int {
	if initial <= 0 {
		return 0
	}
	return int(math.Round(float64(initial-current) / float64(initial) * 100))
}

// ClassifyTrend compares the first and last of the latest entries; a change
// of more than one point either way leaves the stable band.
func ClassifyTrend(history []models.PainScoreEntry) Trend {
	if len(history) < 2 {
		return TrendStable
	}
	window := history
	if len(window) > trendWindow {
		window = window[len(window)-trendWindow:]
	}
	first := window[0].Score
	last := window[len(window)-1].Score
	switch {
	case last < first-1:
		return TrendImproving
	case last > first+1:
		return TrendWorsening
	default:
		return TrendStable
	}
}
