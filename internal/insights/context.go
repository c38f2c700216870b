package insights

import (
	"fmt"
	"math"
	"time"

	"github.com/vladimiradmaev/mediplus/internal/domain"
)

// Flags are the month-level talking points used to steer question generation.
type Flags struct {
	BPConcern         bool `json:"bpConcern"`
	BPVeryHighDays    int  `json:"bpVeryHighDays"`
	SugarHigh         bool `json:"sugarHigh"`
	SugarVeryHighDays int  `json:"sugarVeryHighDays"`
	SpO2Low           bool `json:"spo2Low"`
	LowSpO2Days       int  `json:"lowSpo2Days"`
	FeverDays         int  `json:"feverDays"`
	HROutOfRange      bool `json:"hrOutOfRange"`
}

// ConcernFlags derives Flags from month stats. Nil stats give zero flags.
func ConcernFlags(st *Stats) Flags {
	if st == nil {
		return Flags{}
	}
	hrOut := false
	if st.Counts.HeartRate > 0 {
		hrOut = st.HeartRate.Med < 55 || st.HeartRate.Med > 100
	}
	return Flags{
		BPConcern:         st.BloodPressure.HighDays > 0,
		BPVeryHighDays:    st.BloodPressure.VeryHighDays,
		SugarHigh:         st.BloodSugar.HighDays180 > 0 || st.BloodSugar.VeryHighDays200 > 0,
		SugarVeryHighDays: st.BloodSugar.VeryHighDays200,
		SpO2Low:           st.SpO2.LowDays92 > 0,
		LowSpO2Days:       st.SpO2.LowDays92,
		FeverDays:         st.Temperature.FeverDays38,
		HROutOfRange:      hrOut,
	}
}

// SpecialtyHints maps each default specialty to the facts it should focus on.
func SpecialtyHints(st *Stats) map[string]map[string]any {
	f := ConcernFlags(st)
	if st == nil {
		st = &Stats{}
	}
	bpAvg := fmt.Sprintf("%s/%s", num(st.BloodPressure.AvgSys), num(st.BloodPressure.AvgDia))

	return map[string]map[string]any{
		"General Doctor": {
			"overview": true,
			"flags":    f,
		},
		"Cardiologist": {
			"focusBP":        f.BPConcern || st.BloodPressure.AvgSys >= 140,
			"focusHR":        f.HROutOfRange,
			"bpAvg":          bpAvg,
			"bpHighDays":     st.BloodPressure.HighDays,
			"bpVeryHighDays": st.BloodPressure.VeryHighDays,
		},
		"Endocrinologist": {
			"focusGlucose":        f.SugarHigh,
			"glucoseAvg":          st.BloodSugar.Avg,
			"glucoseVeryHighDays": st.BloodSugar.VeryHighDays200,
			"glucoseHighDays180":  st.BloodSugar.HighDays180,
		},
		"Psychiatrist": {
			"hrOutOfRange": f.HROutOfRange,
			"spo2Low":      f.SpO2Low,
			"feverDays":    f.FeverDays,
		},
		"Pulmonologist": {
			"spo2Avg":   st.SpO2.Avg,
			"lowDays92": st.SpO2.LowDays92,
		},
		"Dietitian": {
			"glucoseAvg":    st.BloodSugar.Avg,
			"glucoseSpikes": st.BloodSugar.VeryHighDays200 + st.BloodSugar.HighDays180,
			"bpAvg":         bpAvg,
		},
	}
}

// Summary30d is a one-line text digest of the last 30 days of vitals.
func Summary30d(samples []domain.Sample, now time.Time) string {
	if len(samples) == 0 {
		return "No vitals recorded."
	}
	since := now.Add(-Window)
	acc := make(map[string][]float64)
	for _, s := range samples {
		if s.Timestamp.Before(since) {
			continue
		}
		switch s.Kind {
		case domain.KindBloodPressure:
			if s.Pressure != nil {
				acc["sys"] = append(acc["sys"], s.Pressure.Systolic)
				acc["dia"] = append(acc["dia"], s.Pressure.Diastolic)
			}
		default:
			acc[string(s.Kind)] = append(acc[string(s.Kind)], s.Value)
		}
	}
	if len(acc) == 0 {
		return "No recent vitals in last 30 days."
	}

	f := func(xs []float64) string {
		if len(xs) == 0 {
			return "—"
		}
		return num(math.Round(mean(xs)))
	}
	return fmt.Sprintf("BP ~ %s/%s mmHg; Glucose ~ %s mg/dL; HR ~ %s; SpO2 ~ %s%%; Temp ~ %s°C",
		f(acc["sys"]), f(acc["dia"]),
		f(acc[string(domain.KindBloodSugar)]),
		f(acc[string(domain.KindHeartRate)]),
		f(acc[string(domain.KindSpO2)]),
		f(acc[string(domain.KindTemperature)]))
}

// QuestionContext is the payload handed to the question generator.
type QuestionContext struct {
	LatestMonth       string                    `json:"latestMonth,omitempty"`
	SamplesSummary30d string                    `json:"samplesSummary30d"`
	MonthStats        *Stats                    `json:"monthStats"`
	SpecialtyHints    map[string]map[string]any `json:"specialtyHints"`
	MedBotRecent      []string                  `json:"medbotRecent,omitempty"`
	MindfulRecent     []string                  `json:"mindfulRecent,omitempty"`
}

// BuildQuestionContext assembles the generator payload from the newest month.
func BuildQuestionContext(samples []domain.Sample, now time.Time) QuestionContext {
	latest := LatestMonth(samples)
	st := MonthStats(samples, latest)
	return QuestionContext{
		LatestMonth:       latest,
		SamplesSummary30d: Summary30d(samples, now),
		MonthStats:        st,
		SpecialtyHints:    SpecialtyHints(st),
	}
}
