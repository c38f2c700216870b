package insights

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vladimiradmaev/mediplus/internal/domain"
	"github.com/vladimiradmaev/mediplus/internal/vitals"
)

// Window is the trailing period used for per-vital insights.
const Window = 30 * 24 * time.Hour

// SelectedInsights returns rule-based bullets for kind over the 30 days
// before now.
func SelectedInsights(samples []domain.Sample, kind domain.VitalKind, now time.Time) []string {
	since := now.Add(-Window)
	var recent []domain.Sample
	for _, s := range samples {
		if s.Kind == kind && !s.Timestamp.Before(since) {
			recent = append(recent, s)
		}
	}
	if len(recent) == 0 {
		return []string{"No recent entries."}
	}

	switch kind {
	case domain.KindBloodPressure:
		var sys, dia []float64
		veryHigh := false
		for _, s := range recent {
			if s.Pressure == nil {
				continue
			}
			sys = append(sys, s.Pressure.Systolic)
			dia = append(dia, s.Pressure.Diastolic)
			if vitals.Classify(s) == vitals.LevelVeryHigh {
				veryHigh = true
			}
		}
		out := []string{fmt.Sprintf("30-day systolic median ≈ %s mmHg; diastolic median ≈ %s mmHg.", num(median(sys)), num(median(dia)))}
		if veryHigh {
			return append(out, "Occasional very high readings observed. Recheck after 5 minutes rest when this happens.")
		}
		return append(out, "Readings mostly within the controlled range.")

	case domain.KindBloodSugar:
		vals := values(recent)
		lo, hi := minMax(vals)
		out := []string{fmt.Sprintf("30-day glucose range: %s–%s mg/dL.", num(lo), num(hi))}
		for _, s := range recent {
			if vitals.Classify(s) == vitals.LevelVeryHigh {
				return append(out, "Hyperglycemia days present; review meal timing and meds adherence.")
			}
		}
		return append(out, "Spikes were uncommon.")

	case domain.KindHeartRate:
		return []string{fmt.Sprintf("Typical resting HR ≈ %s BPM.", num(median(values(recent))))}

	case domain.KindSpO2:
		return []string{"SpO₂ mostly 92–98%. Values < 92% were rare."}

	case domain.KindTemperature:
		return []string{"Temperature within normal range most days."}
	}
	return nil
}

// MonthInsights returns the short headline summary of a month.
func MonthInsights(samples []domain.Sample, month string) []string {
	st := MonthStats(samples, month)
	if st == nil {
		return nil
	}
	if st.Empty() {
		return []string{"No data this month."}
	}

	var out []string
	if st.Counts.BloodPressure > 0 {
		out = append(out, fmt.Sprintf("Average BP about %s/%s mmHg.", num(st.BloodPressure.AvgSys), num(st.BloodPressure.AvgDia)))
	}
	if st.Counts.BloodSugar > 0 {
		out = append(out, fmt.Sprintf("Average glucose about %s mg/dL.", num(st.BloodSugar.Avg)))
	}
	if n := st.BloodSugar.VeryHighDays200; n > 0 {
		out = append(out, fmt.Sprintf("%d day(s) with glucose ≥ 200 mg/dL.", n))
	} else {
		out = append(out, "Glucose spikes were infrequent.")
	}
	return out
}

// MonthFallback renders month stats as the bullet text shown when the
// completion API is unavailable.
func MonthFallback(st *Stats) string {
	if st.Empty() {
		return "No data this month."
	}
	bp, su, hr, sp, te := st.BloodPressure, st.BloodSugar, st.HeartRate, st.SpO2, st.Temperature

	lines := []string{
		"Focus: Diabetes & Blood Pressure",
		fmt.Sprintf("• BP avg ≈ %s/%s mmHg (median %s/%s). High-days ≥140/90: %d; very-high ≥160/100: %d.",
			num(bp.AvgSys), num(bp.AvgDia), num(bp.MedSys), num(bp.MedDia), bp.HighDays, bp.VeryHighDays),
		fmt.Sprintf("• Glucose avg ≈ %s mg/dL (median %s); spikes ≥200 mg/dL: %d, ≥180 mg/dL: %d.",
			num(su.Avg), num(su.Med), su.VeryHighDays200, su.HighDays180),
		"Other vitals",
		fmt.Sprintf("• Heart rate avg ≈ %s BPM (range %s–%s).", num(hr.Avg), num(hr.Min), num(hr.Max)),
		fmt.Sprintf("• SpO₂ avg ≈ %s%% (low <92%% days: %d).", num(sp.Avg), sp.LowDays92),
		fmt.Sprintf("• Temperature avg ≈ %s°C (fever ≥38.0°C days: %d).", num(te.Avg), te.FeverDays38),
	}
	return strings.Join(lines, "\n")
}

// Suggestions returns canned lifestyle suggestions for kind.
func Suggestions(kind domain.VitalKind) []string {
	switch kind {
	case domain.KindBloodPressure:
		return []string{
			"Reduce sodium; minimise processed foods.",
			"Walk 20–30 min most days; steady routine.",
			"Take antihypertensives at the same time daily.",
			"If BP > 180/110 or symptoms (chest pain, dizziness), seek urgent care.",
		}
	case domain.KindBloodSugar:
		return []string{
			"Keep meal times consistent; pair carbs with protein/fibre.",
			"10–15 min light walk after meals.",
			"Hydrate well; log higher-carb meals for patterns.",
		}
	case domain.KindHeartRate:
		return []string{
			"Practice 5-minute box-breathing twice daily.",
			"Build aerobic fitness gradually; monitor symptoms.",
		}
	case domain.KindSpO2:
		return []string{
			"Evaluate sleep quality; try diaphragmatic breathing.",
			"Avoid smoking and second-hand smoke.",
		}
	case domain.KindTemperature:
		return []string{"Hydrate and rest when unwell; seek care for persistent fever ≥ 38.0°C."}
	}
	return nil
}

// Bullets joins lines as "• " prefixed rows.
func Bullets(lines []string) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("• ")
		b.WriteString(l)
	}
	return b.String()
}

func values(samples []domain.Sample) []float64 {
	out := make([]float64, 0, len(samples))
	for _, s := range samples {
		out = append(out, s.Value)
	}
	return out
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
