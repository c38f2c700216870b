package insights

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/mediplus/internal/domain"
)

func ts(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.Local)
}

func scalar(t time.Time, k domain.VitalKind, v float64) domain.Sample {
	return domain.Sample{Timestamp: t, Kind: k, Value: v}
}

func TestMonthStatsCountsVeryHighGlucoseDay(t *testing.T) {
	samples := []domain.Sample{
		scalar(ts(2024, time.March, 3), domain.KindBloodSugar, 210),
		scalar(ts(2024, time.March, 4), domain.KindBloodSugar, 150),
	}
	st := MonthStats(samples, "2024-03")
	require.NotNil(t, st)
	assert.Equal(t, 1, st.BloodSugar.VeryHighDays200)
	assert.Equal(t, 1, st.BloodSugar.HighDays180)
	assert.Equal(t, 180.0, st.BloodSugar.Avg)
	assert.Equal(t, 180.0, st.BloodSugar.Med)
	assert.Equal(t, 150.0, st.BloodSugar.Min)
	assert.Equal(t, 210.0, st.BloodSugar.Max)
	assert.Equal(t, 2, st.Counts.BloodSugar)

	lines := MonthInsights(samples, "2024-03")
	assert.Contains(t, lines, "1 day(s) with glucose ≥ 200 mg/dL.")
	assert.Contains(t, lines, "Average glucose about 180 mg/dL.")
}

func TestMonthStatsCountsDistinctDays(t *testing.T) {
	day := ts(2024, time.March, 3)
	samples := []domain.Sample{
		scalar(day, domain.KindBloodSugar, 230),
		scalar(day.Add(3*time.Hour), domain.KindBloodSugar, 240),
		domain.NewPressureSample(day, 165, 95),
		domain.NewPressureSample(ts(2024, time.March, 5), 142, 80),
	}
	st := MonthStats(samples, "2024-03")
	assert.Equal(t, 1, st.BloodSugar.VeryHighDays200)
	assert.Equal(t, 2, st.BloodPressure.HighDays)
	assert.Equal(t, 1, st.BloodPressure.VeryHighDays)
	assert.Equal(t, 2, st.Days)
}

func TestMonthStatsJSONIsEncodable(t *testing.T) {
	st := MonthStats(nil, "2024-03")
	require.True(t, st.Empty())
	_, err := json.Marshal(st)
	require.NoError(t, err)
	assert.Nil(t, MonthStats(nil, ""))
}

func TestMonthInsightsNoData(t *testing.T) {
	assert.Equal(t, []string{"No data this month."}, MonthInsights(nil, "2024-03"))
	assert.Equal(t, "No data this month.", MonthFallback(nil))
}

func TestMonthInsightsInfrequentSpikes(t *testing.T) {
	samples := []domain.Sample{
		scalar(ts(2024, time.March, 3), domain.KindBloodSugar, 150),
		domain.NewPressureSample(ts(2024, time.March, 3), 131, 84),
	}
	lines := MonthInsights(samples, "2024-03")
	assert.Equal(t, []string{
		"Average BP about 131/84 mmHg.",
		"Average glucose about 150 mg/dL.",
		"Glucose spikes were infrequent.",
	}, lines)
}

func TestMonthFallbackMentionsAllVitals(t *testing.T) {
	samples := []domain.Sample{
		scalar(ts(2024, time.March, 3), domain.KindBloodSugar, 205),
		scalar(ts(2024, time.March, 3), domain.KindHeartRate, 80),
		scalar(ts(2024, time.March, 3), domain.KindSpO2, 91),
		scalar(ts(2024, time.March, 3), domain.KindTemperature, 38.2),
		domain.NewPressureSample(ts(2024, time.March, 3), 150, 92),
	}
	text := MonthFallback(MonthStats(samples, "2024-03"))
	assert.True(t, strings.HasPrefix(text, "Focus: Diabetes & Blood Pressure"))
	assert.Contains(t, text, "spikes ≥200 mg/dL: 1")
	assert.Contains(t, text, "low <92% days: 1")
	assert.Contains(t, text, "fever ≥38.0°C days: 1")
	assert.Contains(t, text, "High-days ≥140/90: 1")
}

func TestSelectedInsights(t *testing.T) {
	now := ts(2024, time.March, 31)
	samples := []domain.Sample{
		domain.NewPressureSample(ts(2024, time.March, 20), 130, 80),
		domain.NewPressureSample(ts(2024, time.March, 21), 162, 90),
		domain.NewPressureSample(ts(2024, time.January, 1), 200, 120),
		scalar(ts(2024, time.March, 20), domain.KindBloodSugar, 120),
		scalar(ts(2024, time.March, 21), domain.KindBloodSugar, 190),
		scalar(ts(2024, time.March, 21), domain.KindHeartRate, 70),
		scalar(ts(2024, time.March, 22), domain.KindHeartRate, 75),
	}

	bp := SelectedInsights(samples, domain.KindBloodPressure, now)
	require.Len(t, bp, 2)
	assert.Equal(t, "30-day systolic median ≈ 146 mmHg; diastolic median ≈ 85 mmHg.", bp[0])
	assert.Contains(t, bp[1], "very high")

	sugar := SelectedInsights(samples, domain.KindBloodSugar, now)
	assert.Equal(t, []string{"30-day glucose range: 120–190 mg/dL.", "Spikes were uncommon."}, sugar)

	hr := SelectedInsights(samples, domain.KindHeartRate, now)
	assert.Equal(t, []string{"Typical resting HR ≈ 73 BPM."}, hr)

	assert.Equal(t, []string{"No recent entries."}, SelectedInsights(samples, domain.KindSpO2, now))
}

func TestSuggestionsCoverEveryKind(t *testing.T) {
	for _, k := range []domain.VitalKind{
		domain.KindBloodPressure, domain.KindBloodSugar, domain.KindHeartRate,
		domain.KindSpO2, domain.KindTemperature,
	} {
		assert.NotEmpty(t, Suggestions(k), k)
	}
	assert.Equal(t, "• a\n• b", Bullets([]string{"a", "b"}))
}

func TestConcernFlagsAndHints(t *testing.T) {
	samples := []domain.Sample{
		scalar(ts(2024, time.March, 3), domain.KindBloodSugar, 185),
		scalar(ts(2024, time.March, 3), domain.KindHeartRate, 50),
		domain.NewPressureSample(ts(2024, time.March, 3), 120, 80),
	}
	st := MonthStats(samples, "2024-03")
	f := ConcernFlags(st)
	assert.True(t, f.SugarHigh)
	assert.True(t, f.HROutOfRange)
	assert.False(t, f.BPConcern)

	hints := SpecialtyHints(st)
	assert.Len(t, hints, 6)
	assert.Equal(t, "120/80", hints["Cardiologist"]["bpAvg"])
	assert.Equal(t, true, hints["Endocrinologist"]["focusGlucose"])

	assert.Equal(t, Flags{}, ConcernFlags(nil))
	assert.Len(t, SpecialtyHints(nil), 6)
}

func TestSummary30d(t *testing.T) {
	now := ts(2024, time.March, 31)
	assert.Equal(t, "No vitals recorded.", Summary30d(nil, now))
	old := []domain.Sample{scalar(ts(2023, time.March, 1), domain.KindHeartRate, 70)}
	assert.Equal(t, "No recent vitals in last 30 days.", Summary30d(old, now))

	recent := []domain.Sample{
		scalar(ts(2024, time.March, 20), domain.KindHeartRate, 70),
		domain.NewPressureSample(ts(2024, time.March, 20), 120, 80),
	}
	assert.Equal(t, "BP ~ 120/80 mmHg; Glucose ~ — mg/dL; HR ~ 70; SpO2 ~ —%; Temp ~ —°C", Summary30d(recent, now))
}

func TestBuildQuestionContextUsesLatestMonth(t *testing.T) {
	samples := []domain.Sample{
		scalar(ts(2024, time.February, 3), domain.KindBloodSugar, 150),
		scalar(ts(2024, time.March, 3), domain.KindBloodSugar, 150),
	}
	qc := BuildQuestionContext(samples, ts(2024, time.March, 10))
	assert.Equal(t, "2024-03", qc.LatestMonth)
	require.NotNil(t, qc.MonthStats)
	assert.Equal(t, 1, qc.MonthStats.Counts.BloodSugar)
}
