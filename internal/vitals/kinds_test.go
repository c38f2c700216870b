package vitals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/mediplus/internal/domain"
)

func TestParseKind(t *testing.T) {
	cases := map[string]domain.VitalKind{
		"Blood Pressure": domain.KindBloodPressure,
		"blood-pressure": domain.KindBloodPressure,
		"BP":             domain.KindBloodPressure,
		"heart_rate":     domain.KindHeartRate,
		"glucose":        domain.KindBloodSugar,
		"spo2":           domain.KindSpO2,
		"Temperature":    domain.KindTemperature,
		" temp ":         domain.KindTemperature,
	}
	for in, want := range cases {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseKind("cholesterol")
	assert.Error(t, err)
	_, err = ParseKind("  ")
	assert.Error(t, err)
}

func TestAllKindsRegistered(t *testing.T) {
	kinds := AllKinds()
	require.Len(t, kinds, 5)
	for _, k := range kinds {
		spec, ok := Lookup(k)
		require.True(t, ok)
		assert.NotEmpty(t, spec.Unit)
		assert.NotEmpty(t, spec.Slug)
	}
}

func TestRoundPerKind(t *testing.T) {
	assert.Equal(t, 37.2, Round(domain.KindTemperature, 37.2499))
	assert.Equal(t, 180.0, Round(domain.KindBloodSugar, 179.5))
	assert.Equal(t, 97.0, Round(domain.KindSpO2, 96.6))
	assert.Equal(t, 72.0, Round(domain.KindHeartRate, 72.4))
}

func TestClassifyThresholds(t *testing.T) {
	now := time.Now()
	scalar := func(k domain.VitalKind, v float64) domain.Sample {
		return domain.Sample{Timestamp: now, Kind: k, Value: v}
	}

	assert.Equal(t, LevelVeryHigh, Classify(domain.NewPressureSample(now, 161, 80)))
	assert.Equal(t, LevelVeryHigh, Classify(domain.NewPressureSample(now, 120, 100)))
	assert.Equal(t, LevelHigh, Classify(domain.NewPressureSample(now, 140, 80)))
	assert.Equal(t, LevelHigh, Classify(domain.NewPressureSample(now, 120, 90)))
	assert.Equal(t, LevelNormal, Classify(domain.NewPressureSample(now, 139, 89)))

	assert.Equal(t, LevelVeryHigh, Classify(scalar(domain.KindBloodSugar, 200)))
	assert.Equal(t, LevelHigh, Classify(scalar(domain.KindBloodSugar, 180)))
	assert.Equal(t, LevelNormal, Classify(scalar(domain.KindBloodSugar, 179)))

	assert.Equal(t, LevelLow, Classify(scalar(domain.KindSpO2, 91)))
	assert.Equal(t, LevelNormal, Classify(scalar(domain.KindSpO2, 92)))

	assert.Equal(t, LevelHigh, Classify(scalar(domain.KindHeartRate, 101)))
	assert.Equal(t, LevelNormal, Classify(scalar(domain.KindHeartRate, 100)))
	assert.Equal(t, LevelLow, Classify(scalar(domain.KindHeartRate, 59)))

	assert.Equal(t, LevelHigh, Classify(scalar(domain.KindTemperature, 38.0)))
	assert.Equal(t, LevelNormal, Classify(scalar(domain.KindTemperature, 37.9)))
}
