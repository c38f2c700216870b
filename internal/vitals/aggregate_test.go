package vitals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/mediplus/internal/domain"
)

func at(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.Local)
}

func sugar(ts time.Time, v float64) domain.Sample {
	return domain.Sample{Timestamp: ts, Kind: domain.KindBloodSugar, Value: v}
}

func temp(ts time.Time, v float64) domain.Sample {
	return domain.Sample{Timestamp: ts, Kind: domain.KindTemperature, Value: v}
}

func TestDailyInMonthMeanPerDay(t *testing.T) {
	samples := []domain.Sample{
		sugar(at(2024, time.March, 5, 8), 150),
		sugar(at(2024, time.March, 5, 20), 211),
		sugar(at(2024, time.March, 2, 8), 120),
		sugar(at(2024, time.April, 1, 8), 300),
		temp(at(2024, time.March, 5, 8), 36.6),
	}

	pts := DailyInMonth(samples, domain.KindBloodSugar, "2024-03")
	require.Len(t, pts, 2)
	assert.Equal(t, 2, pts[0].Bucket)
	assert.Equal(t, 120.0, *pts[0].Value)
	assert.Equal(t, 5, pts[1].Bucket)
	assert.Equal(t, 181.0, *pts[1].Value) // 180.5 rounds to an integer for mg/dL
	assert.Nil(t, pts[1].Systolic)
}

func TestDailyInMonthTemperatureKeepsOneDecimal(t *testing.T) {
	samples := []domain.Sample{
		temp(at(2024, time.March, 5, 8), 36.6),
		temp(at(2024, time.March, 5, 9), 36.9),
	}
	pts := DailyInMonth(samples, domain.KindTemperature, "2024-03")
	require.Len(t, pts, 1)
	assert.InDelta(t, 36.8, *pts[0].Value, 1e-9)
}

func TestDailyInMonthBloodPressureChannels(t *testing.T) {
	samples := []domain.Sample{
		domain.NewPressureSample(at(2024, time.March, 5, 8), 130, 85),
		domain.NewPressureSample(at(2024, time.March, 5, 9), 141, 90),
	}
	pts := DailyInMonth(samples, domain.KindBloodPressure, "2024-03")
	require.Len(t, pts, 1)
	assert.Nil(t, pts[0].Value)
	assert.Equal(t, 136.0, *pts[0].Systolic) // 135.5
	assert.Equal(t, 88.0, *pts[0].Diastolic) // 87.5
}

func TestDailyInMonthEmpty(t *testing.T) {
	assert.Empty(t, DailyInMonth(nil, domain.KindBloodSugar, "2024-03"))
	assert.Empty(t, DailyInMonth([]domain.Sample{sugar(at(2024, time.March, 1, 0), 100)}, domain.KindBloodSugar, ""))
}

func TestMonthlyInYearAlwaysTwelve(t *testing.T) {
	samples := []domain.Sample{
		sugar(at(2024, time.February, 3, 8), 100),
		sugar(at(2024, time.February, 4, 8), 110),
		sugar(at(2023, time.February, 4, 8), 999),
	}
	pts := MonthlyInYear(samples, domain.KindBloodSugar, 2024)
	require.Len(t, pts, 12)
	for i, p := range pts {
		assert.Equal(t, i+1, p.Bucket)
		if i == 1 {
			assert.Equal(t, 105.0, *p.Value)
			continue
		}
		assert.False(t, p.HasData(), "month %d", i+1)
	}

	empty := MonthlyInYear(nil, domain.KindHeartRate, 2024)
	assert.Len(t, empty, 12)
}

func TestHourlyInDayUsesDayAverage(t *testing.T) {
	samples := []domain.Sample{
		sugar(at(2024, time.March, 5, 8), 140),
		sugar(at(2024, time.March, 5, 21), 160),
		sugar(at(2024, time.March, 6, 8), 400),
	}
	pts := HourlyInDay(samples, domain.KindBloodSugar, "2024-03", 5)
	require.Len(t, pts, 24)
	for h, p := range pts {
		assert.Equal(t, h, p.Bucket)
		require.NotNil(t, p.Value)
		assert.Equal(t, 150.0, *p.Value)
	}

	none := HourlyInDay(samples, domain.KindBloodSugar, "2024-03", 9)
	require.Len(t, none, 24)
	for _, p := range none {
		assert.False(t, p.HasData())
	}
}

func TestMonthsNewestFirstAndFallback(t *testing.T) {
	samples := []domain.Sample{
		sugar(at(2023, time.December, 1, 8), 100),
		sugar(at(2024, time.February, 1, 8), 100),
		sugar(at(2024, time.February, 2, 8), 100),
	}
	assert.Equal(t, []string{"2024-02", "2023-12"}, Months(samples, time.Now()))

	fallback := Months(nil, at(2024, time.March, 10, 0))
	require.Len(t, fallback, 24)
	assert.Equal(t, "2024-03", fallback[0])
	assert.Equal(t, "2022-04", fallback[23])
}

func TestSeriesDispatchAndClamp(t *testing.T) {
	samples := []domain.Sample{sugar(at(2024, time.February, 29, 8), 130)}

	pts, err := Series(samples, domain.KindBloodSugar, domain.ViewDay, "2024-02", 31)
	require.NoError(t, err)
	require.Len(t, pts, 24)
	assert.Equal(t, 130.0, *pts[0].Value)

	pts, err = Series(samples, domain.KindBloodSugar, domain.ViewYear, "2024-02", 0)
	require.NoError(t, err)
	assert.Len(t, pts, 12)

	pts, err = Series(samples, domain.KindBloodSugar, domain.ViewMonth, "2024-02", 0)
	require.NoError(t, err)
	assert.Len(t, pts, 1)

	_, err = Series(samples, domain.KindBloodSugar, domain.ViewMonth, "bad", 0)
	assert.Error(t, err)
}
