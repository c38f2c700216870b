package insights

import (
	"math"
	"sort"

	"github.com/vladimiradmaev/mediplus/internal/domain"
	"github.com/vladimiradmaev/mediplus/internal/utils"
	"github.com/vladimiradmaev/mediplus/internal/vitals"
)

// Counts is the number of samples per kind.
type Counts struct {
	BloodPressure int `json:"bp"`
	BloodSugar    int `json:"sugar"`
	HeartRate     int `json:"hr"`
	SpO2          int `json:"spo2"`
	Temperature   int `json:"temp"`
}

// Total returns the number of samples across all kinds.
func (c Counts) Total() int {
	return c.BloodPressure + c.BloodSugar + c.HeartRate + c.SpO2 + c.Temperature
}

type PressureStats struct {
	AvgSys       float64 `json:"avgSys"`
	AvgDia       float64 `json:"avgDia"`
	MedSys       float64 `json:"medSys"`
	MedDia       float64 `json:"medDia"`
	HighDays     int     `json:"highDays"`
	VeryHighDays int     `json:"veryHighDays"`
	MinSys       float64 `json:"min"`
	MaxSys       float64 `json:"max"`
	MinDia       float64 `json:"minDia"`
	MaxDia       float64 `json:"maxDia"`
}

type SugarStats struct {
	Avg             float64 `json:"avg"`
	Med             float64 `json:"med"`
	HighDays180     int     `json:"highDays180"`
	VeryHighDays200 int     `json:"veryHighDays200"`
	Min             float64 `json:"min"`
	Max             float64 `json:"max"`
}

type HeartRateStats struct {
	Avg float64 `json:"avg"`
	Med float64 `json:"med"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type SpO2Stats struct {
	Avg       float64 `json:"avg"`
	LowDays92 int     `json:"lowDays92"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
}

type TemperatureStats struct {
	Avg         float64 `json:"avg"`
	FeverDays38 int     `json:"feverDays38"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
}

// Stats is the month-wide summary across all vitals. It doubles as the JSON
// context sent to the completion API. Values of a kind without samples are
// zero; check Counts before reading them.
type Stats struct {
	Month         string           `json:"month"`
	Days          int              `json:"days"`
	Counts        Counts           `json:"counts"`
	BloodPressure PressureStats    `json:"bloodPressure"`
	BloodSugar    SugarStats       `json:"bloodSugar"`
	HeartRate     HeartRateStats   `json:"heartRate"`
	SpO2          SpO2Stats        `json:"spo2"`
	Temperature   TemperatureStats `json:"temperature"`
}

// Empty reports whether the month had no samples at all.
func (s *Stats) Empty() bool {
	return s == nil || s.Counts.Total() == 0
}

// MonthStats summarizes every sample that falls in month ("YYYY-MM").
// It returns nil when month is empty.
func MonthStats(samples []domain.Sample, month string) *Stats {
	if month == "" {
		return nil
	}
	st := &Stats{Month: month}

	var sys, dia, sugar, hr, spo2, temp []float64
	days := make(map[int]struct{})
	bpHigh := make(map[int]struct{})
	bpVery := make(map[int]struct{})
	sugarHigh := make(map[int]struct{})
	sugarVery := make(map[int]struct{})
	spo2Low := make(map[int]struct{})
	fever := make(map[int]struct{})

	for _, s := range samples {
		if utils.MonthKey(s.Timestamp) != month {
			continue
		}
		d := s.Timestamp.Day()
		days[d] = struct{}{}
		level := vitals.Classify(s)

		switch s.Kind {
		case domain.KindBloodPressure:
			if s.Pressure == nil {
				continue
			}
			sys = append(sys, s.Pressure.Systolic)
			dia = append(dia, s.Pressure.Diastolic)
			if level >= vitals.LevelHigh {
				bpHigh[d] = struct{}{}
			}
			if level == vitals.LevelVeryHigh {
				bpVery[d] = struct{}{}
			}
		case domain.KindBloodSugar:
			sugar = append(sugar, s.Value)
			if level >= vitals.LevelHigh {
				sugarHigh[d] = struct{}{}
			}
			if level == vitals.LevelVeryHigh {
				sugarVery[d] = struct{}{}
			}
		case domain.KindHeartRate:
			hr = append(hr, s.Value)
		case domain.KindSpO2:
			spo2 = append(spo2, s.Value)
			if level == vitals.LevelLow {
				spo2Low[d] = struct{}{}
			}
		case domain.KindTemperature:
			temp = append(temp, s.Value)
			if level == vitals.LevelHigh {
				fever[d] = struct{}{}
			}
		}
	}

	st.Days = len(days)
	st.Counts = Counts{
		BloodPressure: len(sys),
		BloodSugar:    len(sugar),
		HeartRate:     len(hr),
		SpO2:          len(spo2),
		Temperature:   len(temp),
	}

	st.BloodPressure = PressureStats{
		AvgSys:       math.Round(mean(sys)),
		AvgDia:       math.Round(mean(dia)),
		MedSys:       median(sys),
		MedDia:       median(dia),
		HighDays:     len(bpHigh),
		VeryHighDays: len(bpVery),
	}
	st.BloodPressure.MinSys, st.BloodPressure.MaxSys = minMax(sys)
	st.BloodPressure.MinDia, st.BloodPressure.MaxDia = minMax(dia)

	st.BloodSugar = SugarStats{
		Avg:             math.Round(mean(sugar)),
		Med:             median(sugar),
		HighDays180:     len(sugarHigh),
		VeryHighDays200: len(sugarVery),
	}
	st.BloodSugar.Min, st.BloodSugar.Max = minMax(sugar)

	st.HeartRate = HeartRateStats{Avg: math.Round(mean(hr)), Med: median(hr)}
	st.HeartRate.Min, st.HeartRate.Max = minMax(hr)

	st.SpO2 = SpO2Stats{Avg: math.Round(mean(spo2)), LowDays92: len(spo2Low)}
	st.SpO2.Min, st.SpO2.Max = minMax(spo2)

	st.Temperature = TemperatureStats{
		Avg:         vitals.Round(domain.KindTemperature, mean(temp)),
		FeverDays38: len(fever),
	}
	st.Temperature.Min, st.Temperature.Max = minMax(temp)

	return st
}

// LatestMonth returns the newest month key present in samples, or "".
func LatestMonth(samples []domain.Sample) string {
	latest := ""
	for _, s := range samples {
		if k := utils.MonthKey(s.Timestamp); k > latest {
			latest = k
		}
	}
	return latest
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// median of an even-length list is the rounded mean of the two middle values.
func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	a := append([]float64(nil), xs...)
	sort.Float64s(a)
	mid := len(a) / 2
	if len(a)%2 == 1 {
		return a[mid]
	}
	return math.Round((a[mid-1] + a[mid]) / 2)
}

func minMax(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}
