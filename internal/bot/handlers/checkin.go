package handlers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vladimiradmaev/mediplus/internal/domain"
	"github.com/vladimiradmaev/mediplus/internal/vitals"
)

var checkInPattern = regexp.MustCompile(
	`^([a-z][a-z0-9 _-]*?)?\s*[:=]?\s*(\d+(?:[.,]\d+)?)(?:\s*/\s*(\d+(?:[.,]\d+)?))?\s*(?:mmhg|bpm|mg/dl|%|°c|c)?$`)

// ParseCheckIn reads a typed reading such as "bp 120/80", "sugar 140" or
// "temp 36.8". A bare number is taken as fallback; a bare pair as blood
// pressure. The returned sample has no timestamp.
func ParseCheckIn(text string, fallback domain.VitalKind) (domain.Sample, error) {
	m := checkInPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(text)))
	if m == nil {
		return domain.Sample{}, fmt.Errorf("could not read %q, try something like \"sugar 140\" or \"bp 120/80\"", text)
	}
	name, first, second := strings.TrimSpace(m[1]), m[2], m[3]

	var kind domain.VitalKind
	switch {
	case name != "":
		k, err := vitals.ParseKind(name)
		if err != nil {
			return domain.Sample{}, err
		}
		kind = k
	case second != "":
		kind = domain.KindBloodPressure
	case fallback != "":
		kind = fallback
	default:
		return domain.Sample{}, fmt.Errorf("which vital is %s? try \"sugar %s\"", first, first)
	}

	v1, err := parseNumber(first)
	if err != nil {
		return domain.Sample{}, err
	}
	if kind == domain.KindBloodPressure {
		if second == "" {
			return domain.Sample{}, fmt.Errorf("blood pressure needs both values, like 120/80")
		}
		v2, err := parseNumber(second)
		if err != nil {
			return domain.Sample{}, err
		}
		if v1 <= 0 || v2 <= 0 || v2 >= v1 {
			return domain.Sample{}, fmt.Errorf("%s/%s is not a valid blood pressure", first, second)
		}
		return domain.Sample{Kind: kind, Pressure: &domain.BloodPressure{Systolic: v1, Diastolic: v2}}, nil
	}
	if second != "" {
		return domain.Sample{}, fmt.Errorf("%s takes a single value", kind)
	}
	if v1 <= 0 {
		return domain.Sample{}, fmt.Errorf("%s must be positive", kind)
	}
	return domain.Sample{Kind: kind, Value: vitals.Round(kind, v1)}, nil
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}
