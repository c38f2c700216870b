package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// VitalKind identifies a measured quantity.
type VitalKind string

const (
	KindBloodPressure VitalKind = "Blood Pressure"
	KindHeartRate     VitalKind = "Heart Rate"
	KindBloodSugar    VitalKind = "Blood Sugar"
	KindSpO2          VitalKind = "SpO2"
	KindTemperature   VitalKind = "Temperature"
)

// View selects the bucket granularity of a series.
type View string

const (
	ViewDay   View = "day"
	ViewMonth View = "month"
	ViewYear  View = "year"
)

// BloodPressure is a systolic/diastolic pair in mmHg.
type BloodPressure struct {
	Systolic  float64 `json:"sys"`
	Diastolic float64 `json:"dia"`
}

// Sample is a single timestamped measurement. Blood pressure samples carry
// Pressure, every other kind carries Value.
type Sample struct {
	Timestamp time.Time
	Kind      VitalKind
	Value     float64
	Pressure  *BloodPressure
}

// NewScalarSample builds a sample for any kind except blood pressure.
func NewScalarSample(ts time.Time, kind VitalKind, value float64) (Sample, error) {
	s := Sample{Timestamp: ts, Kind: kind, Value: value}
	return s, s.Validate()
}

// NewPressureSample builds a blood pressure sample.
func NewPressureSample(ts time.Time, systolic, diastolic float64) Sample {
	return Sample{
		Timestamp: ts,
		Kind:      KindBloodPressure,
		Pressure:  &BloodPressure{Systolic: systolic, Diastolic: diastolic},
	}
}

// Validate checks that the value shape matches the kind.
func (s Sample) Validate() error {
	if s.Kind == "" {
		return fmt.Errorf("sample kind is empty")
	}
	if s.Kind == KindBloodPressure && s.Pressure == nil {
		return fmt.Errorf("blood pressure sample requires systolic and diastolic values")
	}
	if s.Kind != KindBloodPressure && s.Pressure != nil {
		return fmt.Errorf("%s sample cannot carry a pressure pair", s.Kind)
	}
	if s.Timestamp.IsZero() {
		return fmt.Errorf("sample timestamp is zero")
	}
	return nil
}

type sampleJSON struct {
	TS    int64           `json:"ts"`
	Kind  VitalKind       `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the sample as {ts, kind, value} with ts in epoch
// milliseconds and value either a number or {sys, dia}.
func (s Sample) MarshalJSON() ([]byte, error) {
	var (
		raw []byte
		err error
	)
	if s.Kind == KindBloodPressure {
		if s.Pressure == nil {
			return nil, fmt.Errorf("blood pressure sample without pressure")
		}
		raw, err = json.Marshal(s.Pressure)
	} else {
		raw, err = json.Marshal(s.Value)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(sampleJSON{TS: s.Timestamp.UnixMilli(), Kind: s.Kind, Value: raw})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (s *Sample) UnmarshalJSON(data []byte) error {
	var aux sampleJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	out := Sample{Timestamp: time.UnixMilli(aux.TS), Kind: aux.Kind}
	if aux.Kind == KindBloodPressure {
		var bp BloodPressure
		if err := json.Unmarshal(aux.Value, &bp); err != nil {
			return fmt.Errorf("decode blood pressure value: %w", err)
		}
		out.Pressure = &bp
	} else if err := json.Unmarshal(aux.Value, &out.Value); err != nil {
		return fmt.Errorf("decode %s value: %w", aux.Kind, err)
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*s = out
	return nil
}

// Point is one bucket of an aggregated series. Bucket is the day of month,
// the month of year or the hour of day depending on the view. Missing
// values are nil.
type Point struct {
	Bucket    int      `json:"d"`
	Value     *float64 `json:"value,omitempty"`
	Systolic  *float64 `json:"sys,omitempty"`
	Diastolic *float64 `json:"dia,omitempty"`
}

// HasData reports whether any value is present in the bucket.
func (p Point) HasData() bool {
	return p.Value != nil || p.Systolic != nil || p.Diastolic != nil
}

// QuestionSource records who authored a checklist question.
type QuestionSource string

const (
	SourceAI     QuestionSource = "ai"
	SourceUser   QuestionSource = "user"
	SourceMedBot QuestionSource = "medbot"
)

// Question is a checklist item for an appointment.
type Question struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	Checked   bool           `json:"checked"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt,omitzero"`
	Source    QuestionSource `json:"source"`
}

// QuestionStateVersion is the schema version of persisted checklist state.
const QuestionStateVersion = 2

// QuestionState is the whole appointment checklist.
type QuestionState struct {
	Version     int                   `json:"version"`
	Specialties []string              `json:"specialties"`
	Active      string                `json:"active"`
	Questions   map[string][]Question `json:"questions"`
}

// Clone returns a deep copy of the state.
func (s QuestionState) Clone() QuestionState {
	out := QuestionState{
		Version:     s.Version,
		Specialties: append([]string{}, s.Specialties...),
		Active:      s.Active,
		Questions:   make(map[string][]Question, len(s.Questions)),
	}
	for k, v := range s.Questions {
		out.Questions[k] = append([]Question{}, v...)
	}
	return out
}

// HasSpecialty reports whether name is one of the specialties.
func (s QuestionState) HasSpecialty(name string) bool {
	for _, sp := range s.Specialties {
		if sp == name {
			return true
		}
	}
	return false
}

// Sender identifies the author of a chat message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// ChatMessage is one message in a chat session.
type ChatMessage struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession is an ordered conversation with a companion bot.
type ChatSession struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	LastActivity time.Time     `json:"timestamp"`
	Messages     []ChatMessage `json:"messages"`
}

// Clone returns a copy with its own message slice.
func (s ChatSession) Clone() ChatSession {
	s.Messages = append([]ChatMessage{}, s.Messages...)
	return s
}
