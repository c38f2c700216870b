package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleJSONShape(t *testing.T) {
	ts := time.UnixMilli(1710000000000)
	bp := NewPressureSample(ts, 132, 86)

	data, err := json.Marshal(bp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ts":1710000000000,"kind":"Blood Pressure","value":{"sys":132,"dia":86}}`, string(data))

	var decoded Sample
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NotNil(t, decoded.Pressure)
	assert.Equal(t, 132.0, decoded.Pressure.Systolic)
	assert.Equal(t, 86.0, decoded.Pressure.Diastolic)
	assert.True(t, decoded.Timestamp.Equal(ts))
}

func TestScalarSampleRejectsPressureShape(t *testing.T) {
	_, err := NewScalarSample(time.Now(), KindBloodPressure, 120)
	assert.Error(t, err)

	var s Sample
	err = json.Unmarshal([]byte(`{"ts":1,"kind":"Heart Rate","value":{"sys":1,"dia":2}}`), &s)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"ts":1,"kind":"Heart Rate","value":72}`), &s)
	require.NoError(t, err)
	assert.Equal(t, 72.0, s.Value)
	assert.Nil(t, s.Pressure)
}

func TestQuestionStateCloneIsDeep(t *testing.T) {
	st := QuestionState{
		Version:     QuestionStateVersion,
		Specialties: []string{"A"},
		Active:      "A",
		Questions:   map[string][]Question{"A": {{ID: "1", Text: "x?"}}},
	}
	cp := st.Clone()
	cp.Questions["A"][0].Text = "changed"
	cp.Specialties[0] = "B"

	assert.Equal(t, "x?", st.Questions["A"][0].Text)
	assert.Equal(t, "A", st.Specialties[0])
}

func TestQuestionStateCloneEncodesEmptyLists(t *testing.T) {
	st := QuestionState{Version: QuestionStateVersion, Questions: map[string][]Question{}}

	raw, err := json.Marshal(st.Clone())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"specialties":[]`)
}
