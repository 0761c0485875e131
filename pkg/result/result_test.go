package result_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spounge-ai/rosetta/pkg/result"
)

type codedErr struct{}

func (codedErr) Error() string       { return "boom" }
func (codedErr) ErrorCode() string   { return "TRANSLATION_FAILED" }
func (codedErr) UserMessage() string { return "Translation failed. Please try again." }

func TestOfPicksBranch(t *testing.T) {
	ok := result.Of(3, nil)
	assert.True(t, ok.Success())

	failed := result.Of(0, errors.New("nope"))
	assert.False(t, failed.Success())
	assert.EqualError(t, failed.Err(), "nope")
}

func TestFailNeverCarriesNilError(t *testing.T) {
	r := result.Fail[int](nil)
	assert.False(t, r.Success())
	assert.Error(t, r.Err())
}

// TestMarshalFailureKeepsCode verifies coded errors keep their code and user message on the wire.
func TestMarshalFailureKeepsCode(t *testing.T) {
	raw, err := json.Marshal(result.Fail[string](codedErr{}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{"code":"TRANSLATION_FAILED","message":"boom","userMessage":"Translation failed. Please try again."}}`, string(raw))

	var back result.Result[string]
	require.NoError(t, json.Unmarshal(raw, &back))
	var coded result.Coded
	require.True(t, errors.As(back.Err(), &coded))
	assert.Equal(t, "TRANSLATION_FAILED", coded.ErrorCode())
}

func TestMarshalSuccess(t *testing.T) {
	raw, err := json.Marshal(result.Ok(map[string]int{"a": 1}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":{"a":1}}`, string(raw))
}
