package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTargetDayOrDefault(t *testing.T) {
	st := &Settings{}
	assert.Equal(t, "Friday", st.TargetDayOrDefault())

	st.TargetDay = "Monday"
	assert.Equal(t, "Monday", st.TargetDayOrDefault())
}

func TestExpectedSites(t *testing.T) {
	st := &Settings{}
	assert.Nil(t, st.ExpectedSites())

	st.ExpectedTokens = "alpha\nbeta"
	assert.Equal(t, []string{"alpha", "beta"}, st.ExpectedSites())

	// CRLF from browser textareas is normalized, entries are not trimmed
	st.ExpectedTokens = "alpha\r\n beta \r\n"
	assert.Equal(t, []string{"alpha", " beta ", ""}, st.ExpectedSites())
}
