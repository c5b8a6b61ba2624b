package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiErrors(t *testing.T) {
	errs := NewMultiErrors()
	assert.False(t, errs.HasErrors())

	errs.Add("spamMin", "must be a number", nil)
	errs.Add("page", "must be an integer", nil)
	errs.Add("page", "must be positive", nil)

	assert.True(t, errs.HasErrors())
	assert.Equal(t, "page: must be an integer | page: must be positive | spamMin: must be a number", errs.Error())
}
