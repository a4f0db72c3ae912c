package sl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, "boom", attr.Value.String())

	attr = Err(nil)
	assert.Equal(t, "<nil>", attr.Value.String())
}
