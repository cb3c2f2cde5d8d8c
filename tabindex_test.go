package tabindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSystemRequiresIndexName(t *testing.T) {
	_, err := NewSystem("")
	assert.ErrorIs(t, err, ErrIndexNameRequired)
}
