package reftools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersion(t *testing.T) {
	assert.Equal(t, "dev", Version(), "development builds should report 'dev'")
}

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "reftools/dev", UserAgent())
}
