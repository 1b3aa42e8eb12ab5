package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryLifecycle(t *testing.T) {
	Reset()
	assert.False(t, IsEnabled())
	assert.Nil(t, GetRegistry())
	assert.Nil(t, NewCacheMetrics())

	reg := InitRegistry("cms")
	t.Cleanup(Reset)

	assert.True(t, IsEnabled())
	assert.Same(t, reg, GetRegistry())
	assert.Equal(t, "cms", Namespace())

	Reset()
	assert.Equal(t, "strata", Namespace())
}
