package pipelineconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGraphID_Defaults(t *testing.T) {
	c := Load()
	assert.Equal(t, "finance-knowledge", c.GraphID("placement"))
	assert.Equal(t, "relocation", c.GraphID("relocation"))
	assert.Equal(t, "jobs", c.GraphID("jobs"))
	assert.Equal(t, "finance-knowledge", c.GraphID("unknown-app"))
}

func TestRegion_Defaults(t *testing.T) {
	c := Load()
	assert.Equal(t, "uk", c.Region("UK"))
	assert.Equal(t, "de", c.Region("eu"))
	assert.Equal(t, "us", c.Region("zz"))
}

func TestVoiceFor_Unknown(t *testing.T) {
	c := Load()
	v := c.VoiceFor("totally-unknown")
	assert.NotEmpty(t, v.Tone)
}
