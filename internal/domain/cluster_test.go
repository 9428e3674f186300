package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckClusterInvariant(t *testing.T) {
	parent := &NarrativePayload{ClusterID: "c1"}
	child := &NarrativePayload{ClusterID: "c1", ParentID: "parent-id"}
	assert.NoError(t, CheckClusterInvariant(child, parent))

	mismatched := &NarrativePayload{ClusterID: "other", ParentID: "parent-id"}
	assert.Error(t, CheckClusterInvariant(mismatched, parent))

	noParent := &NarrativePayload{}
	assert.NoError(t, CheckClusterInvariant(noParent, nil))
}
