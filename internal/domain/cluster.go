package domain

// Cluster is a logical grouping identified by ClusterID: exactly one
// ParentID=="" article (the "guide") and zero or more children with
// ParentID set, each with a unique ArticleMode (mode children) or a unique
// TargetKeyword (topic-cluster children). Not stored as its own row;
// reconstructed via a query joining on cluster_id.
type Cluster struct {
	ClusterID string
	Guide     *NarrativePayload
	Children  []*NarrativePayload
}

// CheckClusterInvariant enforces spec §3 invariant 6: if parent_id is set,
// cluster_id must equal the parent's cluster_id.
func CheckClusterInvariant(child, parent *NarrativePayload) error {
	if child.ParentID == "" {
		return nil
	}
	if parent == nil {
		return errMissingField("parent")
	}
	if child.ClusterID != parent.ClusterID {
		return &validationError{field: "cluster_id"}
	}
	return nil
}
