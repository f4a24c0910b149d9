package model

import "fmt"

// InstanceID identifies one assistant instance, keyed by the pull request it
// serves. The string form is an external correlation key and must stay stable:
// other systems locate the instance by it.
type InstanceID struct {
	Org    string
	Repo   string
	Number int
}

// String returns the canonical instance key, e.g. "vertesia/studio/pull/42".
func (id InstanceID) String() string {
	return fmt.Sprintf("%s/%s/pull/%d", id.Org, id.Repo, id.Number)
}

// ReviewID returns the key of the code-review sub-process for this pull
// request, e.g. "vertesia/studio/pull/42:review". At most one live review
// process may exist per key.
func (id InstanceID) ReviewID() string {
	return id.String() + ":review"
}

// RepoFullName returns the "org/repo" form used by feature lookups.
func (id InstanceID) RepoFullName() string {
	return id.Org + "/" + id.Repo
}
