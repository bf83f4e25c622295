// Package diff implements structural comparison of JSON listing snapshots.
// The sweep uses it to decide whether a tracked listing changed materially:
// additions and deletions always count, updates only when they touch a key
// outside the differ's ignorable set.
package diff

import (
	"encoding/json"
	"reflect"
)

// Result classifies the keys that differ between two snapshots. Added holds
// keys present only in the new snapshot, Deleted keys present only in the
// old one, and Updated keys present in both with different values (new value
// kept).
type Result struct {
	Added   map[string]any
	Deleted map[string]any
	Updated map[string]any
}

// Empty reports whether the two snapshots were structurally identical.
func (r Result) Empty() bool {
	return len(r.Added) == 0 && len(r.Deleted) == 0 && len(r.Updated) == 0
}

// Differ compares snapshots under a fixed ignorable-field policy.
type Differ struct {
	ignore map[string]struct{}
}

// New returns a Differ that treats updates to the named keys as
// non-material. Additions and deletions are always material regardless of
// the ignore list.
func New(ignorable ...string) *Differ {
	ig := make(map[string]struct{}, len(ignorable))
	for _, k := range ignorable {
		ig[k] = struct{}{}
	}
	return &Differ{ignore: ig}
}

// Classify compares two JSON snapshots key by key.
func (d *Differ) Classify(oldSnapshot, newSnapshot []byte) (Result, error) {
	var oldDoc, newDoc map[string]any
	if err := json.Unmarshal(oldSnapshot, &oldDoc); err != nil {
		return Result{}, err
	}
	if err := json.Unmarshal(newSnapshot, &newDoc); err != nil {
		return Result{}, err
	}
	return classify(oldDoc, newDoc), nil
}

// Material reports whether a classified result represents a change worth
// persisting: any addition or deletion, or an update outside the ignorable
// set.
func (d *Differ) Material(r Result) bool {
	if len(r.Added) > 0 || len(r.Deleted) > 0 {
		return true
	}
	for k := range r.Updated {
		if _, ok := d.ignore[k]; !ok {
			return true
		}
	}
	return false
}

func classify(oldDoc, newDoc map[string]any) Result {
	r := Result{
		Added:   map[string]any{},
		Deleted: map[string]any{},
		Updated: map[string]any{},
	}
	for k, nv := range newDoc {
		ov, ok := oldDoc[k]
		switch {
		case !ok:
			r.Added[k] = nv
		case !reflect.DeepEqual(ov, nv):
			r.Updated[k] = nv
		}
	}
	for k, ov := range oldDoc {
		if _, ok := newDoc[k]; !ok {
			r.Deleted[k] = ov
		}
	}
	return r
}
