// Package metrics holds the tally scope plumbing shared by the client and
// the worker: a TaggedScope that caches tagged sub-scopes so hot paths do
// not re-allocate them per task, and the metric names the runtime emits.
package metrics

import (
	"sync"

	"github.com/facebookgo/clock"
	"github.com/uber-go/tally"
)

// TaggedScope provides metric scope with tags, caching the tagged
// sub-scopes so repeated lookups with the same tag values are cheap.
type TaggedScope struct {
	tally.Scope
	*sync.Map
}

// NewTaggedScope create a new TaggedScope
func NewTaggedScope(scope tally.Scope) *TaggedScope {
	if scope == nil {
		scope = tally.NoopScope
	}
	return &TaggedScope{Scope: scope, Map: &sync.Map{}}
}

// GetTaggedScope return a scope with one or multiple tags,
// input should be key value pairs like: GetTaggedScope(scope, tag1, val1, tag2, val2).
func (ts *TaggedScope) GetTaggedScope(keyValuePairs ...string) tally.Scope {
	if len(keyValuePairs)%2 != 0 {
		panic("GetTaggedScope key value are not in pairs")
	}
	if ts.Map == nil {
		ts.Map = &sync.Map{}
	}

	key := ""
	tagsMap := map[string]string{}
	for i := 0; i < len(keyValuePairs); i += 2 {
		tagName := keyValuePairs[i]
		tagValue := keyValuePairs[i+1]
		key += tagName + ":" + tagValue + "-"
		tagsMap[tagName] = tagValue
	}

	taggedScope, ok := ts.Load(key)
	if !ok {
		ts.Store(key, ts.Scope.Tagged(tagsMap))
		taggedScope, _ = ts.Load(key)
	}
	if taggedScope == nil {
		panic("metric scope cannot be tagged")
	}

	return taggedScope.(tally.Scope)
}

// WrapScope wraps a scope and skips recording metrics when isReplay is
// true, so replayed workflow tasks do not double-count what the original
// execution already reported. The clock lets tests drive stopwatch time.
func WrapScope(isReplay *bool, scope tally.Scope, clock clock.Clock) tally.Scope {
	return &replayAwareScope{isReplay: isReplay, scope: scope, clock: clock}
}
