// Package trending holds the trending-topics store.
//
// A Store owns an ordered list of topic strings. Readers take immutable snapshots;
// writers go through SetTopics, AddTopic, RemoveTopic and Refresh, each of which
// publishes a wholly new snapshot. Components receive the *Store by explicit
// injection; any capability used on a nil, zero-value or closed store reports a
// *ScopeError.
package trending
