// Package pipeline runs one account's repost cycle: fetch fresh items from
// the account's sources, drop everything already posted, pick one candidate
// at random, download it into a run workspace, publish it, record the post,
// and refresh analytics. Each run is identified by a uuid and cleans up its
// workspace on every exit path.
package pipeline
