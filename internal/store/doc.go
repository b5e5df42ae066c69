// Package store persists reelay state in a single SQLite database: scraped
// candidate items, posted items and their analytics, the manual posting queue,
// per-account cadence timestamps, the append-only activity log, and dashboard
// alert rules.
//
// Every collection carries an account column and all queries scope by it, so
// concurrent pipeline runs for different accounts never observe each other's
// rows. The candidate set for an account is always derivable as available
// shortcodes minus posted shortcodes; CandidateShortcodes evaluates exactly
// that set difference in SQL.
package store
