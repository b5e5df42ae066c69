// Package notifications delivers operator-facing push notifications via ntfy.
// When no topic is configured every notification is a silent no-op, so
// callers never need to branch on whether notifications are enabled.
package notifications
