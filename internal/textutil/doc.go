// Package textutil prepares scraped text for republishing: caption cleanup
// and truncation, attribution lines, filesystem-safe tokens, and display
// names for the dashboard and CLI.
package textutil
