// Package daemon ties the pieces together for reelayd: single-instance
// locking, the stale workspace sweep, the scheduling loop, and the dashboard
// API server.
package daemon
