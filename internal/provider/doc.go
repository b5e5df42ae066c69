// Package provider defines the adapter contracts between the pipeline and the
// external content platform. Source discovers and downloads candidate items;
// Publisher uploads them and reads back engagement metrics. Implementations
// live in subpackages; tests use in-memory fakes.
package provider
