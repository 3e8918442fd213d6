// Package loadtest drives concurrent GET requests at a node and summarizes
// status codes, unavailability details and latency percentiles.
package loadtest
