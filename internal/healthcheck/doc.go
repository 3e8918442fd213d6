// Package healthcheck periodically probes the gateway's upstream and logs
// when it goes down or comes back. The probe only observes: forwarding never
// consults it.
package healthcheck
