// Package handler implements the HTTP route handlers of both nodes.
// The echo node answers /health and /echo; the gateway node answers /health
// and /call-echo, relaying the message to the echo node through an upstream
// forwarder.
package handler
