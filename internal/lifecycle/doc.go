// Package lifecycle instruments every inbound request of a node.
//
// The middleware stores a RequestContext in the request's context.Context on
// arrival, buffers the handler's response, and once the status is final logs
// exactly one latency record before releasing the response unchanged:
//
//	GET /call-echo 200 12.34ms
//
// Because the start instant lives in the request context, concurrent requests
// never observe each other's timings.
package lifecycle
