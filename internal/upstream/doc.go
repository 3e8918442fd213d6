// Package upstream implements the gateway's forwarding client.
//
// A Client performs exactly one timeout-bounded GET against the configured
// upstream per call and never returns a Go error to its caller. Every outcome
// is folded into a Result: either Success, carrying the upstream status code
// and JSON body, or Unavailable, tagged with the Reason the call failed.
//
//	switch res := client.Forward(ctx, msg).(type) {
//	case upstream.Success:
//	    // relay res.Body
//	case upstream.Unavailable:
//	    // answer 503 with res.Detail
//	}
//
// The three Unavailable reasons look the same to clients of the gateway; the
// distinction exists for logs and metrics.
package upstream
