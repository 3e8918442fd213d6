package upstream

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("call", func() {
	It("starts out not started", func() {
		var c call
		Expect(c.state).To(Equal(StateNotStarted))
		Expect(c.state.Terminal()).To(BeFalse())
	})

	DescribeTable("moves through in flight to one terminal state",
		func(terminal State) {
			var c call
			c.advance(StateInFlight)
			Expect(c.state.Terminal()).To(BeFalse())

			c.advance(terminal)
			Expect(c.state).To(Equal(terminal))
			Expect(c.state.Terminal()).To(BeTrue())
		},
		Entry("succeeded", StateSucceeded),
		Entry("timed out", StateTimedOut),
		Entry("connection failed", StateConnectionFailed),
		Entry("other failure", StateOtherFailure),
	)

	DescribeTable("rejects invalid transitions",
		func(from []State, next State) {
			var c call
			for _, s := range from {
				c.advance(s)
			}
			Expect(func() { c.advance(next) }).To(Panic())
		},
		Entry("skipping in flight", nil, StateSucceeded),
		Entry("not started twice", nil, StateNotStarted),
		Entry("in flight twice", []State{StateInFlight}, StateInFlight),
		Entry("back to in flight", []State{StateInFlight, StateTimedOut}, StateInFlight),
		Entry("terminal to terminal", []State{StateInFlight, StateSucceeded}, StateOtherFailure),
	)
})

var _ = DescribeTable("formatSeconds",
	func(d time.Duration, want string) {
		Expect(formatSeconds(d)).To(Equal(want))
	},
	Entry("whole seconds keep one decimal", 2*time.Second, "2.0"),
	Entry("fractions are unchanged", 50*time.Millisecond, "0.05"),
	Entry("mixed", 1500*time.Millisecond, "1.5"),
)
