package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("FIFOArbiter", func() {
	var (
		arbiter *FIFOArbiter
		granted []string
	)

	BeforeEach(func() {
		granted = nil
		arbiter = NewFIFOArbiter(func(requester string) {
			granted = append(granted, requester)
		})
	})

	It("grants the first requester immediately", func() {
		arbiter.Request("A", 0)
		Expect(granted).To(Equal([]string{"A"}))
	})

	It("queues a second requester behind the first without granting it yet", func() {
		arbiter.Request("A", 0)
		arbiter.Request("B", 0)

		Expect(granted).To(Equal([]string{"A"}))
	})

	It("grants the next queued requester once the holder is done", func() {
		arbiter.Request("A", 0)
		arbiter.Request("B", 0)
		arbiter.Done("A")

		Expect(granted).To(Equal([]string{"A", "B"}))
	})

	It("ignores a duplicate request from the same requester", func() {
		arbiter.Request("A", 0)
		arbiter.Request("A", 0)

		Expect(granted).To(Equal([]string{"A"}))
	})

	It("grants the next requester when the current holder cancels", func() {
		arbiter.Request("A", 0)
		arbiter.Request("B", 0)
		arbiter.Cancel("A")

		Expect(granted).To(Equal([]string{"A", "B"}))
	})

	It("silently drops a queued, not-yet-granted requester on cancel", func() {
		arbiter.Request("A", 0)
		arbiter.Request("B", 0)
		arbiter.Cancel("B")
		arbiter.Done("A")

		Expect(granted).To(Equal([]string{"A"}))
	})

	It("ignores Done from a requester that does not hold the bus", func() {
		arbiter.Request("A", 0)
		arbiter.Request("B", 0)
		arbiter.Done("B")

		Expect(granted).To(Equal([]string{"A"}))
	})
})
