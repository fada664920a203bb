package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Row", func() {
	var row *Row

	BeforeEach(func() {
		row = NewRow(0, 2, 64)
	})

	It("starts with every block Invalid", func() {
		Expect(row.FindInvalid()).To(Equal(0))
		Expect(row.Blocks[0].Status).To(Equal(Invalid))
		Expect(row.Blocks[1].Status).To(Equal(Invalid))
	})

	It("finds a resident block by tag", func() {
		row.Blocks[1].Status = Shared
		row.Blocks[1].Tag = 0x42

		Expect(row.FindBlock(0x42)).To(Equal(1))
		Expect(row.FindBlock(0x99)).To(Equal(-1))
	})

	It("ignores Invalid blocks when searching by tag", func() {
		row.Blocks[0].Tag = 0x42
		row.Blocks[0].Status = Invalid

		Expect(row.FindBlock(0x42)).To(Equal(-1))
	})

	Describe("LRU tracking", func() {
		It("picks the least-recently-touched unlocked block as victim", func() {
			row.Touch(0)
			row.Touch(1)

			Expect(row.VictimUnlocked()).To(Equal(0))
		})

		It("skips a locked block in favor of the next LRU candidate", func() {
			row.Touch(0)
			row.Touch(1)
			row.Blocks[0].Lock()

			Expect(row.VictimUnlocked()).To(Equal(1))
		})

		It("reports no victim when every block is locked", func() {
			row.Blocks[0].Lock()
			row.Blocks[1].Lock()

			Expect(row.VictimUnlocked()).To(Equal(-1))
		})

		It("moves a touched block to the most-recently-used end", func() {
			row.Touch(0)
			row.Touch(1)
			row.Touch(0)

			Expect(row.VictimUnlocked()).To(Equal(1))
		})
	})

	Describe("waiting queue", func() {
		It("reports nothing waiting for an address with no parked messages", func() {
			Expect(row.HasWaiting(0x100)).To(BeFalse())
			_, ok := row.DequeueWaiting(0x100)
			Expect(ok).To(BeFalse())
		})

		It("dequeues parked messages in FIFO order", func() {
			first := waitEntry{Msg: &CacheMsg{}, Source: Upstream, LinkID: 0}
			second := waitEntry{Msg: &CacheMsg{}, Source: Upstream, LinkID: 1}

			row.EnqueueWaiting(0x100, first)
			row.EnqueueWaiting(0x100, second)
			Expect(row.HasWaiting(0x100)).To(BeTrue())

			got, ok := row.DequeueWaiting(0x100)
			Expect(ok).To(BeTrue())
			Expect(got.LinkID).To(Equal(0))
			Expect(row.HasWaiting(0x100)).To(BeTrue())

			got, ok = row.DequeueWaiting(0x100)
			Expect(ok).To(BeTrue())
			Expect(got.LinkID).To(Equal(1))
			Expect(row.HasWaiting(0x100)).To(BeFalse())
		})
	})
})
