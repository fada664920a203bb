package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Block", func() {
	It("is unlocked until Lock is called", func() {
		b := &Block{}
		Expect(b.IsLocked()).To(BeFalse())

		b.Lock()
		Expect(b.IsLocked()).To(BeTrue())

		b.Unlock()
		Expect(b.IsLocked()).To(BeFalse())
	})

	It("supports nested locks from concurrent protocol steps", func() {
		b := &Block{}
		b.Lock()
		b.Lock()
		Expect(b.IsLocked()).To(BeTrue())

		b.Unlock()
		Expect(b.IsLocked()).To(BeTrue())

		b.Unlock()
		Expect(b.IsLocked()).To(BeFalse())
	})

	It("panics unlocking a block with no outstanding lock", func() {
		b := &Block{}
		Expect(func() { b.Unlock() }).To(Panic())
	})

	It("round-trips a write through ReadAt/WriteAt", func() {
		b := &Block{Data: make([]byte, 64)}
		b.WriteAt(4, []byte{1, 2, 3, 4})

		Expect(b.ReadAt(4, 4)).To(Equal([]byte{1, 2, 3, 4}))
		Expect(b.ReadAt(0, 4)).To(Equal([]byte{0, 0, 0, 0}))
	})
})

var _ = Describe("addressLayout", func() {
	It("decomposes and rebuilds an address losslessly", func() {
		layout := newAddressLayout(128, 64)

		tag, row := layout.decompose(0x12340)
		rebuilt := layout.rebuild(tag, row)

		Expect(rebuilt).To(Equal(uint64(0x12340)))
	})

	It("extracts the block-aligned base and in-block offset", func() {
		layout := newAddressLayout(128, 64)

		Expect(layout.base(0x123)).To(Equal(uint64(0x100)))
		Expect(layout.offset(0x123)).To(Equal(uint64(0x23)))
	})

	It("maps two addresses differing by exactly the row span to the same row", func() {
		layout := newAddressLayout(2, 64)

		_, row1 := layout.decompose(0x000)
		_, row2 := layout.decompose(0x080)

		Expect(row1).To(Equal(row2))
	})

	It("panics on a non-power-of-two blocksize", func() {
		Expect(func() { newAddressLayout(128, 100) }).To(Panic())
	})

	It("panics on a non-power-of-two row count", func() {
		Expect(func() { newAddressLayout(100, 64) }).To(Panic())
	})
})
