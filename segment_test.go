package splitsign

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Segmented transfer", func() {
	const width = 8
	value := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	lo, hi := halves(value)

	Context("Selectors", func() {
		It("Parses only the three legal encodings", func() {
			for _, b := range []byte{0x00, 0x01, 0x02} {
				_, err := ParseSelector(b)
				Expect(err).To(BeNil())
			}
			for _, b := range []byte{0x03, 0x7F, 0xFF} {
				_, err := ParseSelector(b)
				Expect(KindOf(err)).To(Equal(KindInvalidRequest))
			}
		})
	})

	Context("Loading a field", func() {
		var f *field

		BeforeEach(func() {
			f = newField("test", width, false)
		})

		It("Ends up with the same value whole or by halves in either order", func() {
			whole := newField("whole", width, false)
			Expect(whole.load(Single, value)).To(Succeed())

			inOrder := newField("in order", width, false)
			Expect(inOrder.load(Half0, lo)).To(Succeed())
			Expect(inOrder.state).To(Equal(Half0Loaded))
			Expect(inOrder.load(Half1, hi)).To(Succeed())

			reversed := newField("reversed", width, false)
			Expect(reversed.load(Half1, hi)).To(Succeed())
			Expect(reversed.state).To(Equal(Half1Loaded))
			Expect(reversed.load(Half0, lo)).To(Succeed())

			for _, g := range []*field{whole, inOrder, reversed} {
				Expect(g.complete()).To(BeTrue(), g.name)
				Expect(g.buf).To(Equal(value), g.name)
			}
		})

		It("Rejects a half that is already recorded", func() {
			Expect(f.load(Half0, lo)).To(Succeed())
			err := f.load(Half0, hi)
			Expect(KindOf(err)).To(Equal(KindSequenceViolation))
			Expect(f.state).To(Equal(Half0Loaded))
			Expect(f.buf[:width/2]).To(Equal(lo))
		})

		It("Rejects payloads of the wrong size without touching the field", func() {
			Expect(KindOf(f.load(Single, lo))).To(Equal(KindInvalidRequest))
			Expect(KindOf(f.load(Half0, value))).To(Equal(KindInvalidRequest))
			Expect(KindOf(f.load(Selector(0x03), lo))).To(Equal(KindInvalidRequest))
			Expect(f.state).To(Equal(Empty))
		})

		It("Restarts a complete field", func() {
			Expect(f.load(Single, value)).To(Succeed())
			Expect(f.load(Half1, hi)).To(Succeed())
			Expect(f.state).To(Equal(Half1Loaded))
			Expect(f.buf[:width/2]).To(Equal(make([]byte, width/2)))
		})

		It("Restarts a partial field that receives the whole value", func() {
			Expect(f.load(Half0, hi)).To(Succeed())
			Expect(f.load(Single, value)).To(Succeed())
			Expect(f.complete()).To(BeTrue())
			Expect(f.buf).To(Equal(value))
		})

		It("Refuses to reload a complete one-shot field until cleared", func() {
			once := newField("once", width, true)
			Expect(once.load(Half1, hi)).To(Succeed())
			Expect(once.load(Half0, lo)).To(Succeed())
			Expect(KindOf(once.load(Single, value))).To(Equal(KindAlreadyConsumed))
			Expect(KindOf(once.load(Half0, lo))).To(Equal(KindAlreadyConsumed))

			once.clear()
			Expect(once.buf).To(Equal(make([]byte, width)))
			Expect(once.load(Single, value)).To(Succeed())
		})
	})

	Context("Serving a value", func() {
		It("Tracks which halves have been read", func() {
			s := &source{buf: bytes.Clone(value)}
			Expect(s.fullyRead()).To(BeFalse())

			got, err := s.serve(Half1)
			Expect(err).To(BeNil())
			Expect(got).To(Equal(hi))
			Expect(s.fullyRead()).To(BeFalse())

			got, err = s.serve(Half0)
			Expect(err).To(BeNil())
			Expect(got).To(Equal(lo))
			Expect(s.fullyRead()).To(BeTrue())
		})

		It("Counts a single read as both halves", func() {
			s := &source{buf: bytes.Clone(value)}
			got, err := s.serve(Single)
			Expect(err).To(BeNil())
			Expect(got).To(Equal(value))
			Expect(s.fullyRead()).To(BeTrue())
		})

		It("Hands out copies", func() {
			s := &source{buf: bytes.Clone(value)}
			got, _ := s.serve(Single)
			got[0] = 0xFF
			again, _ := s.serve(Single)
			Expect(again).To(Equal(value))
		})

		It("Rejects invalid selectors", func() {
			s := &source{buf: bytes.Clone(value)}
			_, err := s.serve(Selector(0x09))
			Expect(KindOf(err)).To(Equal(KindInvalidRequest))
			Expect(s.fullyRead()).To(BeFalse())
		})
	})
})
