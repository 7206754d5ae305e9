package document

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Stats", func() {
	var (
		kv    *memoryKV
		clock *stubClock
		stats *Stats
		err   error
	)

	BeforeEach(func() {
		kv = newMemoryKV()
		clock = &stubClock{now: time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)}
		stats, err = NewStatsWithDeps(kv, clock)
		Expect(err).NotTo(HaveOccurred())
	})

	It("stamps firstUsed on the very first run", func() {
		Expect(stats.Current().FirstUsed).To(Equal(clock.now))
		Expect(stats.Current().LastUsed).To(Equal(clock.now))
	})

	Describe("RecordScan", func() {
		It("counts the scan and the amount", func() {
			Expect(stats.RecordScan(82.50, false)).To(Succeed())

			current := stats.Current()
			Expect(current.DocumentsScanned).To(Equal(1))
			Expect(current.ScamsDetected).To(Equal(0))
			Expect(current.TotalAmountTracked).To(Equal(82.50))
		})

		It("counts scams only when flagged", func() {
			Expect(stats.RecordScan(10, true)).To(Succeed())
			Expect(stats.RecordScan(10, false)).To(Succeed())

			Expect(stats.Current().ScamsDetected).To(Equal(1))
			Expect(stats.Current().DocumentsScanned).To(Equal(2))
		})

		It("treats a NaN amount as zero", func() {
			Expect(stats.RecordScan(math.NaN(), false)).To(Succeed())
			Expect(stats.Current().TotalAmountTracked).To(Equal(0.0))
		})

		It("refreshes lastUsed without touching firstUsed", func() {
			firstUsed := stats.Current().FirstUsed
			clock.now = clock.now.Add(48 * time.Hour)

			Expect(stats.RecordScan(5, false)).To(Succeed())
			Expect(stats.Current().LastUsed).To(Equal(clock.now))
			Expect(stats.Current().FirstUsed).To(Equal(firstUsed))
		})
	})

	Describe("RecordArchived", func() {
		It("counts the archive and refreshes lastUsed", func() {
			clock.now = clock.now.Add(time.Hour)
			Expect(stats.RecordArchived()).To(Succeed())

			current := stats.Current()
			Expect(current.DocumentsArchived).To(Equal(1))
			Expect(current.LastUsed).To(Equal(clock.now))
		})
	})

	It("persists across reloads", func() {
		Expect(stats.RecordScan(20, true)).To(Succeed())

		reloaded, loadErr := NewStatsWithDeps(kv, clock)
		Expect(loadErr).NotTo(HaveOccurred())
		Expect(reloaded.Current().DocumentsScanned).To(Equal(1))
		Expect(reloaded.Current().ScamsDetected).To(Equal(1))
	})

	When("the stored blob is corrupt", func() {
		BeforeEach(func() {
			kv.data[KeyStats] = []byte("%%%")
		})

		It("starts the counters over", func() {
			s, loadErr := NewStatsWithDeps(kv, clock)
			Expect(loadErr).NotTo(HaveOccurred())
			Expect(s.Current().DocumentsScanned).To(Equal(0))
			Expect(s.Current().FirstUsed).To(Equal(clock.now))
		})
	})
})
