package document

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltKV", func() {
	var (
		kv  *BoltKV
		err error
	)

	BeforeEach(func() {
		kv, err = NewBoltKV(filepath.Join(GinkgoT().TempDir(), "sterling.db"))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(kv.Close()).To(Succeed())
	})

	It("round-trips a blob", func() {
		Expect(kv.Set(KeyHistory, []byte(`[{"id":"a"}]`))).To(Succeed())

		data, getErr := kv.Get(KeyHistory)
		Expect(getErr).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte(`[{"id":"a"}]`)))
	})

	It("returns nil for an absent key", func() {
		data, getErr := kv.Get(KeyReminders)
		Expect(getErr).NotTo(HaveOccurred())
		Expect(data).To(BeNil())
	})

	It("keeps collections independent", func() {
		Expect(kv.Set(KeyHistory, []byte("history"))).To(Succeed())
		Expect(kv.Set(KeyStats, []byte("stats"))).To(Succeed())

		data, getErr := kv.Get(KeyStats)
		Expect(getErr).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte("stats")))
	})

	It("overwrites on a second set", func() {
		Expect(kv.Set(KeySettings, []byte("one"))).To(Succeed())
		Expect(kv.Set(KeySettings, []byte("two"))).To(Succeed())

		data, getErr := kv.Get(KeySettings)
		Expect(getErr).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte("two")))
	})
})

var _ = Describe("Settings", func() {
	var (
		kv       *memoryKV
		settings *Settings
		err      error
	)

	BeforeEach(func() {
		kv = newMemoryKV()
		settings, err = NewSettings(kv)
		Expect(err).NotTo(HaveOccurred())
	})

	It("starts with the defaults", func() {
		current := settings.Get()
		Expect(current.Volume).To(Equal(0.3))
		Expect(current.AutoSpeak).To(BeTrue())
		Expect(current.SpeechRate).To(Equal(0.85))
		Expect(current.SpeechPitch).To(Equal(1.05))
	})

	It("persists saved settings across reloads", func() {
		updated := settings.Get()
		updated.AutoSpeak = false
		updated.SpeechRate = 1.2
		Expect(settings.Save(updated)).To(Succeed())

		reloaded, loadErr := NewSettings(kv)
		Expect(loadErr).NotTo(HaveOccurred())
		Expect(reloaded.Get().AutoSpeak).To(BeFalse())
		Expect(reloaded.Get().SpeechRate).To(Equal(1.2))
	})

	When("the stored blob is corrupt", func() {
		BeforeEach(func() {
			kv.data[KeySettings] = []byte("!!")
		})

		It("falls back to the defaults", func() {
			s, loadErr := NewSettings(kv)
			Expect(loadErr).NotTo(HaveOccurred())
			Expect(s.Get()).To(Equal(DefaultSettings()))
		})
	})
})
