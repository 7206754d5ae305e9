package document

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Reminders", func() {
	var (
		kv        *memoryKV
		clock     *stubClock
		reminders *Reminders
		doc       StoredDocument
		created   *Reminder
		err       error
	)

	BeforeEach(func() {
		kv = newMemoryKV()
		clock = &stubClock{now: time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)}
		reminders, err = NewRemindersWithDeps(kv, clock)
		Expect(err).NotTo(HaveOccurred())

		doc = StoredDocument{
			ID:       "doc-001",
			Provider: "British Gas",
			Category: "utilities",
			Amount:   156.42,
			DueDate:  "2026-04-01",
		}
	})

	Describe("Create", func() {
		JustBeforeEach(func() {
			created, err = reminders.Create(doc)
		})

		When("the document has a due date", func() {
			It("does not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("schedules a reminder", func() {
				Expect(created).NotTo(BeNil())
				Expect(reminders.All()).To(HaveLen(1))
			})

			It("titles it after the provider and category", func() {
				Expect(created.Title).To(Equal("British Gas utilities"))
			})

			It("carries the amount and due date over", func() {
				Expect(created.Amount).To(Equal(156.42))
				Expect(created.DueDate).To(Equal("2026-04-01"))
			})

			It("links the reminder to the document", func() {
				Expect(created.DocID).To(Equal("doc-001"))
			})
		})

		When("a reminder already exists for the document", func() {
			BeforeEach(func() {
				first, createErr := reminders.Create(doc)
				Expect(createErr).NotTo(HaveOccurred())
				Expect(first).NotTo(BeNil())
			})

			It("creates nothing", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(created).To(BeNil())
			})

			It("leaves exactly one reminder", func() {
				Expect(reminders.All()).To(HaveLen(1))
			})
		})

		When("the due date is the unknown sentinel", func() {
			BeforeEach(func() {
				doc.DueDate = "unknown"
			})

			It("creates no reminder", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(created).To(BeNil())
				Expect(reminders.All()).To(BeEmpty())
			})
		})

		When("the due date is absent", func() {
			BeforeEach(func() {
				doc.DueDate = ""
			})

			It("creates no reminder", func() {
				Expect(created).To(BeNil())
				Expect(reminders.All()).To(BeEmpty())
			})
		})

		When("several documents are scheduled out of order", func() {
			BeforeEach(func() {
				_, createErr := reminders.Create(StoredDocument{ID: "doc-later", Provider: "Aviva", Category: "insurance", DueDate: "2026-06-01"})
				Expect(createErr).NotTo(HaveOccurred())
				_, createErr = reminders.Create(StoredDocument{ID: "doc-sooner", Provider: "Thames Water", Category: "utilities", DueDate: "2026-03-10"})
				Expect(createErr).NotTo(HaveOccurred())
			})

			It("keeps the collection sorted ascending by due date", func() {
				all := reminders.All()
				Expect(all).To(HaveLen(3))
				Expect(all[0].DueDate).To(Equal("2026-03-10"))
				Expect(all[1].DueDate).To(Equal("2026-04-01"))
				Expect(all[2].DueDate).To(Equal("2026-06-01"))
			})
		})
	})

	Describe("Upcoming", func() {
		BeforeEach(func() {
			_, err = reminders.Create(StoredDocument{ID: "doc-past", Provider: "a", Category: "c", DueDate: "2026-01-01"})
			Expect(err).NotTo(HaveOccurred())
			_, err = reminders.Create(StoredDocument{ID: "doc-future", Provider: "b", Category: "c", DueDate: "2026-04-01"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("excludes reminders already due", func() {
			upcoming := reminders.Upcoming()
			Expect(upcoming).To(HaveLen(1))
			Expect(upcoming[0].DocID).To(Equal("doc-future"))
		})

		It("excludes completed reminders", func() {
			for _, item := range reminders.All() {
				_, completeErr := reminders.MarkCompleted(item.ID)
				Expect(completeErr).NotTo(HaveOccurred())
			}
			Expect(reminders.Upcoming()).To(BeEmpty())
		})
	})

	Describe("MarkCompleted", func() {
		var (
			id    string
			found bool
		)

		BeforeEach(func() {
			r, createErr := reminders.Create(doc)
			Expect(createErr).NotTo(HaveOccurred())
			id = r.ID
		})

		JustBeforeEach(func() {
			found, err = reminders.MarkCompleted(id)
		})

		When("the reminder exists", func() {
			It("marks it completed", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(found).To(BeTrue())
				Expect(reminders.All()[0].Completed).To(BeTrue())
			})
		})

		When("the id is unknown", func() {
			BeforeEach(func() {
				id = "no-such-reminder"
			})

			It("is a no-op", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(found).To(BeFalse())
			})
		})
	})

	Describe("NewReminders", func() {
		When("the stored blob is corrupt", func() {
			BeforeEach(func() {
				kv.data[KeyReminders] = []byte("][")
			})

			It("starts empty", func() {
				r, loadErr := NewRemindersWithDeps(kv, clock)
				Expect(loadErr).NotTo(HaveOccurred())
				Expect(r.All()).To(BeEmpty())
			})
		})
	})
})
