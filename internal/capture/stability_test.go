package capture

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeSource is a mock implementation of FrameSource
type fakeSource struct {
	openErr     error
	previewFrm  Frame
	previewErr  error
	snapshotFrm Frame
	snapshotErr error
	opened      bool
	closed      bool
}

func (f *fakeSource) Open() error {
	if f.openErr != nil {
		return f.openErr
	}
	f.opened = true
	return nil
}

func (f *fakeSource) Preview() (Frame, error) {
	return f.previewFrm, f.previewErr
}

func (f *fakeSource) Snapshot() (Frame, error) {
	return f.snapshotFrm, f.snapshotErr
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

// fakeSpeaker records everything spoken
type fakeSpeaker struct {
	spoken []string
}

func (f *fakeSpeaker) Speak(text string) {
	f.spoken = append(f.spoken, text)
}

// fakeHaptics records tactile cues
type fakeHaptics struct {
	successes int
	errors    int
	captures  int
}

func (f *fakeHaptics) Success()  { f.successes++ }
func (f *fakeHaptics) Error()    { f.errors++ }
func (f *fakeHaptics) Captured() { f.captures++ }

var _ = Describe("Controller", func() {
	var (
		source     *fakeSource
		speaker    *fakeSpeaker
		haptics    *fakeHaptics
		captured   [][]byte
		controller *Controller
	)

	BeforeEach(func() {
		source = &fakeSource{
			previewFrm:  texturedFrame(32, 24),
			snapshotFrm: texturedFrame(320, 240),
		}
		speaker = &fakeSpeaker{}
		haptics = &fakeHaptics{}
		captured = nil
		controller = NewController(source, speaker, haptics, func(jpeg []byte) {
			captured = append(captured, jpeg)
		})
	})

	Describe("Start", func() {
		When("the camera cannot be opened", func() {
			BeforeEach(func() {
				source.openErr = errors.New("permission denied")
			})

			It("returns the error", func() {
				Expect(controller.Start()).To(HaveOccurred())
			})

			It("cues the user", func() {
				controller.Start()
				Expect(speaker.spoken).To(ContainElement("I can't see through your camera. Please check your settings."))
				Expect(haptics.errors).To(Equal(1))
			})
		})

		When("the camera opens", func() {
			It("acquires and releases the source", func() {
				Expect(controller.Start()).To(Succeed())
				controller.Stop()
				Expect(source.opened).To(BeTrue())
				Expect(source.closed).To(BeTrue())
			})
		})
	})

	Describe("tick", func() {
		When("eight consecutive previews are good", func() {
			JustBeforeEach(func() {
				for i := 0; i < 8; i++ {
					controller.tick()
				}
			})

			It("fires exactly one capture", func() {
				Expect(captured).To(HaveLen(1))
			})

			It("emits a JPEG payload", func() {
				Expect(captured[0]).NotTo(BeEmpty())
			})

			It("resets the counter", func() {
				Expect(controller.counter).To(Equal(0))
			})

			It("announces the document once on the first good frame", func() {
				Expect(speaker.spoken).To(ContainElement("Document detected. Keep steady."))
				Expect(haptics.successes).To(Equal(1))
			})

			It("plays the capture cue", func() {
				Expect(haptics.captures).To(Equal(1))
			})
		})

		When("seven good previews are followed by a poor one", func() {
			JustBeforeEach(func() {
				for i := 0; i < 7; i++ {
					controller.tick()
				}
				source.previewFrm = uniformFrame(32, 24, 0)
				controller.tick()
			})

			It("fires no capture", func() {
				Expect(captured).To(BeEmpty())
			})

			It("resets the counter", func() {
				Expect(controller.counter).To(Equal(0))
			})

			It("asks the user to hold still", func() {
				Expect(speaker.spoken).To(ContainElement("Please hold still."))
			})
		})

		When("stability is lost after very few good frames", func() {
			JustBeforeEach(func() {
				controller.tick()
				source.previewFrm = uniformFrame(32, 24, 0)
				controller.tick()
			})

			It("does not nag about holding still", func() {
				Expect(speaker.spoken).NotTo(ContainElement("Please hold still."))
			})
		})

		When("the preview cannot be read", func() {
			JustBeforeEach(func() {
				controller.tick()
				source.previewErr = errors.New("camera stalled")
				controller.tick()
			})

			It("leaves the counter untouched", func() {
				Expect(controller.counter).To(Equal(1))
			})
		})

		When("lock-on fires but the full-resolution frame fails validation", func() {
			BeforeEach(func() {
				source.snapshotFrm = uniformFrame(320, 240, 0)
			})

			JustBeforeEach(func() {
				for i := 0; i < 8; i++ {
					controller.tick()
				}
			})

			It("does not emit a payload", func() {
				Expect(captured).To(BeEmpty())
			})

			It("resets the counter", func() {
				Expect(controller.counter).To(Equal(0))
			})

			It("speaks an issue-specific retry message", func() {
				Expect(speaker.spoken).To(ContainElement("It's a bit too dark. Let's try again."))
				Expect(haptics.errors).To(Equal(1))
			})
		})
	})

	Describe("Capture", func() {
		When("the snapshot passes validation", func() {
			JustBeforeEach(func() {
				controller.Capture()
			})

			It("emits a payload without requiring accumulation", func() {
				Expect(captured).To(HaveLen(1))
			})

			It("plays the capture cue", func() {
				Expect(haptics.captures).To(Equal(1))
			})
		})

		When("the snapshot is too bright", func() {
			BeforeEach(func() {
				source.snapshotFrm = uniformFrame(320, 240, 255)
			})

			JustBeforeEach(func() {
				controller.Capture()
			})

			It("rejects the capture", func() {
				Expect(captured).To(BeEmpty())
			})

			It("speaks the brightness retry message", func() {
				Expect(speaker.spoken).To(ContainElement("It's too bright. Let's try again."))
			})
		})

		When("the snapshot cannot be taken", func() {
			BeforeEach(func() {
				source.snapshotErr = errors.New("sensor busy")
			})

			JustBeforeEach(func() {
				controller.Capture()
			})

			It("emits nothing", func() {
				Expect(captured).To(BeEmpty())
			})
		})
	})
})
