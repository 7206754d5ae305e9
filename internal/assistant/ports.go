package assistant

import "log/slog"

// Speaker voices assistant output through the device's text-to-speech.
type Speaker interface {
	Speak(text string)
}

// Haptics plays tactile cues on the device.
type Haptics interface {
	Success()
	Warning()
	Error()
}

// Earcons plays short recognisable audio cues.
type Earcons interface {
	Alert()
	ScanSuccess()
}

// LogSpeaker logs spoken output instead of voicing it, for headless
// deployments where the frontend does its own speech synthesis.
type LogSpeaker struct{}

func (LogSpeaker) Speak(text string) {
	slog.Info("Speaking", "text", text)
}

// NopHaptics discards tactile cues.
type NopHaptics struct{}

func (NopHaptics) Success() {}
func (NopHaptics) Warning() {}
func (NopHaptics) Error()   {}

// NopEarcons discards audio cues.
type NopEarcons struct{}

func (NopEarcons) Alert()       {}
func (NopEarcons) ScanSuccess() {}
