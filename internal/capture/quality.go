package capture

// Quality is the overall judgement for a frame.
type Quality string

const (
	QualityGood       Quality = "good"
	QualityPoor       Quality = "poor"
	QualityUnreadable Quality = "unreadable"
)

// Issue names the reason a frame was judged poor.
type Issue string

const (
	IssueTooDark   Issue = "too_dark"
	IssueTooBright Issue = "too_bright"
	IssueBlurry    Issue = "blurry"
)

// Verdict is the result of assessing a single frame.
type Verdict struct {
	Quality Quality `json:"quality"`
	Issue   Issue   `json:"issue,omitempty"`
}

const (
	minBrightness = 40
	maxBrightness = 240
	blurThreshold = 5
	sampleStride  = 4
)

// Assess scores a frame for brightness and sharpness. It is pure and never
// fails; a buffer that cannot hold the declared dimensions is unreadable.
//
// Brightness is the mean perceptual luminance over every pixel. Sharpness is
// checked only when brightness passes: a strided grid over the interior
// pixels, averaging the absolute discrete Laplacian of the red channel. A
// frame too small to yield any interior sample skips the sharpness check.
func Assess(f Frame) Verdict {
	if f.Width <= 0 || f.Height <= 0 || len(f.Pix) < f.Width*f.Height*4 {
		return Verdict{Quality: QualityUnreadable}
	}

	var total float64
	for i := 0; i+2 < f.Width*f.Height*4; i += 4 {
		r := float64(f.Pix[i])
		g := float64(f.Pix[i+1])
		b := float64(f.Pix[i+2])
		total += 0.299*r + 0.587*g + 0.114*b
	}
	avgBrightness := total / float64(f.Width*f.Height)

	if avgBrightness < minBrightness {
		return Verdict{Quality: QualityPoor, Issue: IssueTooDark}
	}
	if avgBrightness > maxBrightness {
		return Verdict{Quality: QualityPoor, Issue: IssueTooBright}
	}

	var variance float64
	count := 0
	for y := 1; y < f.Height-1; y += sampleStride {
		for x := 1; x < f.Width-1; x += sampleStride {
			idx := (y*f.Width + x) * 4
			left := (y*f.Width + (x - 1)) * 4
			right := (y*f.Width + (x + 1)) * 4
			top := ((y-1)*f.Width + x) * 4
			bottom := ((y+1)*f.Width + x) * 4

			center := float64(f.Pix[idx])
			laplace := float64(f.Pix[left]) + float64(f.Pix[right]) +
				float64(f.Pix[top]) + float64(f.Pix[bottom]) - 4*center
			if laplace < 0 {
				laplace = -laplace
			}
			variance += laplace
			count++
		}
	}

	if count > 0 {
		blurScore := variance / float64(count)
		if blurScore < blurThreshold {
			return Verdict{Quality: QualityPoor, Issue: IssueBlurry}
		}
	}

	return Verdict{Quality: QualityGood}
}

// RetryMessage is the spoken cue for a capture rejected at validation time.
func RetryMessage(issue Issue) string {
	var msg string
	switch issue {
	case IssueTooDark:
		msg = "It's a bit too dark."
	case IssueTooBright:
		msg = "It's too bright."
	default:
		msg = "It's a bit blurry."
	}
	return msg + " Let's try again."
}
