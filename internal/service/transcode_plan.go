package service

import (
	"math"

	"cuerpofit_backend/internal/config"
)

// MinVideoBitrate is the floor below which output quality is no longer
// worth the size savings.
const MinVideoBitrate = 180_000

// TranscodePlan is the resolved encoding target for one input video.
type TranscodePlan struct {
	TargetWidth  int
	VideoBitrate int
	AudioBitrate int
}

// ComputePlan derives the output width and bitrate from the source
// characteristics. Low-bitrate sources are already heavily compressed,
// so they get downscaled harder and capped more aggressively; crisp
// high-bitrate sources keep their width and a generous cap.
func ComputePlan(fileSize int64, durationSeconds float64, sourceWidth int, cfg config.TranscodeConfig) TranscodePlan {
	plan := TranscodePlan{
		TargetWidth:  cfg.MaxWidth,
		VideoBitrate: cfg.VideoBitrate,
		AudioBitrate: cfg.AudioBitrate,
	}

	if durationSeconds <= 0 {
		// Duration unknown: no source bitrate to reason about, keep the
		// configured ceiling.
		if sourceWidth > 0 {
			plan.TargetWidth = clampWidth(sourceWidth, cfg.MaxWidth)
		}
		return plan
	}

	origBitrate := float64(fileSize) * 8 / durationSeconds

	var widthScale, safety float64
	switch {
	case origBitrate < 1_200_000:
		widthScale, safety = 0.6, 0.25
	case origBitrate < 3_000_000:
		widthScale, safety = 0.7, 0.5
	default:
		widthScale, safety = 1.0, 0.8
	}

	if sourceWidth > 0 {
		plan.TargetWidth = clampWidth(int(math.Round(float64(sourceWidth)*widthScale)), cfg.MaxWidth)
	}

	pixelScale := 1.0
	if sourceWidth > 0 {
		ratio := float64(plan.TargetWidth) / float64(sourceWidth)
		pixelScale = math.Min(1, ratio*ratio)
	}

	baseChosen := math.Min(float64(cfg.VideoBitrate), math.Max(MinVideoBitrate, origBitrate*pixelScale*safety))
	totalCap := math.Max(MinVideoBitrate, origBitrate*safety-float64(cfg.AudioBitrate))
	plan.VideoBitrate = int(math.Min(baseChosen, totalCap))
	return plan
}

func clampWidth(w, maxWidth int) int {
	if w > maxWidth {
		w = maxWidth
	}
	if w < 320 {
		w = 320
	}
	return w
}
