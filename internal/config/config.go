package config

// OverlayOptions defines options for a single logo overlay run
type OverlayOptions struct {
	BackgroundPath string
	LeftLogoPath   string
	RightLogoPath  string
	OutputPath     string
	ScaleFactor    int
	Margin         int
	OutputFormat   string // "mp4" or "webm"
	Verbose        bool
}

// BatchOverlayOptions defines options for overlaying a directory of logos
type BatchOverlayOptions struct {
	BackgroundPath string
	LeftLogoPath   string
	LogoDir        string
	OutputDir      string
	ScaleFactor    int
	Margin         int
	OutputFormat   string // "mp4" or "webm"
	Verbose        bool
}

const (
	// DefaultScaleFactor divides the frame dimensions to get the logo box
	DefaultScaleFactor = 4

	// DefaultMargin is the pixel inset between each logo and the frame edge
	DefaultMargin = 10

	// AlphaOpacityThreshold is the minimum alpha at which a logo pixel
	// still overwrites the frame pixel underneath. Anything below is
	// treated as fully transparent; there is no partial blending.
	AlphaOpacityThreshold = 1

	// DefaultOutputFormat is used when no container format is requested
	DefaultOutputFormat = "mp4"

	// ProgressLogInterval is the frame interval between verbose progress logs
	ProgressLogInterval = 100
)
