// Package videooverlay composites logo images onto video files. It is the
// library surface behind the video-overlay command line tool.
package videooverlay

import (
	"github.com/ZacxDev/video-overlay/internal/config"
	"github.com/ZacxDev/video-overlay/internal/ffmpeg"
	"github.com/ZacxDev/video-overlay/internal/overlay"
)

// OverlayOptions defines options for a single logo overlay run
type OverlayOptions struct {
	BackgroundPath string
	LeftLogoPath   string
	RightLogoPath  string
	OutputPath     string
	ScaleFactor    int // frame-to-logo divisor; must be positive
	Margin         int // pixel inset from the frame edges
	OutputFormat   string
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
	OutputFormat   string
	Verbose        bool
}

// Result describes a finished overlay run.
type Result struct {
	OutputPath    string
	FramesWritten int
}

// ProcessedVideo describes one output produced by a batch run.
type ProcessedVideo struct {
	LogoPath      string
	OutputPath    string
	FramesWritten int
}

// Defaults applied by the command line flags.
const (
	DefaultScaleFactor  = config.DefaultScaleFactor
	DefaultMargin       = config.DefaultMargin
	DefaultOutputFormat = config.DefaultOutputFormat
)

// Error kinds reported by runs; match them with errors.Is.
var (
	ErrInputNotFound      = overlay.ErrInputNotFound
	ErrUnreadableMedia    = overlay.ErrUnreadableMedia
	ErrInvalidScaleFactor = overlay.ErrInvalidScaleFactor
	ErrOutputWrite        = overlay.ErrOutputWrite
)

// Overlay composites the left and right logos onto every frame of the
// background video and writes the result to OutputPath.
func Overlay(opts *OverlayOptions) (*Result, error) {
	o := overlay.NewOverlayer(&config.OverlayOptions{
		BackgroundPath: opts.BackgroundPath,
		LeftLogoPath:   opts.LeftLogoPath,
		RightLogoPath:  opts.RightLogoPath,
		OutputPath:     opts.OutputPath,
		ScaleFactor:    opts.ScaleFactor,
		Margin:         opts.Margin,
		OutputFormat:   opts.OutputFormat,
		Verbose:        opts.Verbose,
	})

	res, err := o.Process()
	if err != nil {
		return nil, err
	}
	return &Result{
		OutputPath:    res.OutputPath,
		FramesWritten: res.FramesWritten,
	}, nil
}

// OverlayBatch runs one overlay per logo file in LogoDir, using each as
// the right logo against the same background and left logo.
func OverlayBatch(opts *BatchOverlayOptions) ([]ProcessedVideo, error) {
	b := overlay.NewBatcher(&config.BatchOverlayOptions{
		BackgroundPath: opts.BackgroundPath,
		LeftLogoPath:   opts.LeftLogoPath,
		LogoDir:        opts.LogoDir,
		OutputDir:      opts.OutputDir,
		ScaleFactor:    opts.ScaleFactor,
		Margin:         opts.Margin,
		OutputFormat:   opts.OutputFormat,
		Verbose:        opts.Verbose,
	})

	processed, err := b.Process()
	if err != nil {
		return nil, err
	}

	res := make([]ProcessedVideo, 0, len(processed))
	for _, v := range processed {
		res = append(res, ProcessedVideo{
			LogoPath:      v.LogoPath,
			OutputPath:    v.OutputPath,
			FramesWritten: v.FramesWritten,
		})
	}
	return res, nil
}

// GetSupportedFormats returns the supported output container formats.
func GetSupportedFormats() []string {
	return ffmpeg.SupportedFormats()
}
