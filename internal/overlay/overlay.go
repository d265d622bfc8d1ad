package overlay

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZacxDev/video-overlay/internal/config"
	ffmpegWrap "github.com/ZacxDev/video-overlay/internal/ffmpeg"
	"github.com/ZacxDev/video-overlay/pkg/types"
	"github.com/pkg/errors"
)

// Result describes a finished overlay run.
type Result struct {
	OutputPath    string
	FramesWritten int
}

// Overlayer handles logo overlay runs
type Overlayer struct {
	opts   *config.OverlayOptions
	ffmpeg *ffmpegWrap.Processor
}

// NewOverlayer creates a new logo overlayer
func NewOverlayer(opts *config.OverlayOptions) *Overlayer {
	return &Overlayer{
		opts:   opts,
		ffmpeg: ffmpegWrap.NewProcessor(opts.Verbose),
	}
}

// Process runs the overlay. It validates the options, probes the video,
// prepares both logo stamps once, then streams every frame through the
// compositor into the encoder. All validation happens before the output
// file exists; a failure mid-stream removes the partial file.
func (o *Overlayer) Process() (*Result, error) {
	if o.opts.ScaleFactor <= 0 {
		return nil, errors.Wrapf(ErrInvalidScaleFactor, "got %d", o.opts.ScaleFactor)
	}
	if o.opts.Margin < 0 {
		return nil, errors.Errorf("margin must not be negative, got %d", o.opts.Margin)
	}
	format, ok := types.ParseOutputFormat(o.opts.OutputFormat)
	if !ok {
		return nil, errors.Errorf("unsupported output format: %s (supported: %s)",
			o.opts.OutputFormat, strings.Join(ffmpegWrap.SupportedFormats(), ", "))
	}
	if o.opts.OutputPath == "" {
		return nil, errors.New("output path is required")
	}

	// Fail on missing inputs before anything is written.
	for _, in := range []struct{ label, path string }{
		{"background video", o.opts.BackgroundPath},
		{"left logo", o.opts.LeftLogoPath},
		{"right logo", o.opts.RightLogoPath},
	} {
		if in.path == "" {
			return nil, errors.Wrapf(ErrInputNotFound, "%s path is empty", in.label)
		}
		if _, err := os.Stat(in.path); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Wrapf(ErrInputNotFound, "%s %q", in.label, in.path)
			}
			return nil, errors.Wrapf(err, "failed to stat %s %q", in.label, in.path)
		}
	}

	metadata, err := o.ffmpeg.GetVideoMetadata(o.opts.BackgroundPath)
	if err != nil {
		return nil, errors.Wrapf(ErrUnreadableMedia, "background video %q: %v", o.opts.BackgroundPath, err)
	}

	if o.opts.Verbose {
		log.Printf("Video metadata: Duration=%.2fs, Resolution=%dx%d, FPS=%.3f, Codec=%s\n",
			metadata.Duration, metadata.Width, metadata.Height, metadata.FrameRate, metadata.Codec)
	}

	left, err := o.prepareStamp(o.opts.LeftLogoPath, metadata)
	if err != nil {
		return nil, err
	}
	right, err := o.prepareStamp(o.opts.RightLogoPath, metadata)
	if err != nil {
		return nil, err
	}

	compositor := NewCompositor(metadata.Width, metadata.Height)
	compositor.Place(left, Placement{X: o.opts.Margin, Y: o.opts.Margin})
	compositor.Place(right, Placement{
		X: metadata.Width - right.Width - o.opts.Margin,
		Y: o.opts.Margin,
	})

	settings := ffmpegWrap.GetCodecSettings(string(format))
	outputPath := ensureOutputPath(o.opts.OutputPath, settings.FileExtension)

	reader, err := o.ffmpeg.NewFrameReader(o.opts.BackgroundPath, metadata)
	if err != nil {
		return nil, errors.Wrapf(ErrUnreadableMedia, "background video %q: %v", o.opts.BackgroundPath, err)
	}
	defer reader.Close()

	writer, err := o.ffmpeg.NewFrameWriter(outputPath, metadata.Width, metadata.Height, metadata.RateString, settings)
	if err != nil {
		return nil, errors.Wrapf(ErrOutputWrite, "%q: %v", outputPath, err)
	}

	frames, err := o.composite(reader, writer, compositor)
	closeErr := writer.Close()
	if err == nil && closeErr != nil {
		err = errors.Wrapf(ErrOutputWrite, "%q: %v", outputPath, closeErr)
	}
	if err != nil {
		o.removePartialOutput(outputPath)
		return nil, err
	}

	if o.opts.Verbose {
		log.Printf("Wrote %d frames to %s\n", frames, outputPath)
	}

	return &Result{
		OutputPath:    outputPath,
		FramesWritten: frames,
	}, nil
}

// composite pumps frames from the decoder through the compositor into
// the encoder until the input ends.
func (o *Overlayer) composite(reader *ffmpegWrap.FrameReader, writer *ffmpegWrap.FrameWriter, compositor *Compositor) (int, error) {
	frames := 0
	for {
		frame, err := reader.ReadFrame()
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return frames, errors.Wrapf(ErrUnreadableMedia, "frame %d: %v", frames+1, err)
		}

		if err := compositor.Composite(frame); err != nil {
			return frames, errors.WithStack(err)
		}

		if err := writer.WriteFrame(frame); err != nil {
			return frames, errors.Wrapf(ErrOutputWrite, "frame %d: %v", frames+1, err)
		}
		frames++

		if o.opts.Verbose && frames%config.ProgressLogInterval == 0 {
			log.Printf("Composited %d frames\n", frames)
		}
	}
}

// prepareStamp loads a logo and scales it for the probed frame geometry.
func (o *Overlayer) prepareStamp(path string, metadata *ffmpegWrap.VideoMetadata) (*Stamp, error) {
	logo, err := LoadLogo(path)
	if err != nil {
		return nil, errors.Wrapf(ErrUnreadableMedia, "logo %q: %v", path, err)
	}

	bounds := logo.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, errors.Wrapf(ErrUnreadableMedia, "logo %q has no pixels", path)
	}

	width, height := FitLogoSize(bounds.Dx(), bounds.Dy(), metadata.Width, metadata.Height, o.opts.ScaleFactor)
	stamp, err := PrepareStamp(logo, width, height, config.AlphaOpacityThreshold)
	if err != nil {
		return nil, errors.Wrapf(ErrUnreadableMedia, "logo %q: %v", path, err)
	}

	if o.opts.Verbose {
		log.Printf("Prepared logo %s: %dx%d -> %dx%d\n", path, bounds.Dx(), bounds.Dy(), width, height)
	}
	return stamp, nil
}

// removePartialOutput drops a half-written container after a failed run.
func (o *Overlayer) removePartialOutput(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		if o.opts.Verbose {
			log.Printf("Warning: failed to remove partial output %s: %v\n", path, err)
		}
	}
}

func ensureOutputPath(path, extension string) string {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			// Log error but continue - the actual file operation will fail if needed
			log.Printf("Warning: failed to create directory %s: %v", dir, err)
		}
	}

	return filepath.Join(dir, ffmpegWrap.EnsureExtension(filepath.Base(path), extension))
}
