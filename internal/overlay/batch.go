package overlay

import (
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ZacxDev/video-overlay/internal/config"
	ffmpegWrap "github.com/ZacxDev/video-overlay/internal/ffmpeg"
	"github.com/ZacxDev/video-overlay/pkg/types"
	"github.com/pkg/errors"
)

// ProcessedVideo describes one output produced by a batch run.
type ProcessedVideo struct {
	LogoPath      string
	OutputPath    string
	FramesWritten int
}

// Batcher handles overlay runs across a directory of logos
type Batcher struct {
	opts *config.BatchOverlayOptions
}

// NewBatcher creates a new batch overlayer
func NewBatcher(opts *config.BatchOverlayOptions) *Batcher {
	return &Batcher{opts: opts}
}

// Process overlays every regular file in the directory as the right logo,
// against the same background and left logo. Outputs are named after the
// logo files. The first failing run aborts the batch.
func (b *Batcher) Process() ([]ProcessedVideo, error) {
	format, ok := types.ParseOutputFormat(b.opts.OutputFormat)
	if !ok {
		return nil, errors.Errorf("unsupported output format: %s (supported: %s)",
			b.opts.OutputFormat, strings.Join(ffmpegWrap.SupportedFormats(), ", "))
	}
	extension := ffmpegWrap.GetCodecSettings(string(format)).FileExtension

	if b.opts.LogoDir == "" {
		return nil, errors.Wrap(ErrInputNotFound, "logo directory path is empty")
	}
	entries, err := os.ReadDir(b.opts.LogoDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrInputNotFound, "logo directory %q", b.opts.LogoDir)
		}
		return nil, errors.Wrapf(err, "failed to read logo directory %q", b.opts.LogoDir)
	}

	if b.opts.OutputDir == "" {
		return nil, errors.New("output directory is required")
	}
	if err := os.MkdirAll(b.opts.OutputDir, 0755); err != nil {
		return nil, errors.Wrap(err, "error creating output directory")
	}

	res := make([]ProcessedVideo, 0)
	for _, entry := range entries {
		logoPath := filepath.Join(b.opts.LogoDir, entry.Name())

		// Stat follows symlinks; only regular files are logo candidates.
		info, err := os.Stat(logoPath)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		baseName := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		baseName = sanitizeFilename(baseName)
		outputPath := filepath.Join(b.opts.OutputDir, baseName+extension)

		if b.opts.Verbose {
			log.Printf("Overlaying logo %s -> %s\n", logoPath, outputPath)
		}

		overlayer := NewOverlayer(&config.OverlayOptions{
			BackgroundPath: b.opts.BackgroundPath,
			LeftLogoPath:   b.opts.LeftLogoPath,
			RightLogoPath:  logoPath,
			OutputPath:     outputPath,
			ScaleFactor:    b.opts.ScaleFactor,
			Margin:         b.opts.Margin,
			OutputFormat:   b.opts.OutputFormat,
			Verbose:        b.opts.Verbose,
		})

		result, err := overlayer.Process()
		if err != nil {
			return nil, errors.Wrapf(err, "error processing logo %s", logoPath)
		}

		res = append(res, ProcessedVideo{
			LogoPath:      logoPath,
			OutputPath:    result.OutputPath,
			FramesWritten: result.FramesWritten,
		})
	}

	if len(res) == 0 {
		return nil, errors.Errorf("no logo files found in %s", b.opts.LogoDir)
	}
	return res, nil
}

func sanitizeFilename(filename string) string {
	sanitized := filename

	reg := regexp.MustCompile(`[^a-zA-Z0-9-_.]`)
	sanitized = reg.ReplaceAllString(sanitized, "_")

	reg = regexp.MustCompile(`_+`)
	sanitized = reg.ReplaceAllString(sanitized, "_")

	sanitized = strings.Trim(sanitized, "_")

	return sanitized
}
