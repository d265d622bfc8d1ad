package ffmpeg

import (
	"bytes"
	"encoding/json"
	"math"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type CodecSettings struct {
	VideoCodec      string
	ContainerFormat string
	FileExtension   string
	EncoderArgs     ffmpeg.KwArgs
}

var codecPresets = map[string]CodecSettings{
	"webm": {
		VideoCodec:      "libvpx-vp9",
		ContainerFormat: "webm",
		FileExtension:   ".webm",
		EncoderArgs: ffmpeg.KwArgs{
			"crf":          24,
			"b:v":          0,
			"deadline":     "good",
			"cpu-used":     2,
			"row-mt":       1,
			"tile-columns": 2,
		},
	},
	"mp4": {
		VideoCodec:      "libx264",
		ContainerFormat: "mp4",
		FileExtension:   ".mp4",
		EncoderArgs: ffmpeg.KwArgs{
			"preset":    "medium",
			"crf":       18,
			"profile:v": "high",
			"level":     "4.1",
			"movflags":  "+faststart",
		},
	},
}

func GetCodecSettings(outputFormat string) CodecSettings {
	if settings, ok := codecPresets[outputFormat]; ok {
		return settings
	}
	// Default to MP4 if format not specified or invalid
	return codecPresets["mp4"]
}

// SupportedFormats returns the known output format names, sorted.
func SupportedFormats() []string {
	formats := maps.Keys(codecPresets)
	slices.Sort(formats)
	return formats
}

// VideoMetadata contains metadata about a video file
type VideoMetadata struct {
	Duration   float64
	Width      int
	Height     int
	Codec      string
	FrameRate  float64
	RateString string // frame rate as reported by ffprobe, e.g. "30000/1001"
	FrameCount int    // 0 when the container does not report it
}

// FrameSize returns the byte length of one raw RGB24 frame.
func (m *VideoMetadata) FrameSize() int {
	return m.Width * m.Height * 3
}

// Processor wraps FFmpeg functionality
type Processor struct {
	verbose bool
}

// NewProcessor creates a new FFmpeg processor
func NewProcessor(verbose bool) *Processor {
	return &Processor{
		verbose: verbose,
	}
}

// GetVideoMetadata retrieves metadata about a video file
func (p *Processor) GetVideoMetadata(inputPath string) (*VideoMetadata, error) {
	probe, err := ffmpeg.Probe(inputPath)
	if err != nil {
		return nil, errors.Wrap(err, "error probing video")
	}
	return parseProbe([]byte(probe))
}

func parseProbe(probe []byte) (*VideoMetadata, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(probe, &data); err != nil {
		return nil, errors.WithStack(err)
	}

	streams, ok := data["streams"].([]interface{})
	if !ok || len(streams) == 0 {
		return nil, errors.New("no streams found in video")
	}

	var videoStream map[string]interface{}
	for _, stream := range streams {
		s, ok := stream.(map[string]interface{})
		if !ok {
			continue
		}
		if codecType, _ := s["codec_type"].(string); codecType == "video" {
			videoStream = s
			break
		}
	}

	if videoStream == nil {
		return nil, errors.New("no video stream found")
	}

	width, _ := videoStream["width"].(float64)
	height, _ := videoStream["height"].(float64)
	if width <= 0 || height <= 0 {
		return nil, errors.New("video stream reports no dimensions")
	}
	codec, _ := videoStream["codec_name"].(string)

	rateString, _ := videoStream["r_frame_rate"].(string)
	frameRate := parseRational(rateString)
	if frameRate == 0 {
		if avg, _ := videoStream["avg_frame_rate"].(string); parseRational(avg) != 0 {
			rateString = avg
			frameRate = parseRational(avg)
		}
	}
	if frameRate == 0 {
		return nil, errors.New("could not determine video frame rate")
	}

	frameCount := 0
	if nbFrames, ok := videoStream["nb_frames"].(string); ok {
		if frames, err := strconv.Atoi(strings.TrimSpace(nbFrames)); err == nil {
			frameCount = frames
		}
	}

	var duration float64

	// First try video stream duration
	if durationStr, ok := videoStream["duration"].(string); ok {
		if d, err := strconv.ParseFloat(strings.TrimSpace(durationStr), 64); err == nil {
			duration = d
		}
	}

	// If stream duration is not available, try format duration
	if duration == 0 {
		if format, ok := data["format"].(map[string]interface{}); ok {
			if durationStr, ok := format["duration"].(string); ok {
				if d, err := strconv.ParseFloat(strings.TrimSpace(durationStr), 64); err == nil {
					duration = d
				}
			}
		}
	}

	// If still no duration found, calculate from frame count and rate.
	// Duration stays zero for containers that report neither; the frame
	// loop does not depend on it.
	if duration == 0 && frameCount > 0 {
		duration = float64(frameCount) / frameRate
	}

	return &VideoMetadata{
		Duration:   duration,
		Width:      int(width),
		Height:     int(height),
		Codec:      codec,
		FrameRate:  frameRate,
		RateString: rateString,
		FrameCount: frameCount,
	}, nil
}

// parseRational parses an ffprobe rational such as "30000/1001". It
// returns 0 for anything it cannot parse, including "0/0".
func parseRational(s string) float64 {
	parts := strings.Split(strings.TrimSpace(s), "/")
	switch len(parts) {
	case 1:
		v, err := strconv.ParseFloat(parts[0], 64)
		if err != nil || v < 0 {
			return 0
		}
		return v
	case 2:
		num, err1 := strconv.ParseFloat(parts[0], 64)
		den, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil || den == 0 || num < 0 {
			return 0
		}
		return num / den
	}
	return 0
}

func GetOptimalThreadCount() int {
	cpuCount := runtime.NumCPU()
	// Use 75% of available cores to prevent overload
	return int(math.Max(1, float64(cpuCount)*0.75))
}

// Helper function to ensure correct file extension
func EnsureExtension(filename, extension string) string {
	// Remove any existing video extension
	extensions := []string{".mp4", ".webm", ".mkv", ".avi", ".mov"}
	for _, ext := range extensions {
		filename = strings.TrimSuffix(filename, ext)
	}
	return filename + extension
}

// ffmpegError attaches the last stderr line from a failed ffmpeg run to
// its error, which is otherwise just an exit status.
func ffmpegError(err error, stderr *bytes.Buffer, msg string) error {
	if detail := lastLine(stderr.String()); detail != "" {
		return errors.Wrapf(err, "%s: %s", msg, detail)
	}
	return errors.Wrap(err, msg)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
