package ffmpeg

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// FrameWriter encodes raw RGB24 frames into a video container through an
// ffmpeg child process reading from a pipe.
type FrameWriter struct {
	pipe   *io.PipeWriter
	done   chan error
	closed bool
}

// NewFrameWriter starts an encoder writing to outputPath. Frames passed
// to WriteFrame must match the given geometry; rate is the frame rate as
// a decimal or rational string such as "30000/1001".
func (p *Processor) NewFrameWriter(outputPath string, width, height int, rate string, settings CodecSettings) (*FrameWriter, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid frame geometry %dx%d", width, height)
	}
	if rate == "" {
		return nil, errors.New("missing frame rate")
	}

	outputKwargs := ffmpeg.KwArgs{
		"c:v":     settings.VideoCodec,
		"format":  settings.ContainerFormat,
		"pix_fmt": "yuv420p",
		"threads": GetOptimalThreadCount(),
	}
	for k, v := range settings.EncoderArgs {
		outputKwargs[k] = v
	}

	pr, pw := io.Pipe()
	stderr := &bytes.Buffer{}
	done := make(chan error, 1)

	stream := ffmpeg.Input("pipe:", ffmpeg.KwArgs{
		"format":    "rawvideo",
		"pix_fmt":   "rgb24",
		"s":         fmt.Sprintf("%dx%d", width, height),
		"framerate": rate,
	}).
		Output(outputPath, outputKwargs).
		GlobalArgs("-hide_banner", "-loglevel", "error").
		OverWriteOutput().
		WithInput(pr).
		WithOutput(io.Discard, p.stderrSink(stderr))

	go func() {
		err := stream.Run()
		if err != nil {
			err = ffmpegError(err, stderr, "encoding failed")
		}
		// Unblock any in-flight WriteFrame once the encoder is gone.
		pr.CloseWithError(err)
		done <- err
	}()

	return &FrameWriter{pipe: pw, done: done}, nil
}

// WriteFrame sends one raw RGB24 frame to the encoder.
func (w *FrameWriter) WriteFrame(frame []byte) error {
	_, err := w.pipe.Write(frame)
	return err
}

// Close signals end of stream and waits for the encoder to flush the
// container. It reports any encode error that has not already surfaced
// through WriteFrame.
func (w *FrameWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.pipe.Close()
	return <-w.done
}
