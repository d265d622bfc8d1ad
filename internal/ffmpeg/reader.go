package ffmpeg

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// FrameReader streams a video's frames as raw RGB24 buffers, one
// Width*Height*3 byte slice per frame, decoded by an ffmpeg child process
// writing into a pipe.
type FrameReader struct {
	pipe *io.PipeReader
	buf  []byte
}

// NewFrameReader starts decoding the video at inputPath. Frames arrive in
// the geometry reported by meta; the caller must Close the reader to
// release the decoder.
func (p *Processor) NewFrameReader(inputPath string, meta *VideoMetadata) (*FrameReader, error) {
	if meta == nil || meta.Width <= 0 || meta.Height <= 0 {
		return nil, errors.New("missing video geometry")
	}

	pr, pw := io.Pipe()
	stderr := &bytes.Buffer{}

	stream := ffmpeg.Input(inputPath).
		Output("pipe:", ffmpeg.KwArgs{
			"format":  "rawvideo",
			"pix_fmt": "rgb24",
		}).
		GlobalArgs("-hide_banner", "-loglevel", "error").
		WithOutput(pw, p.stderrSink(stderr))

	go func() {
		err := stream.Run()
		if err != nil {
			err = ffmpegError(err, stderr, "decoding failed")
		}
		// A nil error surfaces as io.EOF on the read side.
		pw.CloseWithError(err)
	}()

	return &FrameReader{
		pipe: pr,
		buf:  make([]byte, meta.FrameSize()),
	}, nil
}

// ReadFrame returns the next frame. The returned slice is reused by the
// following call; io.EOF signals a clean end of stream.
func (r *FrameReader) ReadFrame() ([]byte, error) {
	_, err := io.ReadFull(r.pipe, r.buf)
	switch err {
	case nil:
		return r.buf, nil
	case io.EOF:
		return nil, io.EOF
	case io.ErrUnexpectedEOF:
		return nil, errors.New("video stream ended mid-frame")
	default:
		return nil, err
	}
}

// Close tears down the decoder. Closing mid-stream makes the child
// process exit on its next write.
func (r *FrameReader) Close() error {
	return r.pipe.Close()
}

// stderrSink collects ffmpeg's stderr for error reporting, mirroring it
// to the terminal in verbose mode.
func (p *Processor) stderrSink(buf *bytes.Buffer) io.Writer {
	if p.verbose {
		return io.MultiWriter(buf, os.Stdout)
	}
	return buf
}
