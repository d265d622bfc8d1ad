package overlay

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/ZacxDev/video-overlay/internal/config"
	ffmpegWrap "github.com/ZacxDev/video-overlay/internal/ffmpeg"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

func requireFFmpeg(t *testing.T) {
	t.Helper()
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not available, skipping", bin)
		}
	}
}

// makeBackground renders a ten frame 128x96 gray test video at 10 fps.
func makeBackground(t *testing.T, path string) {
	t.Helper()
	err := ffmpeg.Input("color=c=gray:s=128x96:r=10:d=1", ffmpeg.KwArgs{"format": "lavfi"}).
		Output(path, ffmpeg.KwArgs{"pix_fmt": "yuv420p", "vframes": 10}).
		OverWriteOutput().
		Run()
	if err != nil {
		t.Fatalf("generating background video: %v", err)
	}
}

// makeOddBackground renders a ten frame 129x96 gray test video at 10 fps.
// The png codec has no subsampling, so it carries the odd width.
func makeOddBackground(t *testing.T, path string) {
	t.Helper()
	err := ffmpeg.Input("color=c=gray:s=129x96:r=10:d=1", ffmpeg.KwArgs{"format": "lavfi"}).
		Output(path, ffmpeg.KwArgs{"c:v": "png", "vframes": 10}).
		OverWriteOutput().
		Run()
	if err != nil {
		t.Fatalf("generating background video: %v", err)
	}
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encoding %s: %v", path, err)
	}
}

func solidNRGBA(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// checkDominant classifies a decoded pixel loosely enough to survive
// lossy encoding.
func checkDominant(t *testing.T, frame []byte, frameWidth, x, y int, want string) {
	t.Helper()
	i := (y*frameWidth + x) * 3
	r, g, b := int(frame[i]), int(frame[i+1]), int(frame[i+2])

	switch want {
	case "red":
		if r-g < 100 || r-b < 100 {
			t.Errorf("pixel (%d,%d) = (%d,%d,%d), want red dominant", x, y, r, g, b)
		}
	case "blue":
		if b-r < 100 || b-g < 100 {
			t.Errorf("pixel (%d,%d) = (%d,%d,%d), want blue dominant", x, y, r, g, b)
		}
	case "gray":
		lo, hi := r, r
		for _, v := range []int{g, b} {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if hi-lo > 50 || hi > 180 || lo < 80 {
			t.Errorf("pixel (%d,%d) = (%d,%d,%d), want gray", x, y, r, g, b)
		}
	}
}

func TestOverlayEndToEnd(t *testing.T) {
	requireFFmpeg(t)

	dir := t.TempDir()
	background := filepath.Join(dir, "bg.mp4")
	makeBackground(t, background)

	leftLogo := filepath.Join(dir, "left.png")
	writePNG(t, leftLogo, solidNRGBA(40, 30, color.NRGBA{R: 255, A: 255}))

	// Right logo: opaque blue left half, fully transparent right half.
	rightImg := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			if x < 20 {
				rightImg.SetNRGBA(x, y, color.NRGBA{B: 255, A: 255})
			} else {
				rightImg.SetNRGBA(x, y, color.NRGBA{})
			}
		}
	}
	rightLogo := filepath.Join(dir, "right.png")
	writePNG(t, rightLogo, rightImg)

	outputPath := filepath.Join(dir, "branded.mp4")
	opts := &config.OverlayOptions{
		BackgroundPath: background,
		LeftLogoPath:   leftLogo,
		RightLogoPath:  rightLogo,
		OutputPath:     outputPath,
		ScaleFactor:    4,
		Margin:         8,
	}

	result, err := NewOverlayer(opts).Process()
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.FramesWritten != 10 {
		t.Errorf("wrote %d frames, want 10", result.FramesWritten)
	}

	proc := ffmpegWrap.NewProcessor(false)
	meta, err := proc.GetVideoMetadata(outputPath)
	if err != nil {
		t.Fatalf("probing output: %v", err)
	}
	if meta.Width != 128 || meta.Height != 96 {
		t.Errorf("output is %dx%d, want 128x96", meta.Width, meta.Height)
	}
	if meta.FrameCount != 10 {
		t.Errorf("output reports %d frames, want 10", meta.FrameCount)
	}
	if meta.FrameRate < 9.9 || meta.FrameRate > 10.1 {
		t.Errorf("output frame rate %f, want ~10", meta.FrameRate)
	}

	reader, err := proc.NewFrameReader(outputPath, meta)
	if err != nil {
		t.Fatalf("opening output for decode: %v", err)
	}
	defer reader.Close()

	frame, err := reader.ReadFrame()
	if err != nil {
		t.Fatalf("decoding first output frame: %v", err)
	}

	// Left logo: 40x30 fits the 32x24 box, placed at (8,8).
	checkDominant(t, frame, 128, 16, 16, "red")
	// Right logo: the 40x40 square becomes 24x24 at x = 128-24-8 = 96,
	// with its blue half covering the first 12 columns.
	checkDominant(t, frame, 128, 100, 12, "blue")
	// The transparent half leaves the background visible.
	checkDominant(t, frame, 128, 116, 12, "gray")
	// Far from both logos the frame is untouched.
	checkDominant(t, frame, 128, 64, 64, "gray")

	count := 1
	for {
		_, err := reader.ReadFrame()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("decoding output frame %d: %v", count+1, err)
		}
		count++
	}
	if count != 10 {
		t.Errorf("decoded %d output frames, want 10", count)
	}
}

func TestOverlayEndToEndScaleOneClips(t *testing.T) {
	requireFFmpeg(t)

	dir := t.TempDir()
	background := filepath.Join(dir, "bg.mp4")
	makeBackground(t, background)

	// At scale factor one the logo box is the whole frame; the stamps
	// overrun the bottom edge and must be clipped, not rejected.
	logo := filepath.Join(dir, "logo.png")
	writePNG(t, logo, solidNRGBA(300, 300, color.NRGBA{B: 255, A: 255}))

	outputPath := filepath.Join(dir, "clipped.mp4")
	opts := &config.OverlayOptions{
		BackgroundPath: background,
		LeftLogoPath:   logo,
		RightLogoPath:  logo,
		OutputPath:     outputPath,
		ScaleFactor:    1,
		Margin:         8,
	}

	result, err := NewOverlayer(opts).Process()
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.FramesWritten != 10 {
		t.Errorf("wrote %d frames, want 10", result.FramesWritten)
	}

	proc := ffmpegWrap.NewProcessor(false)
	meta, err := proc.GetVideoMetadata(outputPath)
	if err != nil {
		t.Fatalf("probing output: %v", err)
	}
	if meta.Width != 128 || meta.Height != 96 {
		t.Errorf("output is %dx%d, want 128x96", meta.Width, meta.Height)
	}

	reader, err := proc.NewFrameReader(outputPath, meta)
	if err != nil {
		t.Fatalf("opening output for decode: %v", err)
	}
	defer reader.Close()

	frame, err := reader.ReadFrame()
	if err != nil {
		t.Fatalf("decoding first output frame: %v", err)
	}

	// The 96x96 stamp runs from (8,8) down past the bottom edge.
	checkDominant(t, frame, 128, 16, 88, "blue")
	// Above the margin the background shows.
	checkDominant(t, frame, 128, 64, 3, "gray")
	// Right of both stamps the background shows.
	checkDominant(t, frame, 128, 125, 50, "gray")
}

func TestOverlayEndToEndEncoderFailureRemovesOutput(t *testing.T) {
	requireFFmpeg(t)

	dir := t.TempDir()
	background := filepath.Join(dir, "bg.mov")
	makeOddBackground(t, background)

	logo := filepath.Join(dir, "logo.png")
	writePNG(t, logo, solidNRGBA(20, 20, color.NRGBA{R: 255, A: 255}))

	outputPath := filepath.Join(dir, "branded.mp4")
	opts := &config.OverlayOptions{
		BackgroundPath: background,
		LeftLogoPath:   logo,
		RightLogoPath:  logo,
		OutputPath:     outputPath,
		ScaleFactor:    4,
		Margin:         8,
	}

	// libx264 with 4:2:0 output rejects the 129 pixel wide frames, so the
	// encoder dies after the run has started.
	_, err := NewOverlayer(opts).Process()
	if err == nil {
		t.Fatal("expected encoder failure for odd width")
	}
	if !errors.Is(err, ErrOutputWrite) {
		t.Errorf("got %v, want ErrOutputWrite", err)
	}

	// Whatever the encoder left behind is cleaned up.
	if _, statErr := os.Stat(outputPath); !os.IsNotExist(statErr) {
		t.Errorf("output %s left behind after failed run", outputPath)
	}
}

func TestBatchEndToEnd(t *testing.T) {
	requireFFmpeg(t)

	dir := t.TempDir()
	background := filepath.Join(dir, "bg.mp4")
	makeBackground(t, background)

	leftLogo := filepath.Join(dir, "left.png")
	writePNG(t, leftLogo, solidNRGBA(20, 20, color.NRGBA{R: 255, A: 255}))

	logoDir := filepath.Join(dir, "partners")
	if err := os.Mkdir(logoDir, 0755); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(logoDir, "acme.png"), solidNRGBA(20, 20, color.NRGBA{G: 255, A: 255}))
	writePNG(t, filepath.Join(logoDir, "umbrella.png"), solidNRGBA(20, 20, color.NRGBA{B: 255, A: 255}))

	outputDir := filepath.Join(dir, "out")
	opts := &config.BatchOverlayOptions{
		BackgroundPath: background,
		LeftLogoPath:   leftLogo,
		LogoDir:        logoDir,
		OutputDir:      outputDir,
		ScaleFactor:    4,
		Margin:         8,
	}

	results, err := NewBatcher(opts).Process()
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	wantNames := map[string]bool{"acme.mp4": true, "umbrella.mp4": true}
	for _, res := range results {
		if !wantNames[filepath.Base(res.OutputPath)] {
			t.Errorf("unexpected output name %s", filepath.Base(res.OutputPath))
		}
		if res.FramesWritten != 10 {
			t.Errorf("%s: wrote %d frames, want 10", res.OutputPath, res.FramesWritten)
		}
		if _, err := os.Stat(res.OutputPath); err != nil {
			t.Errorf("output %s missing: %v", res.OutputPath, err)
		}
	}
}
