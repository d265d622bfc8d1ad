package overlay

import (
	"image"
	"image/color"
	"os"

	// Register decoders for the common logo formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// Stamp is a logo prepared for compositing: resized to its on-frame size
// and flattened to raw RGB24 rows. Mask holds one byte per pixel (1 means
// the pixel paints, 0 means the frame shows through); a nil Mask marks a
// fully opaque stamp.
type Stamp struct {
	Width  int
	Height int
	Pix    []byte
	Mask   []byte
}

// LoadLogo decodes a logo image from disk.
func LoadLogo(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}
	return img, nil
}

// FitLogoSize computes the size a logo is scaled to for a given frame.
// The target box is the frame divided by scaleFactor in both dimensions;
// the logo keeps its own aspect ratio inside that box, so a wide logo
// takes the box width and a tall one the box height. Dimensions never
// drop below one pixel.
func FitLogoSize(logoWidth, logoHeight, frameWidth, frameHeight, scaleFactor int) (int, int) {
	boxWidth := frameWidth / scaleFactor
	boxHeight := frameHeight / scaleFactor

	aspect := float64(logoWidth) / float64(logoHeight)

	var width, height int
	if aspect > 1 {
		width = boxWidth
		height = int(float64(boxWidth) / aspect)
	} else {
		height = boxHeight
		width = int(float64(boxHeight) * aspect)
	}

	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return width, height
}

// PrepareStamp resizes a decoded logo to the target size and flattens it
// for the frame loop. alphaThreshold is the minimum alpha at which a
// pixel still paints; a stamp whose pixels all paint drops its mask.
func PrepareStamp(logo image.Image, targetWidth, targetHeight int, alphaThreshold uint8) (*Stamp, error) {
	bounds := logo.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, errors.New("logo has no pixels")
	}
	if targetWidth < 1 || targetHeight < 1 {
		return nil, errors.Errorf("invalid stamp size %dx%d", targetWidth, targetHeight)
	}

	resized := resize.Resize(uint(targetWidth), uint(targetHeight), logo, resize.Bicubic)
	return flattenStamp(resized, alphaThreshold), nil
}

// flattenStamp converts an image into interleaved RGB bytes plus a paint
// mask, reading alpha in non-premultiplied form.
func flattenStamp(img image.Image, alphaThreshold uint8) *Stamp {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	s := &Stamp{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*3),
		Mask:   make([]byte, width*height),
	}

	opaque := true
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			s.Pix[i*3] = c.R
			s.Pix[i*3+1] = c.G
			s.Pix[i*3+2] = c.B
			if c.A >= alphaThreshold {
				s.Mask[i] = 1
			} else {
				opaque = false
			}
			i++
		}
	}

	if opaque {
		s.Mask = nil
	}
	return s
}
