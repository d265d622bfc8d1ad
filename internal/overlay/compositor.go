package overlay

import "github.com/pkg/errors"

// Placement is the top-left corner of a stamp in frame coordinates. It
// may lie outside the frame; the visible part is clipped at placement
// time.
type Placement struct {
	X int
	Y int
}

// region is a stamp's clipped footprint on the frame, fixed for a run.
type region struct {
	stamp  *Stamp
	dstX   int
	dstY   int
	srcX   int
	srcY   int
	width  int
	height int
}

// Compositor overwrites prepared stamps into raw RGB24 frames. Stamps are
// clipped against the frame bounds once, when placed; the per-frame work
// is plain row copies.
type Compositor struct {
	frameWidth  int
	frameHeight int
	regions     []region
}

// NewCompositor creates a compositor for frames of the given geometry.
func NewCompositor(frameWidth, frameHeight int) *Compositor {
	return &Compositor{
		frameWidth:  frameWidth,
		frameHeight: frameHeight,
	}
}

// Place adds a stamp at the given position. Parts of the stamp that fall
// outside the frame are clipped; a stamp entirely outside is dropped.
func (c *Compositor) Place(s *Stamp, p Placement) {
	r := region{
		stamp:  s,
		dstX:   p.X,
		dstY:   p.Y,
		width:  s.Width,
		height: s.Height,
	}

	if r.dstX < 0 {
		r.srcX = -r.dstX
		r.width -= r.srcX
		r.dstX = 0
	}
	if r.dstY < 0 {
		r.srcY = -r.dstY
		r.height -= r.srcY
		r.dstY = 0
	}
	if r.dstX+r.width > c.frameWidth {
		r.width = c.frameWidth - r.dstX
	}
	if r.dstY+r.height > c.frameHeight {
		r.height = c.frameHeight - r.dstY
	}

	if r.width <= 0 || r.height <= 0 {
		return
	}
	c.regions = append(c.regions, r)
}

// Composite overwrites every placed stamp into frame, in place. Applying
// the same stamps to the same frame twice yields identical bytes.
func (c *Compositor) Composite(frame []byte) error {
	want := c.frameWidth * c.frameHeight * 3
	if len(frame) != want {
		return errors.Errorf("frame is %d bytes, want %d", len(frame), want)
	}
	for _, r := range c.regions {
		c.apply(frame, r)
	}
	return nil
}

func (c *Compositor) apply(frame []byte, r region) {
	frameStride := c.frameWidth * 3
	stampStride := r.stamp.Width * 3

	for row := 0; row < r.height; row++ {
		dst := (r.dstY+row)*frameStride + r.dstX*3
		src := (r.srcY+row)*stampStride + r.srcX*3

		if r.stamp.Mask == nil {
			copy(frame[dst:dst+r.width*3], r.stamp.Pix[src:src+r.width*3])
			continue
		}

		maskRow := (r.srcY+row)*r.stamp.Width + r.srcX
		for col := 0; col < r.width; col++ {
			if r.stamp.Mask[maskRow+col] != 0 {
				copy(frame[dst+col*3:dst+col*3+3], r.stamp.Pix[src+col*3:src+col*3+3])
			}
		}
	}
}
