// Package preprocess turns uploaded images into model input tensors.
package preprocess

import (
	"fmt"
	"image"
	"image/color"

	"github.com/jatin-wig/Brain-Tumor-Detection/internal/model"
	"github.com/nfnt/resize"
)

var filters = map[string]resize.InterpolationFunction{
	"nearest":  resize.NearestNeighbor,
	"bilinear": resize.Bilinear,
	"bicubic":  resize.Bicubic,
	"mitchell": resize.MitchellNetravali,
	"lanczos2": resize.Lanczos2,
	"lanczos3": resize.Lanczos3,
}

// FilterByName looks up a resampling filter.
func FilterByName(name string) (resize.InterpolationFunction, error) {
	f, ok := filters[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	}
	return f, nil
}

// Normalizer resizes images to the model input box and applies the model
// family's pixel transform. It holds no per-image state.
type Normalizer struct {
	width     int
	height    int
	layout    model.Layout
	transform Transform
	filter    resize.InterpolationFunction
}

// NewNormalizer builds a Normalizer matching the model metadata.
func NewNormalizer(m model.Metadata) (*Normalizer, error) {
	transform, err := TransformByName(m.Preprocessing)
	if err != nil {
		return nil, err
	}
	filter, err := FilterByName(m.Resample)
	if err != nil {
		return nil, err
	}
	if m.ImageSize <= 0 {
		return nil, fmt.Errorf("image size must be positive, got %d", m.ImageSize)
	}
	return &Normalizer{
		width:     m.ImageSize,
		height:    m.ImageSize,
		layout:    m.Layout,
		transform: transform,
		filter:    filter,
	}, nil
}

// Normalize converts img with the stock MRI classifier settings: bicubic
// resize, NHWC layout, EfficientNet pixel values.
func Normalize(img image.Image, width, height int) model.Tensor {
	n := &Normalizer{
		width:     width,
		height:    height,
		layout:    model.LayoutNHWC,
		transform: Identity,
		filter:    resize.Bicubic,
	}
	return n.Normalize(img)
}

// Size returns the target width and height.
func (n *Normalizer) Size() (int, int) {
	return n.width, n.height
}

// Normalize forces RGB, stretches to the target box and returns a batch of one.
func (n *Normalizer) Normalize(img image.Image) model.Tensor {
	rgb := ToRGB(img)
	var resized image.Image
	if rgb.Bounds().Empty() {
		resized = image.NewRGBA(image.Rect(0, 0, n.width, n.height))
	} else {
		resized = resize.Resize(uint(n.width), uint(n.height), rgb, n.filter)
	}

	t := model.Tensor{Data: make([]float32, 3*n.width*n.height)}
	if n.layout == model.LayoutNCHW {
		t.Shape = []int64{1, 3, int64(n.height), int64(n.width)}
	} else {
		t.Shape = []int64{1, int64(n.height), int64(n.width), 3}
	}

	plane := n.width * n.height
	n.eachPixel(resized, func(x, y int, r, g, b uint8) {
		c0, c1, c2 := n.transform(float32(r), float32(g), float32(b))
		p := y*n.width + x
		if n.layout == model.LayoutNCHW {
			t.Data[p] = c0
			t.Data[plane+p] = c1
			t.Data[2*plane+p] = c2
		} else {
			t.Data[3*p] = c0
			t.Data[3*p+1] = c1
			t.Data[3*p+2] = c2
		}
	})
	return t
}

func (n *Normalizer) eachPixel(img image.Image, fn func(x, y int, r, g, b uint8)) {
	bounds := img.Bounds()
	w, h := min(bounds.Dx(), n.width), min(bounds.Dy(), n.height)
	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < h; y++ {
			row := rgba.Pix[y*rgba.Stride:]
			for x := 0; x < w; x++ {
				fn(x, y, row[4*x], row[4*x+1], row[4*x+2])
			}
		}
		return
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			fn(x, y, c.R, c.G, c.B)
		}
	}
}

// ToRGB returns an opaque 8-bit RGB copy of img with its origin at (0, 0).
// Transparency is dropped rather than composited, so a pixel keeps its
// unpremultiplied color. Gray images get R = G = B.
func ToRGB(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			i := dst.PixOffset(x, y)
			dst.Pix[i] = c.R
			dst.Pix[i+1] = c.G
			dst.Pix[i+2] = c.B
			dst.Pix[i+3] = 0xff
		}
	}
	return dst
}
