package reader

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/figharvest/figharvest/core"
)

// ErrUnsupportedEncoding is returned when an image's pixels cannot be decoded
// by the engine (JPEG 2000, JBIG2, Lab and other exotic color spaces).
var ErrUnsupportedEncoding = errors.New("unsupported image encoding")

// PageImage represents an image XObject with its decoded sample data.
type PageImage struct {
	Name             string // XObject name (e.g., "Im1")
	ObjectID         string // "obj<N>" for indirect objects, empty otherwise
	Width            int
	Height           int
	ColorSpace       string // DeviceGray, DeviceRGB, DeviceCMYK, Indexed or Separation
	Components       int    // samples per pixel; derived from ColorSpace when zero
	BitsPerComponent int
	Data             []byte        // Decoded sample data (still JPEG for DCTDecode)
	Filter           string        // Last filter of the chain (for format detection)
	Palette          color.Palette // Indexed color spaces only
	Invert           bool          // /Decode [1 0]
	ImageMask        bool
	SMask            *PageImage // soft mask, used as alpha
}

// LoadImage reads an image XObject stream. ref may be nil for direct
// objects.
func (r *Reader) LoadImage(name string, ref *core.IndirectRef, stream *core.Stream) (*PageImage, error) {
	img, err := r.loadImage(name, stream)
	if err != nil {
		return nil, err
	}
	if ref != nil {
		img.ObjectID = fmt.Sprintf("obj%d", ref.Number)
	}

	if smaskObj := stream.Dict.Get("SMask"); smaskObj != nil {
		if resolved, err := r.Resolve(smaskObj); err == nil {
			if smaskStream, ok := resolved.(*core.Stream); ok {
				// a broken soft mask leaves the image opaque
				if smask, err := r.loadImage(name+"#smask", smaskStream); err == nil {
					img.SMask = smask
				}
			}
		}
	}
	return img, nil
}

func (r *Reader) loadImage(name string, stream *core.Stream) (*PageImage, error) {
	dict := stream.Dict

	width, ok := dict.GetInt("Width")
	if !ok {
		return nil, fmt.Errorf("image %s missing Width", name)
	}
	height, ok := dict.GetInt("Height")
	if !ok {
		return nil, fmt.Errorf("image %s missing Height", name)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("image %s has invalid size %dx%d", name, width, height)
	}

	img := &PageImage{
		Name:             name,
		Width:            int(width),
		Height:           int(height),
		BitsPerComponent: 8,
		Filter:           lastFilter(dict.Get("Filter")),
	}

	if mask, ok := dict.GetBool("ImageMask"); ok && bool(mask) {
		img.ImageMask = true
		img.ColorSpace = "DeviceGray"
		img.Components = 1
		img.BitsPerComponent = 1
	} else {
		if bpc, ok := dict.GetInt("BitsPerComponent"); ok {
			img.BitsPerComponent = int(bpc)
		}
		if csObj := dict.Get("ColorSpace"); csObj != nil {
			if err := r.parseColorSpace(img, csObj); err != nil {
				return nil, fmt.Errorf("image %s: %w", name, err)
			}
		} else if img.Filter != "DCTDecode" && img.Filter != "JPXDecode" {
			img.ColorSpace = "DeviceGray"
			img.Components = 1
		}
	}

	if decode, ok := dict.GetArray("Decode"); ok && len(decode) >= 2 {
		lo, _ := numberValue(decode[0])
		hi, _ := numberValue(decode[1])
		// XOR with any inversion implied by the color space
		img.Invert = img.Invert != (lo > hi)
	}

	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode image stream: %w", err)
	}
	img.Data = data

	return img, nil
}

// lastFilter returns the filter applied last, which determines the encoding
// of the decoded data.
func lastFilter(obj core.Object) string {
	switch v := obj.(type) {
	case core.Name:
		return canonicalFilter(string(v))
	case core.Array:
		if len(v) > 0 {
			if name, ok := v[len(v)-1].(core.Name); ok {
				return canonicalFilter(string(name))
			}
		}
	}
	return ""
}

func canonicalFilter(name string) string {
	switch name {
	case "DCT":
		return "DCTDecode"
	case "Fl":
		return "FlateDecode"
	case "CCF":
		return "CCITTFaxDecode"
	case "LZW":
		return "LZWDecode"
	case "RL":
		return "RunLengthDecode"
	}
	return name
}

// parseColorSpace resolves a color space object into the image's family,
// component count and, for Indexed spaces, its palette.
func (r *Reader) parseColorSpace(img *PageImage, obj core.Object) error {
	resolved, err := r.Resolve(obj)
	if err != nil {
		return fmt.Errorf("failed to resolve color space: %w", err)
	}

	switch v := resolved.(type) {
	case core.Name:
		return setDeviceSpace(img, string(v))
	case core.Array:
		if len(v) == 0 {
			return fmt.Errorf("empty color space array")
		}
		family, ok := v[0].(core.Name)
		if !ok {
			return fmt.Errorf("invalid color space family %T", v[0])
		}
		switch family {
		case "ICCBased":
			n := 3
			if len(v) > 1 {
				if s, err := r.Resolve(v[1]); err == nil {
					if profile, ok := s.(*core.Stream); ok {
						if nObj, ok := profile.Dict.GetInt("N"); ok {
							n = int(nObj)
						}
					}
				}
			}
			return setComponents(img, n)
		case "CalGray", "CalRGB", "DeviceGray", "DeviceRGB", "DeviceCMYK":
			return setDeviceSpace(img, string(family))
		case "Indexed", "I":
			return r.parseIndexed(img, v)
		case "Separation":
			// a single tint where 1 is full ink
			img.ColorSpace = "Separation"
			img.Components = 1
			img.Invert = !img.Invert
			return nil
		case "DeviceN":
			if len(v) > 1 {
				if names, ok := v[1].(core.Array); ok && len(names) == 1 {
					img.ColorSpace = "Separation"
					img.Components = 1
					img.Invert = !img.Invert
					return nil
				}
			}
			return fmt.Errorf("DeviceN color space: %w", ErrUnsupportedEncoding)
		default:
			return fmt.Errorf("%s color space: %w", family, ErrUnsupportedEncoding)
		}
	default:
		return fmt.Errorf("invalid color space type %T", resolved)
	}
}

func setDeviceSpace(img *PageImage, name string) error {
	switch name {
	case "DeviceGray", "CalGray", "G":
		return setComponents(img, 1)
	case "DeviceRGB", "CalRGB", "RGB":
		return setComponents(img, 3)
	case "DeviceCMYK", "CMYK":
		return setComponents(img, 4)
	default:
		return fmt.Errorf("%s color space: %w", name, ErrUnsupportedEncoding)
	}
}

func setComponents(img *PageImage, n int) error {
	img.Components = n
	switch n {
	case 1:
		img.ColorSpace = "DeviceGray"
	case 3:
		img.ColorSpace = "DeviceRGB"
	case 4:
		img.ColorSpace = "DeviceCMYK"
	default:
		return fmt.Errorf("%d component color space: %w", n, ErrUnsupportedEncoding)
	}
	return nil
}

// parseIndexed reads [/Indexed base hival lookup]
func (r *Reader) parseIndexed(img *PageImage, arr core.Array) error {
	if len(arr) != 4 {
		return fmt.Errorf("indexed color space has %d entries, want 4", len(arr))
	}

	base := &PageImage{}
	if err := r.parseColorSpace(base, arr[1]); err != nil {
		return fmt.Errorf("indexed base: %w", err)
	}
	if base.ColorSpace == "Indexed" {
		return fmt.Errorf("nested indexed color space")
	}

	hival, ok := numberValue(arr[2])
	if !ok || hival < 0 || hival > 255 {
		return fmt.Errorf("invalid indexed hival %v", arr[2])
	}

	lookupObj, err := r.Resolve(arr[3])
	if err != nil {
		return fmt.Errorf("failed to resolve indexed lookup: %w", err)
	}
	var lookup []byte
	switch l := lookupObj.(type) {
	case core.String:
		lookup = []byte(l)
	case *core.Stream:
		if lookup, err = l.Decode(); err != nil {
			return fmt.Errorf("failed to decode indexed lookup: %w", err)
		}
	default:
		return fmt.Errorf("invalid indexed lookup type %T", lookupObj)
	}

	n := base.Components
	entries := int(hival) + 1
	if len(lookup) < entries*n {
		entries = len(lookup) / n
	}
	palette := make(color.Palette, entries)
	for i := 0; i < entries; i++ {
		c := lookup[i*n : i*n+n]
		switch n {
		case 1:
			v := c[0]
			if base.Invert {
				v = 255 - v
			}
			palette[i] = color.Gray{Y: v}
		case 3:
			palette[i] = color.RGBA{R: c[0], G: c[1], B: c[2], A: 255}
		case 4:
			red, green, blue := color.CMYKToRGB(c[0], c[1], c[2], c[3])
			palette[i] = color.RGBA{R: red, G: green, B: blue, A: 255}
		}
	}

	img.ColorSpace = "Indexed"
	img.Components = 1
	img.Palette = palette
	return nil
}

func numberValue(obj core.Object) (float64, bool) {
	switch v := obj.(type) {
	case core.Int:
		return float64(v), true
	case core.Real:
		return float64(v), true
	}
	return 0, false
}

// Image decodes the samples into a Go image. JPEG data is decoded with
// image/jpeg. A soft mask, when present, becomes the alpha channel.
func (img *PageImage) Image() (image.Image, error) {
	var base image.Image
	var err error

	switch img.Filter {
	case "DCTDecode":
		base, err = jpeg.Decode(bytes.NewReader(img.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode JPEG: %w", err)
		}
	case "JPXDecode", "JBIG2Decode":
		return nil, fmt.Errorf("%s: %w", img.Filter, ErrUnsupportedEncoding)
	default:
		base, err = img.samplesImage()
		if err != nil {
			return nil, err
		}
	}

	if img.SMask == nil {
		return base, nil
	}
	alpha, err := img.SMask.toGrayImage()
	if err != nil {
		return base, nil
	}
	return applyAlpha(base, alpha), nil
}

func (img *PageImage) samplesImage() (image.Image, error) {
	switch img.components() {
	case 1:
		if img.ColorSpace == "Indexed" {
			return img.toPalettedImage()
		}
		return img.toGrayImage()
	case 3:
		return img.toRGBImage()
	case 4:
		return img.toCMYKImage()
	default:
		return nil, fmt.Errorf("color space %q: %w", img.ColorSpace, ErrUnsupportedEncoding)
	}
}

func (img *PageImage) components() int {
	if img.Components > 0 {
		return img.Components
	}
	switch img.ColorSpace {
	case "DeviceRGB", "CalRGB":
		return 3
	case "DeviceCMYK":
		return 4
	default:
		return 1
	}
}

// ToPNG converts the decoded pixel data to PNG format.
// This is suitable for use with OCR engines like Tesseract.
func (img *PageImage) ToPNG() ([]byte, error) {
	goImg, err := img.Image()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, goImg); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// unpackSamples expands rows of packed samples to one byte per sample.
// Rows start on byte boundaries. With scale set, samples narrower than
// 8 bits are stretched to 0-255; 16-bit samples keep their high byte.
func (img *PageImage) unpackSamples(comps int, scale bool) ([]uint8, error) {
	bpc := img.BitsPerComponent
	switch bpc {
	case 1, 2, 4, 8, 16:
	default:
		return nil, fmt.Errorf("unsupported bits per component: %d", bpc)
	}

	rowBits := img.Width * comps * bpc
	rowBytes := (rowBits + 7) / 8
	expectedSize := rowBytes * img.Height
	if len(img.Data) < expectedSize {
		return nil, fmt.Errorf("insufficient data: got %d, expected %d", len(img.Data), expectedSize)
	}

	samplesPerRow := img.Width * comps
	out := make([]uint8, samplesPerRow*img.Height)
	maxVal := (1 << bpc) - 1

	for y := 0; y < img.Height; y++ {
		row := img.Data[y*rowBytes : (y+1)*rowBytes]
		dst := out[y*samplesPerRow : (y+1)*samplesPerRow]
		switch bpc {
		case 8:
			copy(dst, row[:samplesPerRow])
		case 16:
			for i := range dst {
				dst[i] = row[i*2]
			}
		default:
			for i := range dst {
				bit := i * bpc
				v := int(row[bit/8]>>(8-bpc-bit%8)) & maxVal
				if scale {
					v = v * 255 / maxVal
				}
				dst[i] = uint8(v)
			}
		}
	}
	return out, nil
}

// toGrayImage converts single-component data to an image.Gray.
func (img *PageImage) toGrayImage() (*image.Gray, error) {
	samples, err := img.unpackSamples(1, true)
	if err != nil {
		return nil, err
	}
	if img.Invert {
		for i, v := range samples {
			samples[i] = 255 - v
		}
	}
	goImg := image.NewGray(image.Rect(0, 0, img.Width, img.Height))
	copy(goImg.Pix, samples)
	return goImg, nil
}

// toPalettedImage converts Indexed data to an image.Paletted. Indices past
// the end of the palette are clamped to the last entry.
func (img *PageImage) toPalettedImage() (*image.Paletted, error) {
	if len(img.Palette) == 0 {
		return nil, fmt.Errorf("indexed image without palette")
	}
	samples, err := img.unpackSamples(1, false)
	if err != nil {
		return nil, err
	}
	last := uint8(len(img.Palette) - 1)
	for i, v := range samples {
		if v > last {
			samples[i] = last
		}
	}
	goImg := image.NewPaletted(image.Rect(0, 0, img.Width, img.Height), img.Palette)
	copy(goImg.Pix, samples)
	return goImg, nil
}

// toRGBImage converts RGB pixel data to an image.RGBA.
func (img *PageImage) toRGBImage() (*image.RGBA, error) {
	samples, err := img.unpackSamples(3, true)
	if err != nil {
		return nil, err
	}

	goImg := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for i := 0; i < img.Width*img.Height; i++ {
		src := samples[i*3 : i*3+3]
		dst := goImg.Pix[i*4 : i*4+4]
		for c := 0; c < 3; c++ {
			dst[c] = src[c]
			if img.Invert {
				dst[c] = 255 - src[c]
			}
		}
		dst[3] = 255
	}

	return goImg, nil
}

// toCMYKImage converts CMYK pixel data to an image.RGBA.
func (img *PageImage) toCMYKImage() (*image.RGBA, error) {
	samples, err := img.unpackSamples(4, true)
	if err != nil {
		return nil, err
	}

	goImg := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for i := 0; i < img.Width*img.Height; i++ {
		c, m, yy, k := samples[i*4], samples[i*4+1], samples[i*4+2], samples[i*4+3]
		if img.Invert {
			c, m, yy, k = 255-c, 255-m, 255-yy, 255-k
		}
		r, g, b := color.CMYKToRGB(c, m, yy, k)
		dst := goImg.Pix[i*4 : i*4+4]
		dst[0], dst[1], dst[2], dst[3] = r, g, b, 255
	}

	return goImg, nil
}

// applyAlpha combines an image with a soft mask. The mask is sampled
// nearest-neighbor when its size differs from the image.
func applyAlpha(base image.Image, alpha *image.Gray) *image.NRGBA {
	bounds := base.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	aw, ah := alpha.Bounds().Dx(), alpha.Bounds().Dy()

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		ay := y * ah / h
		for x := 0; x < w; x++ {
			ax := x * aw / w
			c := color.NRGBAModel.Convert(base.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			c.A = alpha.GrayAt(ax, ay).Y
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}
