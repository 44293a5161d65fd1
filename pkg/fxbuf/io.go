package fxbuf

// A few helpers for getting buffers in and out of files.

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"golang.org/x/image/tiff"

	"github.com/abworrall/eclipse-postfx/pkg/emath"
)

// Extensions that LoadFile understands.
var Extensions = []string{".hdr", ".tif", ".tiff", ".png"}

// CollectFiles walks the args, recursing into dirs, and returns the loadable
// image files in a stable order.
func CollectFiles(args ...string) ([]string, error) {
	files := []string{}

	for _, arg := range args {
		item, err := os.Stat(arg)

		switch {
		case err != nil:
			return nil, fmt.Errorf("load %s: %v", arg, err)

		case item.IsDir():
			contents, err := os.ReadDir(arg)
			if err != nil {
				return nil, fmt.Errorf("readdir %s: %v", arg, err)
			}
			sort.Slice(contents, func(i, j int) bool { return contents[i].Name() < contents[j].Name() })
			for _, content := range contents {
				sub, err := CollectFiles(filepath.Join(arg, content.Name()))
				if err != nil {
					return nil, fmt.Errorf("load %s: %v", arg, err)
				}
				files = append(files, sub...)
			}

		case isLoadable(arg):
			files = append(files, arg)
		}
	}

	return files, nil
}

func isLoadable(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// LoadFile reads an image into an RGBA32F buffer. Radiance .hdr files are
// already linear; TIFFs are assumed to hold linear sensor values (as exported
// from a raw developer); PNGs are sRGB and get linearized.
func LoadFile(filename string) (*Buffer, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open+r '%s': %v", filename, err)
	}
	defer reader.Close()

	var img image.Image
	srgb := false

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".hdr":
		img, err = rgbe.Decode(reader)
	case ".tif", ".tiff":
		img, err = tiff.Decode(reader)
	case ".png":
		img, err = png.Decode(reader)
		srgb = true
	default:
		return nil, fmt.Errorf("load '%s': unsupported extension", filename)
	}
	if err != nil {
		return nil, fmt.Errorf("decode '%s': %v", filename, err)
	}

	return FromImage(img, srgb), nil
}

// FromImage copies any image into a new RGBA32F buffer. HDR images keep their
// float values; LDR images are mapped onto [0,1], and linearized if srgb is set.
func FromImage(img image.Image, srgb bool) *Buffer {
	bounds := img.Bounds()
	buf := NewBufferSize(bounds.Dx(), bounds.Dy())

	hdrImg, isHDR := img.(hdr.Image)

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			sx, sy := x+bounds.Min.X, y+bounds.Min.Y

			if isHDR {
				r, g, b, a := hdrImg.HDRAt(sx, sy).HDRRGBA()
				buf.Set(x, y, mgl32.Vec4{float32(r), float32(g), float32(b), float32(a)})
				continue
			}

			r, g, b, a := img.At(sx, sy).RGBA()
			v := mgl32.Vec4{
				float32(r) / float32(0xFFFF),
				float32(g) / float32(0xFFFF),
				float32(b) / float32(0xFFFF),
				float32(a) / float32(0xFFFF),
			}
			if srgb {
				v[0] = emath.GammaCompress_F32(v[0])
				v[1] = emath.GammaCompress_F32(v[1])
				v[2] = emath.GammaCompress_F32(v[2])
			}
			buf.Set(x, y, v)
		}
	}

	return buf
}

func WritePNG(img image.Image, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	} else {
		return encodeAndClose(writer, func(w io.Writer) error { return png.Encode(w, img) })
	}
}

// WriteHDR outputs a Radiance RGBE image. You can load this into photoshop or other HDR tools.
func WriteHDR(img hdr.Image, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	} else {
		return encodeAndClose(writer, func(w io.Writer) error { return rgbe.Encode(w, img) })
	}
}

// encodeAndClose runs encode, then closes wc. A failed close is reported
// unless encoding had already failed.
func encodeAndClose(wc io.WriteCloser, encode func(io.Writer) error) error {
	err := encode(wc)
	if cerr := wc.Close(); err == nil {
		err = cerr
	}
	return err
}
