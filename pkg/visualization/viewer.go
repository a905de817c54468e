// Package visualization renders 2D slices of a volume as images so that a
// match can be inspected by eye.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"

	"pixelsearch/internal/models"
)

// Viewer extracts axis-aligned slices from a volume
type Viewer struct {
	volume *models.Volume

	// lo and scale map finite samples onto [0, 65535]
	lo    float64
	scale float64
}

// NewViewer creates a viewer over v. Intensities are stretched so that the
// smallest finite sample renders black and the largest white.
func NewViewer(v *models.Volume) *Viewer {
	finite := make([]float64, 0, len(v.Data))
	for _, s := range v.Data {
		f := float64(s)
		if !math.IsNaN(f) && !math.IsInf(f, 0) {
			finite = append(finite, f)
		}
	}

	vw := &Viewer{volume: v}
	if len(finite) == 0 {
		return vw
	}
	vw.lo = floats.Min(finite)
	if span := floats.Max(finite) - vw.lo; span > 0 {
		vw.scale = 65535 / span
	}
	return vw
}

// gray converts a sample to a 16-bit grey level. Non-finite samples are black.
func (v *Viewer) gray(s float32) color.Gray16 {
	f := float64(s)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return color.Gray16{}
	}
	value := math.Max(0, math.Min(65535, (f-v.lo)*v.scale))
	return color.Gray16{Y: uint16(value)}
}

// ExtractSlice extracts a 2D slice from the volume along the specified axis
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	vol := v.volume
	var img *image.Gray16

	switch axis {
	case "x", "X":
		// YZ plane
		if position >= vol.Cols {
			return nil, fmt.Errorf("position %d exceeds cols %d", position, vol.Cols)
		}
		img = image.NewGray16(image.Rect(0, 0, vol.Depth, vol.Rows))
		for y := 0; y < vol.Rows; y++ {
			for z := 0; z < vol.Depth; z++ {
				img.SetGray16(z, y, v.gray(vol.At(z, y, position)))
			}
		}

	case "y", "Y":
		// XZ plane
		if position >= vol.Rows {
			return nil, fmt.Errorf("position %d exceeds rows %d", position, vol.Rows)
		}
		img = image.NewGray16(image.Rect(0, 0, vol.Cols, vol.Depth))
		for z := 0; z < vol.Depth; z++ {
			for x := 0; x < vol.Cols; x++ {
				img.SetGray16(x, z, v.gray(vol.At(z, position, x)))
			}
		}

	case "z", "Z":
		// XY plane
		if position >= vol.Depth {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, vol.Depth)
		}
		img = image.NewGray16(image.Rect(0, 0, vol.Cols, vol.Rows))
		for y := 0; y < vol.Rows; y++ {
			for x := 0; x < vol.Cols; x++ {
				img.SetGray16(x, y, v.gray(vol.At(position, y, x)))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// ExtractRegion copies the sub-volume of the given size starting at off
func (v *Viewer) ExtractRegion(off models.Offset, size models.Dims) (*models.Volume, error) {
	if off.Z < 0 || off.Y < 0 || off.X < 0 {
		return nil, fmt.Errorf("start coordinates must be non-negative")
	}
	if size.Depth <= 0 || size.Rows <= 0 || size.Cols <= 0 {
		return nil, fmt.Errorf("size dimensions must be positive")
	}

	vol := v.volume
	if off.Z+size.Depth > vol.Depth || off.Y+size.Rows > vol.Rows || off.X+size.Cols > vol.Cols {
		return nil, fmt.Errorf("region extends beyond volume boundaries")
	}

	data := make([]float32, 0, size.Len())
	for z := 0; z < size.Depth; z++ {
		for y := 0; y < size.Rows; y++ {
			start := vol.Index(off.Z+z, off.Y+y, off.X)
			data = append(data, vol.Data[start:start+size.Cols]...)
		}
	}

	return models.NewVolume(size, data)
}

// SaveSlice saves an extracted slice as a JPEG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceSequence extracts and saves every slice along the specified axis
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.volume.Cols
	case "y", "Y":
		maxPos = v.volume.Rows
	case "z", "Z":
		maxPos = v.volume.Depth
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}
