package visualization

import (
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"

	"pixelsearch/internal/models"
)

// gradientVolume fills a volume with value z per depth plane
func gradientVolume(t *testing.T, depth, rows, cols int) *models.Volume {
	t.Helper()
	data := make([]float32, depth*rows*cols)
	for z := 0; z < depth; z++ {
		for i := 0; i < rows*cols; i++ {
			data[z*rows*cols+i] = float32(z)
		}
	}
	v, err := models.NewVolume(models.Dims{Depth: depth, Rows: rows, Cols: cols}, data)
	if err != nil {
		t.Fatalf("NewVolume: %v", err)
	}
	return v
}

// TestExtractSlice verifies slice dimensions and intensity stretching
func TestExtractSlice(t *testing.T) {
	depth, rows, cols := 5, 6, 7
	viewer := NewViewer(gradientVolume(t, depth, rows, cols))

	for z := 0; z < depth; z++ {
		img, err := viewer.ExtractSlice("z", z)
		if err != nil {
			t.Fatalf("Failed to extract Z slice at position %d: %v", z, err)
		}

		bounds := img.Bounds()
		if bounds.Dx() != cols || bounds.Dy() != rows {
			t.Errorf("Expected Z slice dimensions %dx%d, got %dx%d",
				cols, rows, bounds.Dx(), bounds.Dy())
		}

		gray16Img, ok := img.(*image.Gray16)
		if !ok {
			t.Fatalf("Expected *image.Gray16, got %T", img)
		}

		// Plane z maps onto z/(depth-1) of the full range.
		expected := float64(z) / float64(depth-1) * 65535
		got := float64(gray16Img.Gray16At(cols/2, rows/2).Y)
		if math.Abs(got-expected) > 1.0 {
			t.Errorf("Expected Z slice value ~%.0f at center, got %.0f", expected, got)
		}
	}

	imgX, err := viewer.ExtractSlice("x", cols/2)
	if err != nil {
		t.Fatalf("Failed to extract X slice: %v", err)
	}
	if b := imgX.Bounds(); b.Dx() != depth || b.Dy() != rows {
		t.Errorf("Expected X slice dimensions %dx%d, got %dx%d", depth, rows, b.Dx(), b.Dy())
	}

	imgY, err := viewer.ExtractSlice("y", rows/2)
	if err != nil {
		t.Fatalf("Failed to extract Y slice: %v", err)
	}
	if b := imgY.Bounds(); b.Dx() != cols || b.Dy() != depth {
		t.Errorf("Expected Y slice dimensions %dx%d, got %dx%d", cols, depth, b.Dx(), b.Dy())
	}

	if _, err := viewer.ExtractSlice("invalid", 0); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}
	if _, err := viewer.ExtractSlice("z", depth); err == nil {
		t.Error("Expected error for out of bounds position, got nil")
	}
	if _, err := viewer.ExtractSlice("y", -1); err == nil {
		t.Error("Expected error for negative position, got nil")
	}
}

// TestExtractSliceNonFinite verifies NaN samples render black without
// disturbing the stretch of finite samples
func TestExtractSliceNonFinite(t *testing.T) {
	nan := float32(math.NaN())
	v, err := models.NewVolume(models.Dims{Depth: 1, Rows: 1, Cols: 3}, []float32{nan, 0.25, 0.75})
	if err != nil {
		t.Fatalf("NewVolume: %v", err)
	}

	img, err := NewViewer(v).ExtractSlice("z", 0)
	if err != nil {
		t.Fatalf("ExtractSlice: %v", err)
	}
	g := img.(*image.Gray16)
	if g.Gray16At(0, 0).Y != 0 {
		t.Errorf("Expected NaN to render black, got %d", g.Gray16At(0, 0).Y)
	}
	if g.Gray16At(1, 0).Y != 0 || g.Gray16At(2, 0).Y != 65535 {
		t.Errorf("Expected finite range stretched to [0, 65535], got %d and %d",
			g.Gray16At(1, 0).Y, g.Gray16At(2, 0).Y)
	}
}

// TestExtractRegion verifies that sub-volumes are copied correctly
func TestExtractRegion(t *testing.T) {
	dims := models.Dims{Depth: 5, Rows: 10, Cols: 10}
	data := make([]float32, dims.Len())
	for i := range data {
		data[i] = float32(i)
	}
	vol, err := models.NewVolume(dims, data)
	if err != nil {
		t.Fatalf("NewVolume: %v", err)
	}
	viewer := NewViewer(vol)

	off := models.Offset{Z: 1, Y: 3, X: 2}
	size := models.Dims{Depth: 2, Rows: 3, Cols: 4}
	region, err := viewer.ExtractRegion(off, size)
	if err != nil {
		t.Fatalf("Failed to extract region: %v", err)
	}
	if region.Dims != size {
		t.Errorf("Expected region dims %s, got %s", size, region.Dims)
	}

	for z := 0; z < size.Depth; z++ {
		for y := 0; y < size.Rows; y++ {
			for x := 0; x < size.Cols; x++ {
				want := vol.At(off.Z+z, off.Y+y, off.X+x)
				if got := region.At(z, y, x); got != want {
					t.Errorf("Region value mismatch at (%d,%d,%d): expected %f, got %f",
						z, y, x, want, got)
				}
			}
		}
	}

	if _, err := viewer.ExtractRegion(models.Offset{X: -1}, size); err == nil {
		t.Error("Expected error for negative start coordinate, got nil")
	}
	if _, err := viewer.ExtractRegion(models.Offset{}, models.Dims{Depth: 0, Rows: 1, Cols: 1}); err == nil {
		t.Error("Expected error for zero size, got nil")
	}
	if _, err := viewer.ExtractRegion(models.Offset{X: 9}, models.Dims{Depth: 1, Rows: 1, Cols: 2}); err == nil {
		t.Error("Expected error for region extending beyond volume, got nil")
	}
}

// TestSaveSliceSequence verifies that a sequence of slices can be saved
func TestSaveSliceSequence(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	depth := 3
	viewer := NewViewer(gradientVolume(t, depth, 5, 5))

	outputDir := filepath.Join(t.TempDir(), "slices")
	if err := viewer.SaveSliceSequence("z", outputDir); err != nil {
		t.Fatalf("Failed to save slice sequence: %v", err)
	}

	for z := 0; z < depth; z++ {
		filename := filepath.Join(outputDir, fmt.Sprintf("slice_z_%03d.jpg", z))
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			t.Errorf("Expected slice file does not exist: %s", filename)
		}
	}

	if err := viewer.SaveSliceSequence("invalid", outputDir); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}
}
