// Package rawvolume reads and writes headerless volume files: D*R*C
// little-endian float32 samples with the column index varying fastest.
// Dimensions travel out of band.
package rawvolume

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"pixelsearch/internal/models"
)

// chunk is the number of samples decoded per read
const chunk = 1 << 16

// Read decodes exactly dims.Size() samples from r. Samples are read in
// chunks so that short input fails before the full volume is allocated.
func Read(r io.Reader, dims models.Dims) (*models.Volume, error) {
	n, err := dims.Size()
	if err != nil {
		return nil, err
	}

	data := make([]float32, 0, min(n, chunk))
	buf := make([]float32, min(n, chunk))
	for len(data) < n {
		part := buf[:min(chunk, n-len(data))]
		if err := binary.Read(r, binary.LittleEndian, part); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("failed to read %s volume: %w", dims, err)
		}
		data = append(data, part...)
	}
	return models.NewVolume(dims, data)
}

// Write encodes the samples of v to w
func Write(w io.Writer, v *models.Volume) error {
	if err := binary.Write(w, binary.LittleEndian, v.Data); err != nil {
		return fmt.Errorf("failed to write %s volume: %w", v.Dims, err)
	}
	return nil
}

// Load reads a raw volume file
func Load(path string, dims models.Dims) (*models.Volume, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	v, err := Read(bufio.NewReader(file), dims)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// Save writes v to path, creating parent directories as needed
func Save(path string, v *models.Volume) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating volume directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := Write(w, v); err != nil {
		return err
	}
	return w.Flush()
}
