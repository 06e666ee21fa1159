// Package loader places flat binary program images into simulated memory.
package loader

import (
	"fmt"
	"os"

	"github.com/rvlab/rv5sim/emu"
)

// Program is a loaded program image.
type Program struct {
	// Path the image was read from.
	Path string

	// Image is the raw bytes, little-endian instruction words.
	Image []byte

	// LoadAddress is where the image starts in memory.
	LoadAddress uint32
}

// Load reads a flat binary image from disk.
func Load(path string) (*Program, error) {
	image, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load program: %w", err)
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("load program %s: empty image", path)
	}
	if len(image)%4 != 0 {
		return nil, fmt.Errorf("load program %s: size %d is not a whole number of words",
			path, len(image))
	}

	return &Program{Path: path, Image: image}, nil
}

// Place copies the image into memory at its load address.
func (p *Program) Place(mem *emu.Memory) error {
	if err := mem.CopyFrom(p.LoadAddress, p.Image); err != nil {
		return fmt.Errorf("place program %s: %w", p.Path, err)
	}
	return nil
}
