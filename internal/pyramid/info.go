package pyramid

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// InfoFile is the name of the level list written next to the level directories.
const InfoFile = "info.json"

// ReadInfo decodes an info.json level list (coarsest first).
func ReadInfo(r io.Reader) (*Pyramid, error) {
	var sizes []Size
	if err := json.NewDecoder(r).Decode(&sizes); err != nil {
		return nil, fmt.Errorf("decode %s: %w", InfoFile, err)
	}
	return New(sizes)
}

// WriteInfo encodes p as an indented info.json level list.
func WriteInfo(w io.Writer, p *Pyramid) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p.Sizes())
}

// Load reads dir/info.json.
func Load(dir string) (*Pyramid, error) {
	f, err := os.Open(filepath.Join(dir, InfoFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadInfo(f)
}
