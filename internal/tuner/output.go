package tuner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/searchlab/querytuner/internal/space"
)

// WriteCandidate writes a candidate as an indented JSON parameter map,
// ready to paste into a config's defaults block. The write goes through
// a temp file and rename so a crash never leaves a truncated artifact.
func WriteCandidate(path string, candidate space.Candidate) error {
	if candidate == nil {
		return fmt.Errorf("no candidate to write")
	}
	data, err := json.MarshalIndent(candidate, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding candidate: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing candidate: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
