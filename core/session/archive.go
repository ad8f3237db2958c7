package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/Vellum/core/errors"
)

// xzMagic is the stream header of an xz file.
var xzMagic = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}

// Injectable functions for testing
var (
	xzNewWriter = xz.NewWriter
	xzNewReader = xz.NewReader
	osRename    = os.Rename
)

// Write encodes s as JSON and compresses it with xz.
func (s *Session) Write(w io.Writer) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	xzw, err := xzNewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create xz writer: %w", err)
	}
	if _, err := xzw.Write(data); err != nil {
		xzw.Close()
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := xzw.Close(); err != nil {
		return fmt.Errorf("failed to finish xz stream: %w", err)
	}
	return nil
}

// Read decodes a session written by Write and verifies its hash. Plain
// uncompressed JSON is accepted too.
func Read(r io.Reader) (*Session, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	data := raw
	if bytes.HasPrefix(raw, xzMagic) {
		xzr, err := xzNewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		if data, err = io.ReadAll(xzr); err != nil {
			return nil, fmt.Errorf("failed to decompress session: %w", err)
		}
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "failed to parse session")
	}
	if err := s.Verify(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes s to path atomically.
func (s *Session) Save(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return errors.NewIO("create", dir, err)
	}
	tmpPath := tmp.Name()

	if err := s.Write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.NewIO("close", tmpPath, err)
	}
	if err := osRename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.NewIO("rename", path, err)
	}
	return nil
}

// Load reads and verifies the session stored at path.
func Load(path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("session", path)
		}
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()
	return Read(f)
}
