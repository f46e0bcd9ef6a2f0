//go:build !linux && !darwin

package registry

import (
	"fmt"
	"io"
	"os"
)

// Open loads the hive into memory on platforms without the mmap fast path.
func Open(path string) (*Hive, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	sz := st.Size()
	if sz == 0 {
		f.Close()
		return nil, fmt.Errorf("empty hive file: %s", path)
	}

	buf := make([]byte, sz)
	if _, err := io.ReadFull(f, buf); err != nil {
		f.Close()
		return nil, err
	}

	bb, err := ParseBaseBlock(buf)
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := bb.ValidateSanity(len(buf)); err != nil {
		f.Close()
		return nil, err
	}

	h := &Hive{
		f:    f,
		data: buf,
		size: sz,
		base: bb,
	}
	return h, nil
}

func (h *Hive) Close() error {
	var err error
	if h.f != nil {
		err = h.f.Close()
		h.f = nil
	}
	h.data = nil
	h.base = nil
	return err
}
