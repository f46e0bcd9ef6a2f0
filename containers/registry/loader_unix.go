//go:build linux || darwin

package registry

import (
	"fmt"
	"os"
	"syscall"
)

// Open mmaps the hive read-only. Triage never mutates an acquired hive, so
// the mapping is PROT_READ and the file descriptor is opened O_RDONLY.
func Open(path string) (*Hive, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	sz := st.Size()
	if sz == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("empty hive file: %s", path)
	}

	data, err := syscall.Mmap(
		int(f.Fd()),
		0,
		int(sz),
		syscall.PROT_READ,
		syscall.MAP_SHARED,
	)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("mmap failed: %w", err)
	}

	bb, err := ParseBaseBlock(data)
	if err != nil {
		_ = syscall.Munmap(data)
		_ = f.Close()
		return nil, err
	}

	if validateErr := bb.ValidateSanity(len(data)); validateErr != nil {
		_ = syscall.Munmap(data)
		_ = f.Close()
		return nil, validateErr
	}

	h := &Hive{
		f:    f,
		data: data,
		size: sz,
		base: bb,
	}

	return h, nil
}

func (h *Hive) Close() error {
	var err error
	if h.data != nil {
		_ = syscall.Munmap(h.data)
		h.data = nil
	}
	if h.f != nil {
		err = h.f.Close()
		h.f = nil
	}
	h.base = nil
	return err
}
