//go:build windows

package buffer

import "os"

func mmap(_ *os.File, _ int, _ bool) ([]byte, error) {
	return nil, ErrMmapUnsupported
}

func munmap(_ []byte) error {
	return nil
}

func msync(_ []byte) error {
	return nil
}
