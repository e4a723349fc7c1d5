//go:build !windows

package buffer

import (
	"os"

	"golang.org/x/sys/unix"
)

func mmap(f *os.File, size int, writable bool) ([]byte, error) {
	prot := unix.PROT_READ
	if writable {
		prot |= unix.PROT_WRITE
	}
	return unix.Mmap(int(f.Fd()), 0, size, prot, unix.MAP_SHARED)
}

func munmap(data []byte) error {
	return unix.Munmap(data)
}

func msync(data []byte) error {
	return unix.Msync(data, unix.MS_SYNC)
}
