package main

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	dd "github.com/davecheney/n64dd"
)

// image is a disk image mapped copy on write; sector writes never reach
// the file.
type image struct {
	data  []byte
	extra dd.Extra
}

func openImage(path string, extra dd.Extra) (*image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if fi.Size() == 0 {
		return nil, fmt.Errorf("%s: empty image", path)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(fi.Size()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return &image{data: data, extra: extra}, nil
}

func (i *image) Data() []byte { return i.data }
func (i *image) Extra() dd.Extra { return i.extra }

func (i *image) Close() error { return unix.Munmap(i.data) }
