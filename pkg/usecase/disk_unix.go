//go:build !windows

package usecase

import (
	"syscall"
)

func freeDiskSpace(path string) (uint64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, err
	}

	// Bavail is the space available to unprivileged users
	return stat.Bavail * uint64(stat.Bsize), nil
}
