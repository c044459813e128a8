// SPDX-License-Identifier: MPL-2.0

//go:build windows

package watch

import (
	"errors"
	"slices"
	"syscall"
)

// limitErrnos are the Win32 errors after which ReadDirectoryChangesW cannot
// be relied on: ERROR_TOO_MANY_OPEN_FILES (4), ERROR_INVALID_HANDLE (6) and
// ERROR_NOT_ENOUGH_MEMORY (8). A save folder on a removed drive reports 6.
var limitErrnos = []syscall.Errno{4, 6, 8}

// isFatalFsnotifyError reports whether err means the watcher cannot
// continue.
func isFatalFsnotifyError(err error) bool {
	return slices.ContainsFunc(limitErrnos, func(errno syscall.Errno) bool {
		return errors.Is(err, errno)
	})
}
