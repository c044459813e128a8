// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import (
	"errors"
	"slices"
	"syscall"
)

// limitErrnos are the inotify and kqueue resource exhaustion errors. ENOSPC
// is what Linux returns once fs.inotify.max_user_watches is used up, which is
// easy to hit when a Wine prefix holds a large profile tree.
var limitErrnos = []syscall.Errno{syscall.ENOSPC, syscall.EMFILE, syscall.ENFILE}

// isFatalFsnotifyError reports whether err means no further watches can be
// registered.
func isFatalFsnotifyError(err error) bool {
	return slices.ContainsFunc(limitErrnos, func(errno syscall.Errno) bool {
		return errors.Is(err, errno)
	})
}
