//go:build !windows

package log

import "os"

func enableVirtualTerminal(*os.File) bool {
	return true
}
