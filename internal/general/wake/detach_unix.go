//go:build unix

package wake

import "syscall"

// detached puts the child in its own session so a hangup of ours does not reach it.
func detached() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
