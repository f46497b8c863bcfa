//go:build !unix

package wake

import "syscall"

func detached() *syscall.SysProcAttr {
	return nil
}
