package driver

import (
	"errors"
	"strings"
)

// Status is the availability a driver advertises to dispatch.
type Status string

const (
	StatusOffline Status = "OFFLINE"
	StatusOnline  Status = "ONLINE"
)

var ErrInvalidStatus = errors.New("invalid driver status")

// ParseStatus normalizes (uppercases+trims) and validates a driver status string.
func ParseStatus(in string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidStatus
}

// StatusOf maps the persisted online flag to a Status.
func StatusOf(isOnline bool) Status {
	if isOnline {
		return StatusOnline
	}
	return StatusOffline
}

// Valid reports whether the driver status is one of the allowed constants.
func (status Status) Valid() bool {
	switch status {
	case StatusOffline, StatusOnline:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Status.
func (status Status) String() string {
	return string(status)
}
