package blockdevice

import (
	"fmt"
	"strings"
)

type unknownTypeError struct {
	t Type
}

func (e *unknownTypeError) Error() string {
	return fmt.Sprintf("unknown device type %d", int(e.t))
}

func errUnknownType(t Type) error {
	return &unknownTypeError{t: t}
}

// ParseType converts "memory", "file" or "mmap" to a Type
func ParseType(s string) (Type, error) {
	switch strings.ToLower(s) {
	case "memory", "mem":
		return Memory, nil
	case "file":
		return File, nil
	case "mmap":
		return Mmap, nil
	default:
		return Memory, fmt.Errorf("unknown device type %q", s)
	}
}
