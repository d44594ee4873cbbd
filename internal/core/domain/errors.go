package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnresolvableSlot = errors.New("unresolvable slot")
	ErrMissingTemplate  = errors.New("missing container template")
)

// UnresolvableSlotError names the child item that could not be placed in its
// migrated container.
type UnresolvableSlotError struct {
	ContainerID         string
	ContainerTemplateID string
	ItemID              string
	TemplateID          string
	Cause               error
}

func (e *UnresolvableSlotError) Error() string {
	msg := fmt.Sprintf("unable to find new slot for %s in container %s (%s)", e.TemplateID, e.ContainerID, e.ContainerTemplateID)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *UnresolvableSlotError) Is(target error) bool {
	return target == ErrUnresolvableSlot
}

func (e *UnresolvableSlotError) Unwrap() error {
	return e.Cause
}
