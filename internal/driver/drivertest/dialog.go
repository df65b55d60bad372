package drivertest

import "context"

// Dialog is the fake driver.Dialog; Dismiss records that it was called.
type Dialog struct {
	Dismissed bool
}

func (d *Dialog) Dismiss(ctx context.Context) error {
	d.Dismissed = true
	return nil
}
