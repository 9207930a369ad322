// Package ccd declares the interface the mech packages consume from
// the CCD controller driver. The driver itself is out of scope for
// this module; only the methods the AlertBot and coordinator need are
// named here, so no concrete type leaks into package mech.
package ccd

import "context"

// DeviceStatus is the subset of the controller's device status the
// AlertBot reads to evaluate temperature alerts.
type DeviceStatus struct {
	Temperature float64
	Params      map[string]float64
}

// Controller is the black-box CCD controller collaborator: reset,
// parameter access, raw command passthrough, device status, and the
// high-level exposure sequence operations.
type Controller interface {
	Reset(ctx context.Context) error
	SetParam(ctx context.Context, name string, value float64) error
	SendCommand(ctx context.Context, raw string) (string, error)
	DeviceStatus(ctx context.Context) (DeviceStatus, error)

	Erase(ctx context.Context) error
	Purge(ctx context.Context) error
	Flush(ctx context.Context) error
	Expose(ctx context.Context, seconds float64) error
	Readout(ctx context.Context) error
}
