// Package status defines the shared entity status values.
package status

const (
	Active   = "active"
	Disabled = "disabled"
)
