// Package domain defines the core persistence models for the relay.
// This file contains the device liveness classification consumed by
// dashboards and alerting.
package domain

import "time"

// DeviceHealth is the computed liveness state of a POS terminal.
type DeviceHealth string

const (
	// DeviceOnline: seen within the disconnected threshold.
	DeviceOnline DeviceHealth = "online"
	// DeviceDisconnected: seen between the disconnected and offline thresholds.
	DeviceDisconnected DeviceHealth = "disconnected"
	// DeviceOffline: never seen, or not seen within the offline threshold.
	DeviceOffline DeviceHealth = "offline"
	// DeviceDisabled: the device's active flag is off; timestamps are ignored.
	DeviceDisabled DeviceHealth = "disabled"
)

// ClassifyDevice computes a device's health as a pure function of
// (active, lastSeen, now). Nothing is cached: every read re-derives the
// state from the stored timestamps.
//
// Thresholds are passed in (defaults: 10 minutes for disconnected, 60 for
// offline) so tests and config can tune them without touching call sites.
func ClassifyDevice(active bool, lastSeen *time.Time, now time.Time, disconnectedAfter, offlineAfter time.Duration) DeviceHealth {
	if !active {
		return DeviceDisabled
	}
	if lastSeen == nil {
		return DeviceOffline
	}
	age := now.Sub(*lastSeen)
	switch {
	case age > offlineAfter:
		return DeviceOffline
	case age > disconnectedAfter:
		return DeviceDisconnected
	default:
		return DeviceOnline
	}
}
