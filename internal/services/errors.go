// Package services defines the business logic for the order-delivery relay:
// credential resolution, the pull/poll fallback query, device health
// classification, broadcast coordination, and best-effort audit logging.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package services

import "errors"

var (
	// ErrUnauthorized indicates that neither a device-level nor a
	// tenant-level credential matched the request. Always terminal: no data
	// is returned and no connection is registered.
	ErrUnauthorized = errors.New("invalid API key")

	// ErrTenantRequired is returned when a request names no tenant slug.
	ErrTenantRequired = errors.New("tenant is required")

	// ErrTenantNotFound indicates the named tenant does not exist.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrOrderNotFound indicates the order does not exist or belongs to a
	// different tenant.
	ErrOrderNotFound = errors.New("order not found")

	// ErrDeviceExists is returned when registering a device_id the tenant
	// already uses.
	ErrDeviceExists = errors.New("device already registered")

	// ErrInvalidPrintStatus is returned for unknown print-status values or
	// transitions the lifecycle table forbids.
	ErrInvalidPrintStatus = errors.New("invalid print status")

	// ErrEventTypeRequired is returned when a broadcast event carries no
	// type tag; every frame on the wire must have one.
	ErrEventTypeRequired = errors.New("event type is required")
)
