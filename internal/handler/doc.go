// Package handler implements the HTTP API.
//
// Handlers decode requests, call services, and translate service errors
// into RFC 9457 problem responses through MapServiceError. Successful
// responses wrap their payload in a data envelope:
//
//	{"data": {...}}
//
// The webhook handler is the write path for identity records: users and
// organizations are mirrored from provider events, never created here.
package handler
