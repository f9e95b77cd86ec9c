// Package model defines the domain types for the job board.
//
// Types mirror the persisted records: users and organizations are synced
// from the identity provider, job listings and applications are owned by
// this service, and the notification settings types drive the daily digest
// pipeline.
//
// Validation lives next to the types as Validate methods returning
// []FieldError, which handlers convert to RFC 9457 Problem Details.
package model
