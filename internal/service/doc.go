// Package service implements the business logic between handlers and
// repositories.
//
// Services define the repository interfaces they depend on, take their
// dependencies through a Config struct, and surface failures as sentinel
// errors that the handler layer maps to Problem Details responses.
// Authorization context (the caller's user and organization from the
// identity layer) arrives as plain parameters.
package service
