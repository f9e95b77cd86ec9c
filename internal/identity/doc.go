// Package identity integrates the external identity provider.
//
// Authentication is fully delegated: the provider issues session tokens to
// the UI, and this API only verifies them. Client.VerifyToken exchanges a
// bearer token for the caller's identity (user, active organization, role).
// User and organization records are mirrored locally through signed webhooks;
// VerifySignature checks the HMAC-SHA256 webhook signature.
package identity
