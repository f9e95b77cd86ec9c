// Package email renders and sends the digest emails.
//
// Sender is the delivery interface; the SMTP implementation authenticates
// with PLAIN auth and sends HTML bodies. Digest bodies are rendered from
// embedded html/template files, one per digest flow.
package email
