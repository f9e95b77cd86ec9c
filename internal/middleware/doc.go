// Package middleware provides HTTP middleware for the API server.
//
// Middlewares compose with Chain and are applied in order:
//
//	handler = middleware.Chain(mux,
//	    middleware.RequestID,
//	    middleware.Logger(log),
//	    middleware.Recovery(log),
//	    middleware.CORS(origins),
//	    middleware.RateLimit(limiter),
//	    middleware.Compress,
//	)
//
// Authentication is delegated: RequireAuth verifies the bearer token with
// the identity provider and stores the resulting Identity in the request
// context for handlers to read with GetIdentity.
package middleware
