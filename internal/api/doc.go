// Package api provides an HTTP client for the trek marketplace REST backend.
//
// # Overview
//
// Every backend call returns an envelope:
//
//	{ "success": true, "data": ... }
//	{ "success": false, "message": "..." }
//
// The client unwraps the envelope and decodes data into typed structs. A
// success:false envelope and an HTTP status >= 400 both come back as
// *ServerError, so callers can treat them the same way as transport failures.
//
// # Endpoints
//
//   - GET    /treks
//   - GET    /posts
//   - GET    /posts/{userId}/likes
//   - POST   /posts/{postId}/likes
//   - POST   /posts/{postId}/comments
//   - GET    /wishlists/tourists/{userId}
//   - POST   /wishlists/tourists/{userId}/add
//   - DELETE /wishlists/tourists/{userId}/remove/{trekId}
//
// Paths are joined onto the configured api_url, so a base such as
// http://host:8080/api keeps its /api prefix.
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Set Accept: application/json and a basecamp/* User-Agent
//   - Carry a fresh X-Request-ID for correlating backend logs
//   - Carry Authorization: Bearer <token> while a session exists
//   - Have a 10-second timeout
//
// # Identifiers
//
// The backend is inconsistent about id types. ID decodes both JSON numbers and
// strings so 42 and "42" compare equal everywhere in the client.
//
// # Malformed Payloads
//
// Missing optional collections decode to nil slices. A data field of the
// wrong shape is reported with ErrMalformed so higher layers can degrade to an
// empty collection instead of failing the whole screen.
package api
