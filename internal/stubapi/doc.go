// Package stubapi is an in-memory implementation of the trek marketplace REST
// API, served with gin. It backs cmd/basecamp-stub for local development and
// the end-to-end client tests.
//
// Every response is a {success, data, message} envelope. Mutating routes and
// wishlist reads require an HS256 bearer token signed with the server's
// secret; IssueToken mints one. FailRoute switches a single route to answer
// success:false so clients can exercise their rollback paths.
package stubapi
