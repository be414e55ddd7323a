// Package api is the HTTP client for the journey service.
//
// # Overview
//
// Client wraps the /api/v1 endpoints: login, journey listing and progress,
// interpolated progress location, journey and run creation, and deletion.
// Every authenticated call reads the token from a tokenstore.Store at request
// time, so a token written by Login is used by the very next call without
// re-authentication.
//
// # Authentication
//
// Tokens are normalized before use (see NormalizeToken): whitespace, one
// layer of quotes and a "Bearer"/"Token" prefix are stripped, then
// "Bearer <token>" is sent. A missing or empty token fails with
// AuthenticationRequiredError before anything reaches the network.
//
// A 401 on an authenticated call always clears the stored token and returns
// AuthenticationRequiredError. Login itself is unauthenticated; its failures
// are ServerError.
//
// # Errors
//
// Every operation fails with one of:
//
//   - *AuthenticationRequiredError: log in again
//   - *ServerError: non-2xx response, with the server's detail message
//   - *DecodeError: 2xx response with a body that did not decode
//   - *NetworkError: transport failure, no HTTP status
//
// Validation failures on create requests are plain errors and are returned
// before any request is sent.
//
// # Caching
//
// Current journey, journey progress and progress location are read through a
// second http.Client whose transport sets Cache-Control and Pragma to
// no-cache. Both clients re-apply Authorization on redirects, including
// cross-host ones.
//
// # Observability
//
// Requests are logged at debug level through zap with an X-Request-ID that
// is also sent to the server. When Options.Metrics is set, each operation
// records journey_client_requests_total{operation,outcome} and
// journey_client_request_duration_seconds{operation}.
package api
