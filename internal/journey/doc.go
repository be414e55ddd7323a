// Package journey defines the fitness-journey records and decodes them from
// the server's JSON.
//
// # Records
//
//   - Journey: a point-to-point distance goal with a closed Status
//   - JourneyProgress: a Journey plus the server's progress figures
//   - Run: one logged activity
//   - ProgressLocation: the interpolated point along a journey's path
//
// # Decoding
//
// The server speaks snake_case and is loose about timestamps. ParseTime tries,
// in order:
//
//  1. ISO 8601 with offset and fractional seconds
//  2. ISO 8601 with offset
//  3. naive YYYY-MM-DDTHH:mm:ss.ffffff (UTC)
//  4. naive YYYY-MM-DDTHH:mm:ss.fff (UTC)
//  5. YYYY-MM-DD (midnight UTC)
//  6. Unix epoch seconds, as a string or a bare JSON number
//
// The order matters: a looser layout tried first could drop precision.
//
// Failures are reported as *DecodeError carrying a short fragment of the
// offending input. Status strings are matched case-insensitively and an
// unknown status is a decode failure.
//
// ExtractToken reads login responses, which may name the token access_token,
// accessToken, token or auth_token.
//
// Decoding never performs I/O.
package journey
