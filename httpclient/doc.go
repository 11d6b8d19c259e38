// Package httpclient is the outbound HTTP layer used by fieldsadmin to talk to
// the custom-fields API.
//
// Every call goes through Client.Request, which resolves options against the
// client defaults, builds the final URL, optionally rewrites it through the
// same-origin proxy, and runs the exchange under a single timeout.
//
// Timeout
//   - The timeout bounds the whole logical call: every attempt and every
//     retry delay. When it fires the in-flight attempt is aborted and no new
//     attempt starts. The call fails with KindTimeout and status 408.
//
// Retries
//   - Only transport failures (DNS, connection refused, reset) are retried.
//   - HTTP error statuses are returned immediately.
//   - Retries are separated by a fixed delay (default 1s).
//   - A retries value of 0 means exactly one attempt.
//
// Responses
//   - Status 200-399 is success unless EvaluateAllStatesAsErrors is set, in
//     which case anything outside 2xx is an error.
//   - JSON bodies that fail to decode produce KindDecode. LenientJSON swaps
//     the failure for an empty object.
package httpclient
