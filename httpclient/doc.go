// Package httpclient sends signed requests to the open API gateway.
//
// A call starts with Client.Request and is refined with WithBody, WithQuery,
// WithResponse and Header before Send:
//
//	req := httpclient.WithResponse[payload.JSON[Account]](
//		httpclient.WithQuery(cli.Request("GET", "/v1/asset/account"), url.Values{"currency": {"HKD"}}),
//	)
//	resp, err := req.Send(ctx) // resp.Value is the Account
//
// Signing
//   - Every attempt gets a fresh timestamp (unless the caller set a parseable
//     X-Timestamp) and a fresh X-Api-Signature over method, path, query,
//     credentials and body.
//   - Protocol headers are applied after client defaults and caller headers
//     and always win.
//
// Retries
//   - Only an HTTP 429 whose body is not an envelope is retried.
//   - Waits grow exponentially from 100ms by a factor of 2, with no jitter,
//     for at most 5 retries.
//   - The timeout bounds each attempt separately.
//
// Errors
//   - Every failure is a ClientError; use IsErrorType, IsRateLimited and
//     AsOpenAPIError to inspect it.
package httpclient
