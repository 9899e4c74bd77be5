// Package negotiate picks the vendor API version and endpoint style for a
// call and retries once against an alternate version when the first one
// does not know the model or the request shape.
//
// Only a narrow failure class is retried: HTTP 404, or HTTP 400 whose
// error message names an unknown field. Models pinned to a version are
// never retried. Everything else maps straight to an *api.APIError.
package negotiate
