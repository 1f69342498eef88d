// Package tmdb provides the minimal TMDB API client used when adding titles
// to a library.
//
// It exposes multi search (movies and TV) and movie/TV detail retrieval.
// Requests authenticate with either an api_key query parameter or a bearer
// read access token, are throttled by a token-bucket limiter, retried on rate
// limits and server errors, and guarded by a circuit breaker so an outage
// fails fast instead of stalling every lookup.
package tmdb
