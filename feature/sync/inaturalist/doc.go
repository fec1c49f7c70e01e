// Package inaturalist is a small client for the iNaturalist v1 API.
//
// It covers the three calls the importer needs: paging species under a root
// taxon, paging observations of an iconic taxon group and looking up single
// taxa while walking ancestor chains. Requests share one rate limiter, taxon
// lookups are cached with go-cache, and transient failures (network errors,
// 429 and 5xx) are retried with a linear backoff.
package inaturalist
