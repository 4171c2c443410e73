// Package health answers whether the local backend is serving requests.
//
// HTTPProber performs a single bounded GET against the backend's /health
// endpoint and WaitReady polls a Prober on a fixed cadence until it succeeds or
// a deadline passes. Neither retries on its own beyond that loop.
package health
