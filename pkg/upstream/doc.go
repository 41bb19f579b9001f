// Package upstream retrieves exercise images from the free-exercise-db
// dataset (or any mirror with the same <base>/<folder>/0.<ext> layout).
//
// Every request carries a non-empty User-Agent because the raw GitHub host
// rejects requests without one. A Client performs exactly one attempt per
// call; retries and fallbacks are decided by the caller.
package upstream
