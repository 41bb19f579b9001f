// Package fetcher downloads one asset per catalog entry.
//
// Entries are processed strictly in table order. For each entry the preferred
// format is requested first; if the request, the status or the write fails in
// any way the fallback format is requested instead. The first body that
// succeeds is written to the sink. Failures are never fatal; they are counted
// in the returned Summary together with every attempt made.
package fetcher
