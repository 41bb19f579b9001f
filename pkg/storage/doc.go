// Package storage writes downloaded assets into the output directory.
//
// Every asset lives at <dir>/<local id>.<extension>. Writes go through a
// temporary file in the same directory followed by a rename, so:
//   - re-running a download replaces the previous file in one step
//   - a copy that fails midway leaves no partial file behind
//   - an existing asset survives a failed re-download untouched
//
// Usage:
//
//	manager, err := storage.NewManager("assets/exercises", "gif")
//	if err != nil {
//	    return err
//	}
//	n, err := manager.SaveAsset(body, "squats")
package storage
