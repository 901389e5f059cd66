// Package storage manages image files in the output directory.
//
// The Manager type is the primary interface for storage operations:
//   - Creating the output directory (idempotent, safe under concurrent callers)
//   - Saving images with atomic write operations
//   - Existence checks and removal used by the download planner
//
// Writes go to a temporary file next to the destination and are renamed into
// place once complete, so a failed or interrupted download never leaves a
// partial file under the final name.
//
// Usage:
//
//	manager, err := storage.NewManager("output")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if !manager.Exists("yande.re 123 sky.jpg") {
//	    n, err := manager.Save(body, "yande.re 123 sky.jpg")
//	    ...
//	}
package storage
