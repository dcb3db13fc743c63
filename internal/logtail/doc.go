// Package logtail reads the tail of thermo's own log file for the logs view.
//
// # Overview
//
// Read extracts the last N lines of a file with a ring buffer, so memory use
// is bounded by N and not by the file size. Parse decodes one zerolog JSON
// line into an Entry the UI can colour by level and component.
//
// Example usage:
//
//	lines, err := logtail.Read(cfg.LogFile(), 400)
//	if err != nil {
//		return err
//	}
//	for _, line := range lines {
//		entry, _ := logtail.Parse(line)
//		fmt.Println(entry.Level, entry.Message)
//	}
//
// A missing file is not an error; it simply has no lines yet.
package logtail
