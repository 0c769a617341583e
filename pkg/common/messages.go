package common

import (
	"fmt"
	"log"
)

// Global variable to control debug output
var VerboseMode bool = false

// SetVerboseMode enables or disables verbose/debug output
func SetVerboseMode(verbose bool) {
	VerboseMode = verbose
}

// Error messages
const (
	ErrFailedToLoadTable      = "failed to load character table"
	ErrFailedToLoadKinds      = "failed to load file kind config"
	ErrFailedToParseYAML      = "failed to parse YAML"
	ErrFailedToReadFile       = "failed to read script file"
	ErrFailedToWriteFile      = "failed to write script file"
	ErrFailedToCreateCSV      = "failed to create script CSV"
	ErrFailedToReadCSV        = "failed to read script CSV"
	ErrFailedToWriteCSV       = "failed to write script CSV"
	ErrDuplicateFlagCode      = "duplicate flag byte code"
	ErrDuplicateFlagName      = "duplicate flag name"
	ErrGlyphRangeCollision    = "glyph code range collides with flag code range"
	ErrUnknownWidthContext    = "unknown width context"
	ErrUnknownLayout          = "unknown structural layout"
	ErrEmptyCharacterTable    = "character table contains no characters"
	ErrOffsetOutOfRange       = "offset out of range"
	ErrRegionOverflowInternal = "text region overflow after budget check"
)

// Info messages
const (
	InfoDumpingScripts    = "Dumping script files"
	InfoInsertingScripts  = "Inserting script files"
	InfoScriptsDumped     = "Dumped %d of %d script files"
	InfoScriptsInserted   = "Inserted %d of %d script files"
	InfoEntriesDumped     = "%s: dumped %d entries"
	InfoEntriesInserted   = "%s: inserted %d entries (%d unique) in %d bytes"
	InfoBoxDimsRefreshed  = "Refreshed box dimensions for %d rows in %s"
	InfoTableLoaded       = "Character table loaded: %d primary, %d alternate glyphs"
	InfoKindsLoaded       = "File kind config loaded: %d kinds, %d width contexts"
	InfoCSVWritten        = "Script CSV written: %s (%d rows)"
	InfoFileUnchanged     = "%s: no edited entries, file rewritten losslessly"
	InfoSkippedNoKind     = "%s: no file kind matches, skipping"
	InfoFileFailed        = "%s: failed, file left untouched"
)

// Debug messages
const (
	DebugEntryLocated   = "%s: entry at 0x%X, %d bytes, %d pointer slots"
	DebugEntryEncoded   = "%s: encoded %d bytes, box %dx%d"
	DebugDedupGroup     = "group %d: %d bytes, %d members"
	DebugPointerUpdated = "pointer slot 0x%X -> 0x%X (raw 0x%08X)"
	DebugKindMatched    = "%s: matched kind %q (%s, %s)"
	DebugRowMerged      = "row %d: %s edited"
)

// Warning messages
const (
	WarnRowForUnknownFile = "CSV row %d references unknown file %q"
	WarnFileErrors        = "%s: %v"
)

// LogInfo logs an informational message
func LogInfo(message string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[INFO] "+message, args...)
	} else {
		log.Printf("[INFO] %s", message)
	}
}

// LogWarn logs a warning message
func LogWarn(message string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[WARN] "+message, args...)
	} else {
		log.Printf("[WARN] %s", message)
	}
}

// LogError logs an error message
func LogError(message string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[ERROR] "+message, args...)
	} else {
		log.Printf("[ERROR] %s", message)
	}
}

// LogDebug logs a debug message (only if VerboseMode is enabled)
func LogDebug(message string, args ...interface{}) {
	if !VerboseMode {
		return
	}
	if len(args) > 0 {
		log.Printf("[DEBUG] "+message, args...)
	} else {
		log.Printf("[DEBUG] %s", message)
	}
}

// FormatError creates a formatted error with additional context
func FormatError(baseMessage string, details interface{}) error {
	if err, ok := details.(error); ok {
		return fmt.Errorf("%s: %w", baseMessage, err)
	}
	return fmt.Errorf("%s: %v", baseMessage, details)
}

// FormatErrorString creates a formatted error with string details
func FormatErrorString(baseMessage, details string, args ...interface{}) error {
	if len(args) > 0 {
		return fmt.Errorf("%s: "+details, append([]interface{}{baseMessage}, args...)...)
	}
	return fmt.Errorf("%s: %s", baseMessage, details)
}
