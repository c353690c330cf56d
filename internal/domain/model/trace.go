package model

// RawTrace is the decoder output for one trace file, before normalization.
// Values are kept as the decoder printed them.
type RawTrace struct {
	FileID       string
	EmbeddedName string
	Fixed        map[string]string
	General      map[string]string
	Supplier     map[string]string
	Summary      map[string]string
	// Events is keyed as in the dump, e.g. "event 3".
	Events map[string]map[string]string
}
