package decoder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/okian/argos/internal/domain/model"
)

// Keys of the decoder's JSON dump.
const (
	dumpSuffix     = "-dump.json"
	traceExt       = ".sor"
	keyFilename    = "filename"
	keyFixed       = "FxdParams"
	keyGeneral     = "GenParams"
	keySupplier    = "SupParams"
	keyKeyEvents   = "KeyEvents"
	keySummary     = "Summary"
	eventKeyPrefix = "event "
)

// ParseDump reads one decoder dump. fileID names the trace the dump came
// from. Scalar values are kept as their JSON text so numbers are not
// reformatted.
func ParseDump(r io.Reader, fileID string) (model.RawTrace, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return model.RawTrace{}, fmt.Errorf("%w: %s: malformed dump: %w", ErrDecode, fileID, err)
	}

	raw := model.RawTrace{
		FileID:   fileID,
		Fixed:    section(doc[keyFixed]),
		General:  section(doc[keyGeneral]),
		Supplier: section(doc[keySupplier]),
		Events:   make(map[string]map[string]string),
	}
	if name, ok := doc[keyFilename].(string); ok {
		raw.EmbeddedName = name
	}
	if events, ok := doc[keyKeyEvents].(map[string]any); ok {
		raw.Summary = section(events[keySummary])
		for k, v := range events {
			if !strings.HasPrefix(strings.ToLower(k), eventKeyPrefix) {
				continue
			}
			raw.Events[k] = section(v)
		}
	}
	return raw, nil
}

// section flattens one JSON object into strings. Nested objects are kept as
// JSON text; anything that is not an object yields an empty map.
func section(v any) map[string]string {
	out := make(map[string]string)
	obj, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for k, val := range obj {
		out[k] = scalar(val)
	}
	return out
}

func scalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

// TraceName maps a dump filename back to the trace it was produced from,
// e.g. "F1-dump.json" to "F1.sor". Other names are returned unchanged.
func TraceName(dumpName string) string {
	base := filepath.Base(dumpName)
	if strings.HasSuffix(strings.ToLower(base), dumpSuffix) {
		return base[:len(base)-len(dumpSuffix)] + traceExt
	}
	return base
}

// Dump decodes files that already are decoder dumps.
type Dump struct{}

// Decode reads the dump at path.
func (Dump) Decode(_ context.Context, path string) (model.RawTrace, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.RawTrace{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	defer f.Close()
	return ParseDump(f, TraceName(path))
}
