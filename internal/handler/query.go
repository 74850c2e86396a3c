package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// showTimeLayouts are the accepted movie session show_time formats.
var showTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"}

// parseIDList splits a comma separated id list such as "1,2,3".  Empty items
// are skipped.  A non-numeric item records a validation error on field.
func parseIDList(field, raw string, verrs ValidationErrors) []uint64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var ids []uint64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil || id == 0 {
			verrs.Add(field, fmt.Sprintf("%q is not a valid id", part))
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// parseDate parses a YYYY-MM-DD query value as a UTC day.
func parseDate(field, raw string, verrs ValidationErrors) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		verrs.Add(field, "date has wrong format, use YYYY-MM-DD")
		return nil
	}
	return &d
}

// parseShowTime accepts RFC 3339 or "YYYY-MM-DD HH:MM:SS" (read as UTC).
func parseShowTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range showTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// positiveInt coerces a JSON number or numeric string to a positive integer.
// Fractional numbers, booleans and other strings are rejected.
func positiveInt(raw json.RawMessage) (uint32, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
	} else {
		s = string(raw)
	}
	return positiveIntString(s)
}

func positiveIntString(s string) (uint32, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint32(n), true
}

// idList decodes a relation field given either as a single id or as an
// array of ids; ids may be numbers or numeric strings.
func idList(raw json.RawMessage) ([]uint64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, true
	}
	var items []json.RawMessage
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, false
		}
	} else {
		items = []json.RawMessage{raw}
	}
	ids := make([]uint64, 0, len(items))
	for _, it := range items {
		n, ok := positiveInt(it)
		if !ok {
			return nil, false
		}
		ids = append(ids, uint64(n))
	}
	return ids, true
}

// formIDList reads a relation field from form values: repeated keys, CSV
// or both ("genres=1&genres=2,3").
func formIDList(values []string) ([]uint64, bool) {
	var ids []uint64
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, ok := positiveIntString(part)
			if !ok {
				return nil, false
			}
			ids = append(ids, uint64(n))
		}
	}
	return ids, true
}
