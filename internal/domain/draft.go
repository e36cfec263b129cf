package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// DraftAttributes are the identity and location signals of a draft listing.
// Every field is optional; empty strings and nil pointers mean "not provided".
type DraftAttributes struct {
	Title         string
	Community     string
	City          string
	DeveloperName string
	Location      *Coordinate
	Price         *float64
}

// HasSignal reports whether the draft carries anything the engine can use.
func (d DraftAttributes) HasSignal() bool {
	return strings.TrimSpace(d.Title) != "" ||
		strings.TrimSpace(d.Community) != "" ||
		strings.TrimSpace(d.City) != "" ||
		strings.TrimSpace(d.DeveloperName) != "" ||
		d.Location != nil ||
		d.Price != nil
}

// draftPayload mirrors the inbound JSON shape with every field left raw so
// each one can fail independently.
type draftPayload struct {
	Title         json.RawMessage `json:"title"`
	Community     json.RawMessage `json:"community"`
	City          json.RawMessage `json:"city"`
	DeveloperName json.RawMessage `json:"developerName"`
	Latitude      json.RawMessage `json:"latitude"`
	Longitude     json.RawMessage `json:"longitude"`
	Price         json.RawMessage `json:"price"`
}

// UnmarshalJSON decodes the inbound draft shape leniently: a malformed field
// becomes absent instead of rejecting the whole payload.
func (d *DraftAttributes) UnmarshalJSON(data []byte) error {
	var p draftPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	*d = DraftAttributes{
		Title:         rawString(p.Title),
		Community:     rawString(p.Community),
		City:          rawString(p.City),
		DeveloperName: rawString(p.DeveloperName),
	}

	lat, latOK := rawFloat(p.Latitude)
	lon, lonOK := rawFloat(p.Longitude)
	if latOK && lonOK {
		d.Location, _ = NewCoordinate(lat, lon)
	}

	if price, ok := rawFloat(p.Price); ok && price > 0 {
		d.Price = &price
	}
	return nil
}

// rawString returns the trimmed string value of a JSON string, or "" for
// anything else.
func rawString(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// rawFloat accepts a JSON number or a numeric string.
func rawFloat(raw json.RawMessage) (float64, bool) {
	if isNull(raw) {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, isFinite(v)
	}
	s := rawString(raw)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, isFinite(v)
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
