// Package types provides type definitions for structured data used throughout the resume-screener system.
package types

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParsedResume is the structured record extracted from a single resume.
// Every field except RawText is independently optional; an empty string or
// empty slice means the extractor found nothing.
type ParsedResume struct {
	Name            string   `json:"name,omitempty"`
	Email           string   `json:"email,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	Skills          []string `json:"skills"`
	ExperienceYears Years    `json:"experience_years"`
	Keywords        []string `json:"keywords"`
	Projects        string   `json:"projects,omitempty"`
	Education       string   `json:"education,omitempty"`
	Certifications  string   `json:"certifications,omitempty"`
	RawText         string   `json:"raw_text"`
}

// IsEmpty reports whether extraction produced no text at all.
func (p *ParsedResume) IsEmpty() bool {
	return p == nil || p.RawText == ""
}

// Years is a number of years of experience.
//
// Decoding is lenient: a JSON number, a numeric string, or null are accepted.
// Anything else decodes to NaN so that downstream scoring can apply its
// non-numeric fallback instead of rejecting the whole payload.
type Years float64

// Float returns the value as a float64.
func (y Years) Float() float64 {
	return float64(y)
}

// Valid reports whether the value is a finite number.
func (y Years) Valid() bool {
	f := float64(y)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// MarshalJSON encodes non-finite values as null since JSON has no NaN.
func (y Years) MarshalJSON() ([]byte, error) {
	if !y.Valid() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(y), 'f', -1, 64)), nil
}

// UnmarshalJSON implements lenient decoding.
func (y *Years) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*y = 0
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*y = Years(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			*y = 0
			return nil
		}
		if parsed, err := strconv.ParseFloat(s, 64); err == nil {
			*y = Years(parsed)
			return nil
		}
	}

	*y = Years(math.NaN())
	return nil
}
