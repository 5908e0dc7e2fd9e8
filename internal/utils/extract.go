package utils

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Extraction failures. "No text" is indistinguishable from "extraction
// failed" for the pipeline, so an empty concatenation is an error too.
var (
	ErrMalformedResponse = errors.New("response body is not valid JSON")
	ErrNoCandidates      = errors.New("response has no candidates")
	ErrNoContent         = errors.New("first candidate has no content")
	ErrNoParts           = errors.New("candidate content has no parts array")
	ErrEmptyText         = errors.New("candidate parts contain no text")
	ErrNoJSONStart       = errors.New("no JSON object or array found in text")
	ErrUnterminatedJSON  = errors.New("JSON object or array is not terminated")
)

// generateResponse mirrors the provider envelope:
// {"candidates":[{"content":{"parts":[{"text":"..."}]}}]}
type generateResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []json.RawMessage `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// ExtractText pulls the concatenated plain text out of a raw generateContent
// response body. Only the first candidate is considered; parts without a
// string "text" field are skipped.
func ExtractText(responseJSON string) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal([]byte(responseJSON), &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if len(resp.Candidates) == 0 {
		return "", ErrNoCandidates
	}

	content := resp.Candidates[0].Content
	if content == nil {
		return "", ErrNoContent
	}
	if content.Parts == nil {
		return "", ErrNoParts
	}

	var accum string
	for _, raw := range content.Parts {
		var part struct {
			Text *string `json:"text"`
		}
		if err := json.Unmarshal(raw, &part); err != nil {
			continue
		}
		if part.Text != nil {
			accum += *part.Text
		}
	}

	if accum == "" {
		return "", ErrEmptyText
	}
	return accum, nil
}

// ExtractJSONSubstring extracts the first balanced JSON object or array
// embedded in the text of a generateContent response. Models sometimes wrap
// their JSON in prose; this scans for the first '{' or '[' and walks nesting
// depth of that bracket type until it closes.
//
// The scan is bracket balance only: it does not tokenize string literals, so
// a brace inside a quoted string can mis-pair. Downstream parsing still
// decides whether the substring is actually valid JSON.
func ExtractJSONSubstring(responseJSON string) (string, error) {
	text, err := ExtractText(responseJSON)
	if err != nil {
		return "", err
	}
	return FirstJSONSubstring(text)
}

// FirstJSONSubstring runs the balanced-bracket scan directly on plain text
func FirstJSONSubstring(text string) (string, error) {
	start := -1
	for i := 0; i < len(text); i++ {
		if text[i] == '{' || text[i] == '[' {
			start = i
			break
		}
	}
	if start < 0 {
		return "", ErrNoJSONStart
	}

	open := text[start]
	closer := byte('}')
	if open == '[' {
		closer = ']'
	}

	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", ErrUnterminatedJSON
}
