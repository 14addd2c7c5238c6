// Package http serves the subscription API.
//
// This file implements utilities for parsing request data: list filters,
// paging, trend lengths and JSON bodies.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"subtrack/internal/core"
	"subtrack/internal/storage"
)

const (
	// MaxBodyBytes bounds JSON request bodies.
	MaxBodyBytes = 1 << 20
	// MaxPageLimit caps the page size a client may request.
	MaxPageLimit = 500
	// MaxTrendMonths caps the trend length a client may request.
	MaxTrendMonths = 24
)

var errBadRequest = errors.New("bad request")

// ParseListOptions reads status, categoryId, page and limit. Malformed
// numbers fall back to the defaults; an unknown status is an error.
func ParseListOptions(q url.Values) (storage.ListOptions, error) {
	opts := storage.ListOptions{
		CategoryID: strings.TrimSpace(q.Get("categoryId")),
		Page:       parsePositiveInt(q.Get("page"), 1),
		Limit:      parsePositiveInt(q.Get("limit"), storage.DefaultPageLimit),
	}
	if opts.Limit > MaxPageLimit {
		opts.Limit = MaxPageLimit
	}
	if v := strings.TrimSpace(q.Get("status")); v != "" {
		st := core.Status(strings.ToLower(v))
		if !st.Valid() {
			return storage.ListOptions{}, fmt.Errorf("%w: unknown status %q", errBadRequest, v)
		}
		opts.Status = st
	}
	return opts, nil
}

// ParseMonths reads the trend length. Zero means the server default.
func ParseMonths(q url.Values) (int, error) {
	v := strings.TrimSpace(q.Get("months"))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > MaxTrendMonths {
		return 0, fmt.Errorf("%w: months must be between 1 and %d", errBadRequest, MaxTrendMonths)
	}
	return n, nil
}

func parsePositiveInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// DecodeJSON reads a bounded JSON body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
	}
	return nil
}
