package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"fintrack/internal/core"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 16

var errEmptyBody = errors.New("request body is empty")

// decodeJSON reads a single JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("malformed JSON: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// parseEntryDate reads an optional YYYY-MM-DD date, defaulting to today.
func parseEntryDate(raw string) (core.Date, error) {
	if raw == "" {
		return core.Today(), nil
	}
	return core.ParseDate(raw)
}

// optionalPeriod reads month/year query parameters; both absent means all time.
func optionalPeriod(r *http.Request) (*core.Period, error) {
	q := r.URL.Query()
	return core.ParsePeriod(q.Get("month"), q.Get("year"))
}

// requiredPeriod reads month/year query parameters that must both be present.
func requiredPeriod(r *http.Request) (core.Period, error) {
	p, err := optionalPeriod(r)
	if err != nil {
		return core.Period{}, err
	}
	if p == nil {
		return core.Period{}, fmt.Errorf("%w: month and year are required", core.ErrInvalidInput)
	}
	return *p, nil
}
