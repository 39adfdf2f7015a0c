package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/serroba/paste-go/internal/paste"
)

var (
	contentFields = []string{"c", "content"}
	expireFields  = []string{"e", "expire"}
)

// formContent returns the first content field, read from a file part or
// a plain value. limit bounds how much of a file part is read.
func formContent(form *multipart.Form, limit int64) ([]byte, error) {
	for _, field := range contentFields {
		if files := form.File[field]; len(files) > 0 {
			return readPart(files[0], limit)
		}

		if values := form.Value[field]; len(values) > 0 {
			if values[0] == "" {
				return nil, paste.ErrEmptyPayload
			}

			return []byte(values[0]), nil
		}
	}

	return nil, paste.ErrEmptyPayload
}

func readPart(header *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", header.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", header.Filename, err)
	}

	if len(data) == 0 {
		return nil, paste.ErrEmptyPayload
	}

	return data, nil
}

// formExpiry returns the lifetime in seconds, or 0 when absent.
func formExpiry(form *multipart.Form) (int64, error) {
	for _, field := range expireFields {
		values := form.Value[field]
		if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
			continue
		}

		seconds, err := strconv.ParseInt(strings.TrimSpace(values[0]), 10, 64)
		if err != nil || seconds < 0 {
			return 0, fmt.Errorf("invalid %s: %q", field, values[0])
		}

		return seconds, nil
	}

	return 0, nil
}

// splitKey separates "abcde.go" into the lookup key and the extension.
func splitKey(key string) (lookup, ext string) {
	lookup, rest, found := strings.Cut(key, ".")
	if !found {
		return key, ""
	}

	if i := strings.LastIndex(rest, "."); i != -1 {
		rest = rest[i+1:]
	}

	return lookup, rest
}
