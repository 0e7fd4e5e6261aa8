// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling.
*/
package requestutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/edubadge/internal/platform/validate"
)

// maxBodyBytes caps decoded request bodies. Every payload of the API is a
// handful of short strings.
const maxBodyBytes = 16 << 10

/*
DecodeJSON reads the request body and decodes it into the target structure.

An empty body leaves target untouched.

Parameters:
  - writer: http.ResponseWriter (used to enforce the body size limit)
  - request: *http.Request
  - target: any (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(writer http.ResponseWriter, request *http.Request, target any) error {
	body := http.MaxBytesReader(writer, request.Body, maxBodyBytes)

	if err := json.NewDecoder(body).Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request, percent-decoded.

The router matches on the escaped path when one exists, so a parameter such
as "Ivan%20Petrov" is decoded here. A malformed escape is returned as-is.
*/
func Param(request *http.Request, name string) string {
	raw := chi.URLParam(request, name)
	if value, err := url.PathUnescape(raw); err == nil {
		return value
	}
	return raw
}
