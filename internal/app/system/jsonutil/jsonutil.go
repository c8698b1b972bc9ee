// Package jsonutil writes and reads the JSON bodies of the folder API.
//
// Every error body has the shape {"error": message}; validation failures
// add a "fields" object keyed by request field.
package jsonutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxBodyBytes caps request bodies read by Decode. Imports of large
// structures are the biggest payloads the API accepts.
const MaxBodyBytes = 8 << 20

// ErrEmptyBody is returned by Decode when the request has no body.
var ErrEmptyBody = errors.New("request body is empty")

// JSON writes a JSON response with the given status code.
// A nil data writes only the status.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// OK writes a 200 OK JSON response.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 Created JSON response.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// ErrorBody is the body of every error response.
type ErrorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Error writes {"error": message} with the given status code.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}

// BadRequest writes a 400 Bad Request error response.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// Unauthorized writes a 401 with a Bearer challenge.
func Unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="folderforge"`)
	Error(w, http.StatusUnauthorized, message)
}

// NotFound writes a 404 Not Found error response.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

// InternalError writes a 500. Log the underlying error separately; message
// goes to the client as is.
func InternalError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, message)
}

// ValidationError writes a 400 Bad Request response with field-level errors.
//
//	jsonutil.ValidationError(w, map[string]string{
//	    "position": "Position must be one of: above, below, child.",
//	})
func ValidationError(w http.ResponseWriter, fields map[string]string) {
	JSON(w, http.StatusBadRequest, ErrorBody{Error: "validation failed", Fields: fields})
}

// Decode reads one JSON value from the request body into v. Bodies over
// MaxBodyBytes, empty bodies and trailing data are errors.
func Decode(r *http.Request, v any) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		if errors.Is(err, io.ErrUnexpectedEOF) && dec.InputOffset() >= MaxBodyBytes {
			return fmt.Errorf("request body exceeds %d bytes", MaxBodyBytes)
		}
		return err
	}
	if dec.More() {
		return errors.New("request body has data after the JSON value")
	}
	return nil
}

// DecodeOptional is Decode for endpoints whose body is optional: an empty
// body leaves v as the caller initialized it.
func DecodeOptional(r *http.Request, v any) error {
	if err := Decode(r, v); err != nil && !errors.Is(err, ErrEmptyBody) {
		return err
	}
	return nil
}
