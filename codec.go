// Copyright (C) 2023-2026, Stagecraft Audio, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dawrpc

import (
	"encoding/json"
	"errors"
	"strconv"
)

// protocolVersion is sent in every request header. The host rejects versions
// it does not speak during the handshake.
const protocolVersion = 1

// Wire envelope. Every frame carries exactly one request or one response.
// Bodies travel as JSON text inside the envelope, one shape per command.

type requestHeader struct {
	TaskID    string    `json:"task_id"`
	SessionID string    `json:"session_id,omitempty"`
	Command   CommandID `json:"command"`
	Version   int       `json:"version"`
}

type wireRequest struct {
	Header          requestHeader `json:"header"`
	RequestBodyJSON string        `json:"request_body_json,omitempty"`
}

type responseHeader struct {
	TaskID   string     `json:"task_id"`
	Command  CommandID  `json:"command"`
	Status   TaskStatus `json:"status"`
	Progress int        `json:"progress,omitempty"`
}

type wireResponse struct {
	Header            responseHeader `json:"header"`
	ResponseBodyJSON  string         `json:"response_body_json,omitempty"`
	ResponseErrorJSON string         `json:"response_error_json,omitempty"`
}

// Codec translates typed command bodies to and from the wire body text. It is
// pure data transformation: no transport or correlation state.
type Codec interface {
	// EncodeBody serializes the command's request body. Commands without
	// parameters encode to the empty string.
	EncodeBody(cmd Command) (string, error)

	// DecodeBody deserializes a response body into the typed response for the
	// given command, or nil when the command has none.
	DecodeBody(id CommandID, body string) (any, error)
}

// JSONCodec is the default codec: one JSON shape per command, selected
// through the command catalog.
type JSONCodec struct{}

func (JSONCodec) EncodeBody(cmd Command) (string, error) {
	if cmd.Body == nil {
		return "", nil
	}
	b, err := json.Marshal(cmd.Body)
	if err != nil {
		return "", &DecodeError{Command: cmd.ID, Err: err}
	}
	return string(b), nil
}

func (JSONCodec) DecodeBody(id CommandID, body string) (any, error) {
	if body == "" {
		return nil, nil
	}
	spec, ok := catalog[id]
	if !ok || spec.newResponse == nil {
		// Commands outside the catalog (or without a typed response) still
		// surface their payload rather than dropping host data.
		var raw map[string]any
		if err := json.Unmarshal([]byte(body), &raw); err != nil {
			return nil, decodeErr(id, err)
		}
		return raw, nil
	}
	resp := spec.newResponse()
	if err := json.Unmarshal([]byte(body), resp); err != nil {
		return nil, decodeErr(id, err)
	}
	return resp, nil
}

func decodeErr(id CommandID, err error) *DecodeError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &DecodeError{Command: id, Field: typeErr.Field, Err: err}
	}
	return &DecodeError{Command: id, Err: err}
}

var defaultCodec Codec = JSONCodec{}

// wireCommandError is the host's failure payload. Some host builds send the
// error type as its numeric code, others as the symbolic name, so the field
// is parsed leniently.
type wireCommandError struct {
	Type    json.RawMessage `json:"command_error_type"`
	Message string          `json:"command_error_message"`
	Warning bool            `json:"is_warning"`
}

func decodeCommandError(id CommandID, errJSON string) *HostStatusError {
	hostErr := &HostStatusError{Command: id, Code: ErrorUnknown}
	if errJSON == "" {
		return hostErr
	}
	var wire wireCommandError
	if err := json.Unmarshal([]byte(errJSON), &wire); err != nil {
		hostErr.Message = errJSON
		return hostErr
	}
	hostErr.Message = wire.Message
	hostErr.Warning = wire.Warning
	hostErr.Code = parseCommandErrorType(wire.Type)
	return hostErr
}

func parseCommandErrorType(raw json.RawMessage) CommandErrorType {
	if len(raw) == 0 {
		return ErrorUnknown
	}
	var n int32
	if err := json.Unmarshal(raw, &n); err == nil {
		return CommandErrorType(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseInt(s, 10, 32); err == nil {
			return CommandErrorType(v)
		}
		if t, ok := commandErrorTypeByName[s]; ok {
			return t
		}
	}
	return ErrorUnknown
}
