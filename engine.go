// Copyright (C) 2023-2026, Stagecraft Audio, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dawrpc

import (
	"context"
	"errors"
)

// Engine is the typed command surface over a Client: one method per host
// capability, translating arguments into command bodies and replies into
// return values. It adds no protocol behavior of its own.
type Engine struct {
	client *Client
}

// Open dials the host and wraps the connection in an Engine. Release with
// Close.
func Open(ctx context.Context, addr string, opts ...Option) (*Engine, error) {
	c, err := Dial(ctx, addr, opts...)
	if err != nil {
		return nil, err
	}
	return &Engine{client: c}, nil
}

// NewEngine wraps an already-connected client.
func NewEngine(c *Client) *Engine {
	return &Engine{client: c}
}

// Client exposes the underlying session manager.
func (e *Engine) Client() *Client { return e.client }

// Close closes the underlying connection. Idempotent.
func (e *Engine) Close() error { return e.client.Close() }

// sendAs runs one command and asserts its typed response body.
func sendAs[T any](ctx context.Context, c *Client, cmd Command) (*T, error) {
	res, err := c.Send(ctx, cmd)
	if err != nil {
		return nil, err
	}
	body, ok := res.Body.(*T)
	if !ok {
		return nil, &DecodeError{Command: cmd.ID, Err: errors.New("missing response body")}
	}
	return body, nil
}

// sendEmpty runs one command whose reply carries no body.
func sendEmpty(ctx context.Context, c *Client, cmd Command) error {
	_, err := c.Send(ctx, cmd)
	return err
}

// HostReady probes the host. It succeeds even before registration.
func (e *Engine) HostReady(ctx context.Context) error {
	return sendEmpty(ctx, e.client, Command{ID: CmdHostReadyCheck})
}

// Version reports the scripting protocol version the host runs.
func (e *Engine) Version(ctx context.Context) (int, error) {
	resp, err := sendAs[GetVersionResponse](ctx, e.client, Command{ID: CmdGetVersion})
	if err != nil {
		return 0, err
	}
	return resp.Version, nil
}

func (e *Engine) SessionName(ctx context.Context) (string, error) {
	resp, err := sendAs[GetSessionNameResponse](ctx, e.client, Command{ID: CmdGetSessionName})
	if err != nil {
		return "", err
	}
	return resp.SessionName, nil
}

func (e *Engine) SessionPath(ctx context.Context) (string, error) {
	resp, err := sendAs[GetSessionPathResponse](ctx, e.client, Command{ID: CmdGetSessionPath})
	if err != nil {
		return "", err
	}
	return resp.SessionPath, nil
}

func (e *Engine) SessionSampleRate(ctx context.Context) (SampleRate, error) {
	resp, err := sendAs[GetSessionSampleRateResponse](ctx, e.client, Command{ID: CmdGetSessionSampleRate})
	if err != nil {
		return "", err
	}
	return resp.SampleRate, nil
}

func (e *Engine) SessionAudioFormat(ctx context.Context) (AudioFormat, error) {
	resp, err := sendAs[GetSessionAudioFormatResponse](ctx, e.client, Command{ID: CmdGetSessionAudioFormat})
	if err != nil {
		return "", err
	}
	return resp.CurrentSetting, nil
}

func (e *Engine) SessionStartTime(ctx context.Context) (string, error) {
	resp, err := sendAs[GetSessionStartTimeResponse](ctx, e.client, Command{ID: CmdGetSessionStartTime})
	if err != nil {
		return "", err
	}
	return resp.SessionStartTime, nil
}

func (e *Engine) SessionLength(ctx context.Context) (string, error) {
	resp, err := sendAs[GetSessionLengthResponse](ctx, e.client, Command{ID: CmdGetSessionLength})
	if err != nil {
		return "", err
	}
	return resp.SessionLength, nil
}

func (e *Engine) CreateSession(ctx context.Context, req CreateSessionRequest) error {
	return sendEmpty(ctx, e.client, Command{ID: CmdCreateSession, Body: &req})
}

func (e *Engine) OpenSession(ctx context.Context, path string) error {
	return sendEmpty(ctx, e.client, Command{ID: CmdOpenSession, Body: &OpenSessionRequest{SessionPath: path}})
}

func (e *Engine) SaveSession(ctx context.Context) error {
	return sendEmpty(ctx, e.client, Command{ID: CmdSaveSession})
}

func (e *Engine) SaveSessionAs(ctx context.Context, name, location string) error {
	return sendEmpty(ctx, e.client, Command{ID: CmdSaveSessionAs, Body: &SaveSessionAsRequest{
		SessionName:     name,
		SessionLocation: location,
	}})
}

func (e *Engine) CloseSession(ctx context.Context, saveOnClose bool) error {
	return sendEmpty(ctx, e.client, Command{ID: CmdCloseSession, Body: &CloseSessionRequest{SaveOnClose: saveOnClose}})
}

func (e *Engine) PlaybackMode(ctx context.Context) ([]PlaybackMode, error) {
	resp, err := sendAs[GetPlaybackModeResponse](ctx, e.client, Command{ID: CmdGetPlaybackMode})
	if err != nil {
		return nil, err
	}
	return resp.CurrentSettings, nil
}

func (e *Engine) SetPlaybackMode(ctx context.Context, mode PlaybackMode) error {
	return sendEmpty(ctx, e.client, Command{ID: CmdSetPlaybackMode, Body: &SetPlaybackModeRequest{PlaybackMode: mode}})
}

func (e *Engine) RecordMode(ctx context.Context) (RecordMode, error) {
	resp, err := sendAs[GetRecordModeResponse](ctx, e.client, Command{ID: CmdGetRecordMode})
	if err != nil {
		return "", err
	}
	return resp.CurrentSetting, nil
}

func (e *Engine) SetRecordMode(ctx context.Context, mode RecordMode, armTransport bool) error {
	return sendEmpty(ctx, e.client, Command{ID: CmdSetRecordMode, Body: &SetRecordModeRequest{
		RecordMode:         mode,
		RecordArmTransport: armTransport,
	}})
}

func (e *Engine) TransportState(ctx context.Context) (TransportState, error) {
	resp, err := sendAs[GetTransportStateResponse](ctx, e.client, Command{ID: CmdGetTransportState})
	if err != nil {
		return "", err
	}
	return resp.CurrentSetting, nil
}

func (e *Engine) TogglePlayState(ctx context.Context) error {
	return sendEmpty(ctx, e.client, Command{ID: CmdTogglePlayState})
}

func (e *Engine) TrackList(ctx context.Context) ([]Track, error) {
	resp, err := sendAs[GetTrackListResponse](ctx, e.client, Command{ID: CmdGetTrackList, Body: &GetTrackListRequest{}})
	if err != nil {
		return nil, err
	}
	return resp.TrackList, nil
}

func (e *Engine) TrackByID(ctx context.Context, id string) (*Track, error) {
	resp, err := sendAs[GetTrackByIDResponse](ctx, e.client, Command{ID: CmdGetTrackByID, Body: &GetTrackByIDRequest{TrackID: id}})
	if err != nil {
		return nil, err
	}
	return &resp.Track, nil
}

func (e *Engine) CreateTracks(ctx context.Context, req CreateNewTracksRequest) (*CreateNewTracksResponse, error) {
	return sendAs[CreateNewTracksResponse](ctx, e.client, Command{ID: CmdCreateNewTracks, Body: &req})
}

func (e *Engine) CreateMemoryLocation(ctx context.Context, req CreateMemoryLocationRequest) error {
	return sendEmpty(ctx, e.client, Command{ID: CmdCreateMemoryLocation, Body: &req})
}

func (e *Engine) MemoryLocations(ctx context.Context) ([]MemoryLocation, error) {
	resp, err := sendAs[GetMemoryLocationsResponse](ctx, e.client, Command{ID: CmdGetMemoryLocations})
	if err != nil {
		return nil, err
	}
	return resp.MemoryLocations, nil
}
