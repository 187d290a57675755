// Copyright (C) 2023-2026, Stagecraft Audio, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dawrpc

import "fmt"

// CommandID identifies one host capability. The host's full table runs to
// roughly 150 commands; this catalog carries the ones the typed Engine surface
// exposes. Unknown ids still round-trip through Send with raw JSON bodies.
type CommandID int32

const (
	CmdHostReadyCheck     CommandID = 0
	CmdRegisterConnection CommandID = 1
	CmdGetVersion         CommandID = 2

	CmdCreateSession CommandID = 10
	CmdOpenSession   CommandID = 11
	CmdSaveSession   CommandID = 12
	CmdSaveSessionAs CommandID = 13
	CmdCloseSession  CommandID = 14

	CmdGetSessionName        CommandID = 20
	CmdGetSessionPath        CommandID = 21
	CmdGetSessionSampleRate  CommandID = 22
	CmdGetSessionAudioFormat CommandID = 23
	CmdGetSessionStartTime   CommandID = 24
	CmdGetSessionLength      CommandID = 25

	CmdGetPlaybackMode   CommandID = 30
	CmdSetPlaybackMode   CommandID = 31
	CmdGetRecordMode     CommandID = 32
	CmdSetRecordMode     CommandID = 33
	CmdGetTransportState CommandID = 34
	CmdTogglePlayState   CommandID = 35

	CmdGetTrackList    CommandID = 40
	CmdGetTrackByID    CommandID = 41
	CmdCreateNewTracks CommandID = 42

	CmdCreateMemoryLocation CommandID = 50
	CmdGetMemoryLocations   CommandID = 51
)

func (c CommandID) String() string {
	if spec, ok := catalog[c]; ok {
		return spec.name
	}
	return fmt.Sprintf("CommandID(%d)", int32(c))
}

// TaskStatus is the host's per-request status code.
type TaskStatus int32

const (
	StatusQueued       TaskStatus = 0
	StatusPending      TaskStatus = 1
	StatusInProgress   TaskStatus = 2
	StatusCompleted    TaskStatus = 3
	StatusFailed       TaskStatus = 4
	StatusWaitingInput TaskStatus = 5
)

// CommandErrorType classifies a host-reported command failure.
type CommandErrorType int32

const (
	ErrorUnknown            CommandErrorType = 0
	ErrorHostNotReady       CommandErrorType = 1
	ErrorNotRegistered      CommandErrorType = 2
	ErrorNoOpenedSession    CommandErrorType = 3
	ErrorNotFound           CommandErrorType = 4
	ErrorInvalidParameter   CommandErrorType = 5
	ErrorUnsupportedCommand CommandErrorType = 6
	ErrorHostBusy           CommandErrorType = 7
)

var commandErrorNames = map[CommandErrorType]string{
	ErrorUnknown:            "UNKNOWN",
	ErrorHostNotReady:       "HOST_NOT_READY",
	ErrorNotRegistered:      "NOT_REGISTERED",
	ErrorNoOpenedSession:    "NO_OPENED_SESSION",
	ErrorNotFound:           "NOT_FOUND",
	ErrorInvalidParameter:   "INVALID_PARAMETER",
	ErrorUnsupportedCommand: "UNSUPPORTED_COMMAND",
	ErrorHostBusy:           "HOST_BUSY",
}

func (t CommandErrorType) String() string {
	if s, ok := commandErrorNames[t]; ok {
		return s
	}
	return fmt.Sprintf("CommandErrorType(%d)", int32(t))
}

// commandErrorTypeByName supports hosts that send the symbolic name instead of
// the numeric code in error payloads.
var commandErrorTypeByName = func() map[string]CommandErrorType {
	m := make(map[string]CommandErrorType, len(commandErrorNames))
	for t, s := range commandErrorNames {
		m[s] = t
	}
	return m
}()

// Command is one request to the host: a command id plus its kind-specific
// body. Body is nil for commands that take no parameters.
type Command struct {
	ID   CommandID
	Body any
}

// Result is a successful reply: the decoded, kind-specific body (nil when the
// command has none) plus the host's status. Warning carries a host-reported
// warning that did not fail the command.
type Result struct {
	Command CommandID
	Status  TaskStatus
	Body    any
	Warning *HostStatusError
}

// commandSpec is one row of the command catalog: the capability's wire name
// and a factory for its typed response body.
type commandSpec struct {
	name        string
	newResponse func() any // nil when the command has no response body
}

var catalog = map[CommandID]commandSpec{
	CmdHostReadyCheck:     {name: "HostReadyCheck"},
	CmdRegisterConnection: {name: "RegisterConnection", newResponse: func() any { return new(RegisterConnectionResponse) }},
	CmdGetVersion:         {name: "GetVersion", newResponse: func() any { return new(GetVersionResponse) }},

	CmdCreateSession: {name: "CreateSession"},
	CmdOpenSession:   {name: "OpenSession"},
	CmdSaveSession:   {name: "SaveSession"},
	CmdSaveSessionAs: {name: "SaveSessionAs"},
	CmdCloseSession:  {name: "CloseSession"},

	CmdGetSessionName:        {name: "GetSessionName", newResponse: func() any { return new(GetSessionNameResponse) }},
	CmdGetSessionPath:        {name: "GetSessionPath", newResponse: func() any { return new(GetSessionPathResponse) }},
	CmdGetSessionSampleRate:  {name: "GetSessionSampleRate", newResponse: func() any { return new(GetSessionSampleRateResponse) }},
	CmdGetSessionAudioFormat: {name: "GetSessionAudioFormat", newResponse: func() any { return new(GetSessionAudioFormatResponse) }},
	CmdGetSessionStartTime:   {name: "GetSessionStartTime", newResponse: func() any { return new(GetSessionStartTimeResponse) }},
	CmdGetSessionLength:      {name: "GetSessionLength", newResponse: func() any { return new(GetSessionLengthResponse) }},

	CmdGetPlaybackMode:   {name: "GetPlaybackMode", newResponse: func() any { return new(GetPlaybackModeResponse) }},
	CmdSetPlaybackMode:   {name: "SetPlaybackMode"},
	CmdGetRecordMode:     {name: "GetRecordMode", newResponse: func() any { return new(GetRecordModeResponse) }},
	CmdSetRecordMode:     {name: "SetRecordMode"},
	CmdGetTransportState: {name: "GetTransportState", newResponse: func() any { return new(GetTransportStateResponse) }},
	CmdTogglePlayState:   {name: "TogglePlayState"},

	CmdGetTrackList:    {name: "GetTrackList", newResponse: func() any { return new(GetTrackListResponse) }},
	CmdGetTrackByID:    {name: "GetTrackByID", newResponse: func() any { return new(GetTrackByIDResponse) }},
	CmdCreateNewTracks: {name: "CreateNewTracks", newResponse: func() any { return new(CreateNewTracksResponse) }},

	CmdCreateMemoryLocation: {name: "CreateMemoryLocation"},
	CmdGetMemoryLocations:   {name: "GetMemoryLocations", newResponse: func() any { return new(GetMemoryLocationsResponse) }},
}

// Session parameter enumerations. The wire carries the symbolic names.

type AudioFormat string

const (
	FormatWAVE AudioFormat = "SAF_WAVE"
	FormatAIFF AudioFormat = "SAF_AIFF"
)

type SampleRate string

const (
	Rate44100  SampleRate = "SR_44100"
	Rate48000  SampleRate = "SR_48000"
	Rate88200  SampleRate = "SR_88200"
	Rate96000  SampleRate = "SR_96000"
	Rate176400 SampleRate = "SR_176400"
	Rate192000 SampleRate = "SR_192000"
)

type BitDepth string

const (
	Bit16      BitDepth = "Bit16"
	Bit24      BitDepth = "Bit24"
	Bit32Float BitDepth = "Bit32Float"
)

type IOSettings string

const (
	IOLast        IOSettings = "IO_Last"
	IOStereoMix   IOSettings = "IO_StereoMix"
	IO51FilmMix   IOSettings = "IO_51FilmMix"
	IO51SMPTEMix  IOSettings = "IO_51SMPTEMix"
	IOUserDefined IOSettings = "IO_UserDefined"
)

type PlaybackMode string

const (
	PlaybackNormal       PlaybackMode = "PM_Normal"
	PlaybackLoop         PlaybackMode = "PM_Loop"
	PlaybackDynamicTrans PlaybackMode = "PM_DynamicTransport"
)

type RecordMode string

const (
	RecordNormal      RecordMode = "RM_Normal"
	RecordLoop        RecordMode = "RM_Loop"
	RecordDestructive RecordMode = "RM_Destructive"
	RecordQuickPunch  RecordMode = "RM_QuickPunch"
)

type TransportState string

const (
	TransportPlaying          TransportState = "TS_TransportPlaying"
	TransportStopped          TransportState = "TS_TransportStopped"
	TransportRecording        TransportState = "TS_TransportRecording"
	TransportPlayingHalfSpeed TransportState = "TS_TransportPlayingHalfSpeed"
)

type TrackType string

const (
	TrackAudio  TrackType = "TT_Audio"
	TrackAux    TrackType = "TT_Aux"
	TrackMIDI   TrackType = "TT_Midi"
	TrackMaster TrackType = "TT_Master"
)

type TrackFormat string

const (
	FormatMono   TrackFormat = "TF_Mono"
	FormatStereo TrackFormat = "TF_Stereo"
)

type TrackTimebase string

const (
	TimebaseSamples TrackTimebase = "TTB_Samples"
	TimebaseTicks   TrackTimebase = "TTB_Ticks"
)

// Track is one track as reported by the host.
type Track struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Type  TrackType `json:"type"`
	Index int       `json:"index"`
	Color string    `json:"color,omitempty"`
}

// MemoryLocation is one marker/memory location as reported by the host.
type MemoryLocation struct {
	Number    int    `json:"number"`
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time,omitempty"`
	Comments  string `json:"comments,omitempty"`
}

// Request and response bodies. Field names follow the host schema's
// snake_case wire names.

type RegisterConnectionRequest struct {
	CompanyName      string `json:"company_name"`
	ApplicationName  string `json:"application_name"`
	ClientInstanceID string `json:"client_instance_id,omitempty"`
}

type RegisterConnectionResponse struct {
	SessionID    string `json:"session_id"`
	IsRegistered bool   `json:"is_registered"`
	Message      string `json:"message,omitempty"`
}

type GetVersionResponse struct {
	Version int `json:"version"`
}

type CreateSessionRequest struct {
	SessionName     string      `json:"session_name"`
	SessionLocation string      `json:"session_location"`
	FileType        AudioFormat `json:"file_type"`
	SampleRate      SampleRate  `json:"sample_rate"`
	BitDepth        BitDepth    `json:"bit_depth"`
	IOSettings      IOSettings  `json:"input_output_settings"`
	IsInterleaved   bool        `json:"is_interleaved"`
}

type OpenSessionRequest struct {
	SessionPath string `json:"session_path"`
}

type SaveSessionAsRequest struct {
	SessionName     string `json:"session_name"`
	SessionLocation string `json:"session_location"`
}

type CloseSessionRequest struct {
	SaveOnClose bool `json:"save_on_close"`
}

type GetSessionNameResponse struct {
	SessionName string `json:"session_name"`
}

type GetSessionPathResponse struct {
	SessionPath string `json:"session_path"`
	IsOnline    bool   `json:"is_online,omitempty"`
}

type GetSessionSampleRateResponse struct {
	SampleRate SampleRate `json:"sample_rate"`
}

type GetSessionAudioFormatResponse struct {
	CurrentSetting AudioFormat `json:"current_setting"`
}

type GetSessionStartTimeResponse struct {
	SessionStartTime string `json:"session_start_time"`
}

type GetSessionLengthResponse struct {
	SessionLength string `json:"session_length"`
}

type GetPlaybackModeResponse struct {
	CurrentSettings  []PlaybackMode `json:"current_settings"`
	PossibleSettings []PlaybackMode `json:"possible_settings,omitempty"`
}

type SetPlaybackModeRequest struct {
	PlaybackMode PlaybackMode `json:"playback_mode"`
}

type GetRecordModeResponse struct {
	CurrentSetting RecordMode `json:"current_setting"`
}

type SetRecordModeRequest struct {
	RecordMode         RecordMode `json:"record_mode"`
	RecordArmTransport bool       `json:"record_arm_transport"`
}

type GetTransportStateResponse struct {
	CurrentSetting TransportState `json:"current_setting"`
}

type GetTrackListRequest struct {
	PageLimit   int      `json:"page_limit,omitempty"`
	TrackFilter []string `json:"track_filter_list,omitempty"`
}

type GetTrackListResponse struct {
	TrackList []Track `json:"track_list"`
}

type GetTrackByIDRequest struct {
	TrackID string `json:"track_id"`
}

type GetTrackByIDResponse struct {
	Track Track `json:"track"`
}

type CreateNewTracksRequest struct {
	NumberOfTracks int           `json:"number_of_tracks"`
	TrackName      string        `json:"track_name"`
	TrackFormat    TrackFormat   `json:"track_format"`
	TrackType      TrackType     `json:"track_type"`
	TrackTimebase  TrackTimebase `json:"track_timebase"`
}

type CreateNewTracksResponse struct {
	NumberOfTracksCreated int      `json:"number_of_tracks_created"`
	CreatedTrackIDs       []string `json:"created_track_ids,omitempty"`
}

type CreateMemoryLocationRequest struct {
	Number    int    `json:"number"`
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time,omitempty"`
	Comments  string `json:"comments,omitempty"`
}

type GetMemoryLocationsResponse struct {
	MemoryLocations []MemoryLocation `json:"memory_locations"`
}
