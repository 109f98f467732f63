package server

import (
	"github.com/lawnchairsociety/puzzlemap/internal/mapgen"
	"github.com/lawnchairsociety/puzzlemap/internal/mapstore"
)

// Request types accepted on the websocket
const (
	RequestGenerate = "generate"
	RequestLoad     = "load"
)

// Response types sent on the websocket
const (
	ResponseMap   = "map"
	ResponseError = "error"
)

// Error codes carried in error responses
const (
	CodeBadRequest  = "bad_request"
	CodeInvalidMap  = "invalid_map"
	CodeTooLarge    = "too_large"
	CodeBusy        = "busy"
	CodeLockedOut   = "locked_out"
	CodeNotFound    = "not_found"
	CodeNoStore     = "no_store"
	CodeUnsolvable  = "unsatisfiable"
	CodeServerError = "server_error"
)

// Request is a client message. Zero width, height or difficulty fall back to
// the configured defaults; a nil seed is picked at random.
type Request struct {
	Type       string `json:"type"`
	Ref        string `json:"ref,omitempty"`
	ID         string `json:"id,omitempty"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Difficulty int    `json:"difficulty,omitempty"`
	Seed       *int64 `json:"seed,omitempty"`
	Save       bool   `json:"save,omitempty"`
}

// Response is a server message. Ref echoes the request's ref.
type Response struct {
	Type  string          `json:"type"`
	Ref   string          `json:"ref,omitempty"`
	ID    string          `json:"id,omitempty"`
	Seed  int64           `json:"seed"`
	Map   *mapgen.MapData `json:"map,omitempty"`
	Code  string          `json:"code,omitempty"`
	Error string          `json:"error,omitempty"`
}

// MapResponse is the body of GET /maps/{id}
type MapResponse struct {
	Record mapstore.Record `json:"record"`
	Map    mapgen.MapData  `json:"map"`
}

func errorResponse(ref, code, msg string) Response {
	return Response{Type: ResponseError, Ref: ref, Code: code, Error: msg}
}
