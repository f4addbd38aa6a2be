package api

import "encoding/json"

// AttributesResponse lists queryable attribute names in schema order.
type AttributesResponse struct {
	Attributes []string `json:"attributes"`
}

// DtypesResponse maps attribute names to their kind labels.
type DtypesResponse struct {
	Dtypes map[string]string `json:"dtypes"`
}

// NumTimestepsResponse carries the episode length.
type NumTimestepsResponse struct {
	NumTimesteps int `json:"num_timesteps"`
}

// TimestepResponse carries every attribute's encoded value for one timestep.
// Each entry is already kind-encoded JSON: a base64 PNG string for COLOR, a
// nested numeric array for GRID, a string or string list for TEXT.
type TimestepResponse struct {
	Timestep int                        `json:"timestep"`
	Data     map[string]json.RawMessage `json:"data"`
}

// UploadResponse reports a successful store replacement.
type UploadResponse struct {
	Message      string `json:"message"`
	FilePath     string `json:"file_path"`
	NumTimesteps int    `json:"num_timesteps"`
}

// ErrorResponse is the structured failure payload for all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}
