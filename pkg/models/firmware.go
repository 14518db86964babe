package models

// FirmwareUploadRequest is the body of POST /cameras/{id}/firmware
type FirmwareUploadRequest struct {
	Path string `json:"path"`
}

// FirmwareUploadEvent is one line of the NDJSON stream returned by the
// firmware endpoint. The final line has Done set and carries the native
// upload result code.
type FirmwareUploadEvent struct {
	Message  string `json:"message,omitempty"`
	Progress int    `json:"progress"`
	Done     bool   `json:"done,omitempty"`
	Status   int    `json:"status"`
}
