package models

import "time"

// RenderMode selects how the backend produces the next composite image.
type RenderMode string

const (
	// RenderModeFull regenerates the composite from the room photo and the
	// complete staged selection.
	RenderModeFull RenderMode = "full"
	// RenderModeEdit applies an incremental edit to the previous composite.
	RenderModeEdit RenderMode = "edit"
)

// JobStatus is the lifecycle state of a backend generation job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobSucceeded  JobStatus = "succeeded"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether the status will no longer change.
func (s JobStatus) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// RenderSelection is the serializable staged selection sent to the backend.
type RenderSelection struct {
	Products   []RenderProduct `json:"products"`
	WallColor  *WallColor      `json:"wall_color,omitempty"`
	Texture    *TextureVariant `json:"texture_variant,omitempty"`
	FloorTile  *FloorTile      `json:"floor_tile,omitempty"`
	RoomPhoto  string          `json:"room_photo,omitempty"`
	BaseRender string          `json:"base_render,omitempty"`
}

// RenderProduct pairs a product with the quantity staged on the canvas.
type RenderProduct struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// RenderRequest is submitted to the backend rendering API.
type RenderRequest struct {
	SessionID string          `json:"session_id"`
	Mode      RenderMode      `json:"mode"`
	Selection RenderSelection `json:"selection"`
	// Added and Removed narrow an edit request to the changed items.
	Added   []RenderProduct `json:"added,omitempty"`
	Removed []string        `json:"removed,omitempty"`
}

// GenerationJob tracks an asynchronous backend render.
type GenerationJob struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Status    JobStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// RenderResult is the completed output of a generation job.
type RenderResult struct {
	JobID     string    `json:"job_id"`
	SessionID string    `json:"session_id"`
	// Image is the encoded composite bitmap (PNG or JPEG).
	Image     []byte    `json:"image"`
	MimeType  string    `json:"mime_type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
