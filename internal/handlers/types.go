package handlers

import (
	"mime/multipart"
	"time"
)

// Upload statuses.
const (
	StatusCreated = "created"
	StatusExisted = "existed"
	StatusUpdated = "updated"
	StatusDeleted = "deleted"
)

// HelpResponse is the rendered help page.
type HelpResponse struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// UploadRequest is a multipart upload with a `c`/`content` field and an
// optional `e`/`expire` lifetime in seconds.
type UploadRequest struct {
	RawBody multipart.Form
}

// AliasUploadRequest is an upload under a custom alias.
type AliasUploadRequest struct {
	Alias   string `doc:"The custom alias" example:"notes" maxLength:"128" path:"key"`
	RawBody multipart.Form
}

// UpdateRequest replaces the content of an existing paste.
type UpdateRequest struct {
	ID      string `doc:"The paste id" example:"3f1c2b1e-6a0f-4d62-9c4b-6a3e0a8d5f10" path:"key"`
	RawBody multipart.Form
}

// UploadBody describes a stored paste.
type UploadBody struct {
	Date   time.Time `doc:"Creation time" json:"date"`
	Digest string    `doc:"BLAKE3 digest of the content" json:"digest"`
	Short  string    `doc:"The short code" example:"abcde" json:"short"`
	ID     string    `doc:"The paste id" json:"id"`
	Alias  string    `doc:"The custom alias, if any" json:"alias,omitempty"`
	Size   int       `doc:"Content length in bytes" json:"size"`
	URL    string    `doc:"The paste url" example:"http://localhost:8888/abcde" json:"url"`
	Status string    `doc:"Upload outcome" enum:"created,existed,updated" json:"status"`
}

// UploadResponse is returned by uploads and updates. Status is 201 for
// new pastes and 302 when the content already exists.
type UploadResponse struct {
	Status   int
	Location string `doc:"The paste url" header:"Location"`
	Body     UploadBody
}

// ViewRequest addresses a paste by short code, alias or id, with an
// optional `.ext` suffix selecting a highlighter.
type ViewRequest struct {
	Key string `doc:"Short code, alias or id, optionally with .ext" example:"abcde.go" path:"key"`
}

// ViewResponse carries raw paste content or a redirect.
type ViewResponse struct {
	Status      int
	ContentType string `header:"Content-Type"`
	Location    string `header:"Location"`
	Body        []byte
}

// DeleteRequest addresses a paste by id.
type DeleteRequest struct {
	ID string `doc:"The paste id" path:"key"`
}

// DeleteResponse confirms a deletion.
type DeleteResponse struct {
	Body struct {
		ID     string `json:"id"`
		Status string `enum:"deleted" json:"status"`
	}
}
