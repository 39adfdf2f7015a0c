package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// multipartOverhead allows for boundaries and headers around the content.
const multipartOverhead = 64 << 10

// RegisterRoutes registers all paste routes. Every operation on a single
// paste uses the {key} path parameter, so the routes share one tree node.
func RegisterRoutes(api huma.API, h *PasteHandler) {
	bodyLimit := h.maxLength + multipartOverhead

	huma.Register(api, huma.Operation{
		OperationID: "help",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "Help page",
		Tags:        []string{"Help"},
	}, h.Help)

	huma.Register(api, huma.Operation{
		OperationID:   "upload",
		Method:        http.MethodPost,
		Path:          "/",
		Summary:       "Upload a paste",
		Description:   "Stores the multipart field c (or content). Identical content returns the existing paste with 302.",
		Tags:          []string{"Pastes"},
		MaxBodyBytes:  bodyLimit,
		DefaultStatus: http.StatusCreated,
	}, h.Upload)

	huma.Register(api, huma.Operation{
		OperationID:   "upload-link",
		Method:        http.MethodPost,
		Path:          "/u",
		Summary:       "Create a short link",
		Tags:          []string{"Pastes"},
		MaxBodyBytes:  bodyLimit,
		DefaultStatus: http.StatusCreated,
	}, h.UploadLink)

	huma.Register(api, huma.Operation{
		OperationID:   "upload-alias",
		Method:        http.MethodPost,
		Path:          "/{key}",
		Summary:       "Upload a paste under a custom alias",
		Tags:          []string{"Pastes"},
		MaxBodyBytes:  bodyLimit,
		DefaultStatus: http.StatusCreated,
	}, h.UploadAlias)

	huma.Register(api, huma.Operation{
		OperationID: "view",
		Method:      http.MethodGet,
		Path:        "/{key}",
		Summary:     "View a paste",
		Description: "Returns raw content, redirects short links, or highlights text when the key ends in .ext.",
		Tags:        []string{"Pastes"},
	}, h.View)

	huma.Register(api, huma.Operation{
		OperationID:  "update",
		Method:       http.MethodPut,
		Path:         "/{key}",
		Summary:      "Replace the content of a paste",
		Tags:         []string{"Pastes"},
		MaxBodyBytes: bodyLimit,
	}, h.Update)

	huma.Register(api, huma.Operation{
		OperationID: "delete",
		Method:      http.MethodDelete,
		Path:        "/{key}",
		Summary:     "Delete a paste",
		Tags:        []string{"Pastes"},
	}, h.Delete)
}
