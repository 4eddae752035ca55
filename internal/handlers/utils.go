package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hashvault/assetstore/types"
)

type contextKey string

const contextSubjectKey contextKey = "sub"

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func parsePagination(r *http.Request) (page, limit, offset int, err error) {
	page, limit = 1, 20

	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, 0, errors.New("invalid page")
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, 0, errors.New("invalid limit")
		}
	}
	return page, limit, (page - 1) * limit, nil
}

// identityFromRequest builds a file identity from the {hash} route
// param, the wildcard filename tail, and the optional variant query
// param.
func identityFromRequest(r *http.Request) (types.FileIdentity, error) {
	hash := strings.TrimSpace(chi.URLParam(r, "hash"))
	if hash == "" {
		return types.FileIdentity{}, errors.New("missing hash")
	}

	filename, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil || strings.TrimSpace(filename) == "" {
		return types.FileIdentity{}, errors.New("missing filename")
	}

	return types.FileIdentity{
		Filename: filename,
		Hash:     hash,
		Variant:  strings.TrimSpace(r.URL.Query().Get("variant")),
	}, nil
}
