package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hashvault/assetstore/internal/assetstore"
	"github.com/hashvault/assetstore/internal/services"
	"github.com/hashvault/assetstore/types"
)

const (
	maxMultipartMemory = 32 << 20
	formFieldFile      = "file"
	formFieldFilename  = "filename"
	formFieldHash      = "hash"
	formFieldVariant   = "variant"
	formFieldConflict  = "conflict"
	formFieldVisible   = "visibility"
)

// AssetHandler provides HTTP handlers for assets.
type AssetHandler struct {
	assetService *services.AssetService
}

// NewAssetHandler constructs a handler with the provided service.
func NewAssetHandler(assetService *services.AssetService) *AssetHandler {
	return &AssetHandler{assetService: assetService}
}

// AssetRouter registers asset routes on the given router. Mutating
// routes go behind authMiddleware when one is supplied.
func AssetRouter(r chi.Router, assetService *services.AssetService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewAssetHandler(assetService)

	mutating := func(r chi.Router) chi.Router {
		if authMiddleware != nil {
			return r.With(authMiddleware)
		}
		return r
	}

	r.Get("/", handler.ListAssets)
	mutating(r).Post("/", handler.UploadAsset)
	r.Get("/content/{hash}/*", handler.DownloadAsset)
	r.Get("/meta/{hash}/*", handler.AssetMetadata)
	r.Get("/url/{hash}/*", handler.AssetURL)
	r.Get("/variants/{hash}/*", handler.AssetVariants)
	mutating(r).Post("/publish/{hash}/*", handler.PublishAsset)
	mutating(r).Post("/protect/{hash}/*", handler.ProtectAsset)
	mutating(r).Delete("/{hash}/*", handler.DeleteAsset)
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AssetHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.assetService.List(r.Context(), offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list assets")
		return
	}

	writeJSON(w, http.StatusOK, AssetListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *AssetHandler) UploadAsset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile(formFieldFile)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	filename := strings.TrimSpace(r.FormValue(formFieldFilename))
	if filename == "" {
		filename = header.Filename
	}

	cfg := types.WriteConfig{
		Conflict:    types.ConflictPolicy(strings.TrimSpace(r.FormValue(formFieldConflict))),
		Visibility:  types.Visibility(strings.TrimSpace(r.FormValue(formFieldVisible))),
		ContentType: header.Header.Get("Content-Type"),
	}

	id, err := h.assetService.Upload(
		r.Context(),
		file,
		filename,
		strings.TrimSpace(r.FormValue(formFieldHash)),
		strings.TrimSpace(r.FormValue(formFieldVariant)),
		cfg,
	)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, assetstore.ErrInvalidInput):
			status = http.StatusBadRequest
		case errors.Is(err, assetstore.ErrConflict):
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, id)
}

func (h *AssetHandler) DownloadAsset(w http.ResponseWriter, r *http.Request) {
	id, err := identityFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stream, info, err := h.assetService.Download(r.Context(), id)
	if err != nil {
		if errors.Is(err, assetstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "asset not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to read asset")
		return
	}
	defer stream.Close()

	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	}
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, stream)
}

func (h *AssetHandler) AssetMetadata(w http.ResponseWriter, r *http.Request) {
	id, err := identityFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := h.assetService.Stat(r.Context(), id)
	if err != nil {
		if errors.Is(err, assetstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "asset not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to stat asset")
		return
	}

	writeJSON(w, http.StatusOK, info)
}

func (h *AssetHandler) AssetURL(w http.ResponseWriter, r *http.Request) {
	id, err := identityFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	assetURL, err := h.assetService.URL(r.Context(), id)
	if err != nil {
		if errors.Is(err, assetstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "asset not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to build url")
		return
	}

	writeJSON(w, http.StatusOK, AssetURLResponse{URL: assetURL})
}

func (h *AssetHandler) AssetVariants(w http.ResponseWriter, r *http.Request) {
	id, err := identityFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	keys, err := h.assetService.Variants(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list variants")
		return
	}

	writeJSON(w, http.StatusOK, AssetVariantsResponse{Keys: keys})
}

func (h *AssetHandler) PublishAsset(w http.ResponseWriter, r *http.Request) {
	h.setVisibility(w, r, types.VisibilityPublic)
}

func (h *AssetHandler) ProtectAsset(w http.ResponseWriter, r *http.Request) {
	h.setVisibility(w, r, types.VisibilityProtected)
}

func (h *AssetHandler) setVisibility(w http.ResponseWriter, r *http.Request, visibility types.Visibility) {
	id, err := identityFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.assetService.SetVisibility(r.Context(), id, visibility); err != nil {
		if errors.Is(err, assetstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "asset not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to change visibility")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"visibility": string(visibility)})
}

func (h *AssetHandler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	id, err := identityFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	deleted, err := h.assetService.Delete(r.Context(), id.Filename, id.Hash)
	if err != nil {
		if errors.Is(err, assetstore.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete asset")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "asset not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type AssetListResponse struct {
	Items []types.AssetRecord `json:"items"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
	Total int                 `json:"total"`
}

type AssetURLResponse struct {
	URL string `json:"url"`
}

type AssetVariantsResponse struct {
	Keys []string `json:"keys"`
}
