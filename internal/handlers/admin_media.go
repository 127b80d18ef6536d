package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"tourcms/internal/imaging"
	"tourcms/internal/middleware"
	"tourcms/internal/models"
	"tourcms/internal/storage"
)

const (
	// maxUploadSize is the maximum allowed file upload size (50 MB).
	maxUploadSize = 50 << 20
)

// errNoStorage is reported when an upload arrives without S3 configured.
var errNoStorage = errors.New("object storage is not configured")

// uploadTarget names the record and collection an upload attaches to.
type uploadTarget struct {
	owner      models.MediaOwner
	modelID    uuid.UUID
	collection string
	uploader   uuid.UUID
}

// SphereMediaUpload attaches a panorama to a sphere. The collection form
// value selects sphere_file (default) or sphere_image; an upload replaces
// the previous file of that collection.
func (a *Admin) SphereMediaUpload(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	sp, t := a.findSphere(w, r)
	if sp == nil {
		return
	}

	if status, err := a.parseUpload(w, r); err != nil {
		writeJSONError(w, status, uploadMessage(err))
		return
	}

	collection := models.CollectionSphereFile
	if r.FormValue("collection") == models.CollectionSphereImage {
		collection = models.CollectionSphereImage
	}

	created, status, err := a.upload(r, uploadTarget{
		owner:      models.OwnerSphere,
		modelID:    sp.ID,
		collection: collection,
		uploader:   sess.UserID,
	})
	if err != nil {
		writeJSONError(w, status, uploadMessage(err))
		return
	}

	a.invalidateTourCache(r.Context(), t.ID, "sphere_media", &sess.UserID)
	writeJSON(w, http.StatusCreated, mediaResponse(created))
}

// ArticleCoverUpload sets an article's cover image, replacing any
// previous cover.
func (a *Admin) ArticleCoverUpload(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	art := a.findArticle(w, r)
	if art == nil {
		return
	}

	if status, err := a.parseUpload(w, r); err != nil {
		writeJSONError(w, status, uploadMessage(err))
		return
	}

	created, status, err := a.upload(r, uploadTarget{
		owner:      models.OwnerArticle,
		modelID:    art.ID,
		collection: models.CollectionCover,
		uploader:   sess.UserID,
	})
	if err != nil {
		writeJSONError(w, status, uploadMessage(err))
		return
	}

	a.invalidateArticleCache(r.Context(), art.ID, art.Slug, "cover", &sess.UserID)
	writeJSON(w, http.StatusCreated, mediaResponse(created))
}

// MediaDelete removes one media item and its stored objects.
func (a *Admin) MediaDelete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	m, err := a.Media.FindByID(id)
	if err != nil {
		slog.Error("media lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if m == nil || !a.ownsMedia(m, sess.UserID) {
		http.NotFound(w, r)
		return
	}

	deleted, err := a.Media.Delete(id)
	if err != nil {
		slog.Error("media db delete failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if deleted != nil {
		a.removeFiles(r.Context(), []models.Media{*deleted})
	}

	switch m.ModelType {
	case models.OwnerSphere:
		if sp, err := a.Spheres.FindForUser(m.ModelID, sess.UserID); err == nil && sp != nil {
			a.invalidateTourCache(r.Context(), sp.VirtualTourID, "sphere_media_delete", &sess.UserID)
		}
	case models.OwnerArticle:
		if art, err := a.Articles.FindByID(m.ModelID); err == nil && art != nil {
			a.invalidateArticleCache(r.Context(), art.ID, art.Slug, "cover_delete", &sess.UserID)
		}
	}

	// Empty body for the HTMX swap that removes the media card.
	w.WriteHeader(http.StatusOK)
}

// ownsMedia reports whether userID may manage m. Sphere media follow the
// tour's owner; article covers are shared by all editors.
func (a *Admin) ownsMedia(m *models.Media, userID uuid.UUID) bool {
	if m.ModelType != models.OwnerSphere {
		return true
	}
	sp, err := a.Spheres.FindForUser(m.ModelID, userID)
	if err != nil {
		slog.Error("find media sphere failed", "error", err)
		return false
	}
	return sp != nil
}

// parseUpload bounds the request body and parses the multipart form.
func (a *Admin) parseUpload(w http.ResponseWriter, r *http.Request) (int, error) {
	if a.Storage == nil {
		return http.StatusServiceUnavailable, errNoStorage
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return http.StatusRequestEntityTooLarge, errTooLarge
	}
	return 0, nil
}

// upload reads the multipart "file" field, stores it with a JPEG preview
// and records it under target. On failure it returns the HTTP status to
// report.
func (a *Admin) upload(r *http.Request, target uploadTarget) (*models.Media, int, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, http.StatusBadRequest, errNoFile
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		return nil, http.StatusRequestEntityTooLarge, errTooLarge
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	contentType, err := imaging.Sniff(data)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	ctx := r.Context()
	now := time.Now()
	fileID := uuid.New()
	key := storage.ObjectKey(target.collection, fileID, imaging.Extension(contentType), now)

	if err := a.Storage.Upload(ctx, key, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		slog.Error("s3 upload failed", "error", err, "key", key)
		return nil, http.StatusInternalServerError, errUploadFailed
	}

	var thumbKey *string
	if thumb, err := imaging.Thumbnail(data, imaging.ThumbWidth); err != nil {
		slog.Warn("thumbnail generation failed", "error", err, "key", key)
	} else {
		tk := storage.ThumbKey(target.collection, fileID, now)
		if err := a.Storage.Upload(ctx, tk, thumb.ContentType, bytes.NewReader(thumb.Data), int64(len(thumb.Data))); err != nil {
			slog.Warn("thumbnail upload failed", "error", err, "key", tk)
		} else {
			thumbKey = &tk
		}
	}

	previous, err := a.Media.ListFor(target.owner, target.modelID, target.collection)
	if err != nil {
		slog.Warn("list previous media failed", "error", err)
	}

	uploader := target.uploader
	created, err := a.Media.Create(&models.Media{
		ModelType:    target.owner,
		ModelID:      target.modelID,
		Collection:   target.collection,
		Filename:     fileID.String() + imaging.Extension(contentType),
		OriginalName: header.Filename,
		ContentType:  contentType,
		SizeBytes:    int64(len(data)),
		Bucket:       a.Storage.Bucket(),
		S3Key:        key,
		ThumbS3Key:   thumbKey,
		UploaderID:   &uploader,
	})
	if err != nil {
		slog.Error("media db insert failed", "error", err, "key", key)
		a.removeFiles(ctx, []models.Media{{S3Key: key, ThumbS3Key: thumbKey}})
		return nil, http.StatusInternalServerError, errUploadFailed
	}

	a.replacePrevious(ctx, previous)
	a.resolveURL(created)
	return created, http.StatusCreated, nil
}

// replacePrevious drops the files an upload superseded.
func (a *Admin) replacePrevious(ctx context.Context, previous []models.Media) {
	for _, m := range previous {
		deleted, err := a.Media.Delete(m.ID)
		if err != nil {
			slog.Warn("delete replaced media failed", "media", m.ID, "error", err)
			continue
		}
		if deleted != nil {
			a.removeFiles(ctx, []models.Media{*deleted})
		}
	}
}

var (
	errTooLarge     = errors.New("file too large")
	errNoFile       = errors.New("no file provided")
	errUploadFailed = errors.New("upload failed")
)

func uploadMessage(err error) string {
	switch {
	case errors.Is(err, errNoStorage):
		return "Object storage is not configured."
	case errors.Is(err, errTooLarge):
		return "File too large. Maximum size is 50 MB."
	case errors.Is(err, errNoFile):
		return "No file provided."
	case errors.Is(err, imaging.ErrUnsupportedType):
		return "Only JPEG, PNG and WebP images are allowed."
	default:
		return "Failed to upload file."
	}
}

func mediaResponse(m *models.Media) map[string]any {
	return map[string]any{
		"id":         m.ID,
		"url":        m.URL,
		"collection": m.Collection,
		"filename":   m.OriginalName,
		"size":       m.HumanSize(),
		"type":       m.ContentType,
	}
}
