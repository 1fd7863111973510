package upload

import (
	"booknet/internal/domain"
	"booknet/internal/metrics"
	"booknet/internal/response"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	filesKey         = "uploadedFiles"
	multipartMemory  = 8 << 20 // Parts above this spill to temp files
	formFieldsBudget = 1 << 20 // Room for non-file form fields
)

// Middleware validates every file of a multipart request against cat, then stores
// them. Nothing is written unless all files pass. Requests that are not multipart
// pass through untouched.
func Middleware(cat Category, store Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.ContentType() != "multipart/form-data" {
			c.Next()
			return
		}
		maxBody := int64(cat.MaxFiles+1)*MaxFileSize + formFieldsBudget // Anything larger is certainly over a limit
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBody)
		if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				reject(c, cat, &domain.UploadRejectedError{Message: MsgFileTooLarge, Code: CodeFileSize})
				return
			}
			reject(c, cat, &domain.UploadRejectedError{Message: "Malformed multipart form."})
			return
		}
		defer func() { _ = c.Request.MultipartForm.RemoveAll() }()

		headers, rejection := validate(cat, c.Request.MultipartForm)
		if rejection != nil {
			reject(c, cat, rejection)
			return
		}
		stored, err := save(c.Request.Context(), cat, store, headers)
		if err != nil {
			metrics.UploadsTotal.WithLabelValues(cat.Folder, "error").Inc()
			response.Error(c, err)
			return
		}
		if len(stored) > 0 {
			metrics.UploadsTotal.WithLabelValues(cat.Folder, "stored").Inc()
		}
		c.Set(filesKey, stored)
		c.Next()
	}
}

func reject(c *gin.Context, cat Category, err *domain.UploadRejectedError) {
	outcome := err.Code
	if outcome == "" {
		outcome = "rejected"
	}
	metrics.UploadsTotal.WithLabelValues(cat.Folder, outcome).Inc()
	logrus.WithFields(logrus.Fields{"category": cat.Folder, "code": err.Code}).Info("upload rejected: " + err.Message)
	response.Error(c, err)
}

// validate checks field names, count, sizes and types before anything is stored
func validate(cat Category, form *multipart.Form) ([]*multipart.FileHeader, *domain.UploadRejectedError) {
	for field := range form.File {
		if field != cat.Field {
			return nil, &domain.UploadRejectedError{Message: MsgUnexpectedFile, Code: CodeUnexpectedFile}
		}
	}
	headers := form.File[cat.Field]
	if len(headers) > cat.MaxFiles {
		return nil, &domain.UploadRejectedError{Message: MsgTooManyFiles, Code: CodeFileCount}
	}
	for _, h := range headers {
		if h.Size > MaxFileSize {
			return nil, &domain.UploadRejectedError{Message: MsgFileTooLarge, Code: CodeFileSize}
		}
		if !cat.Allows(h.Header.Get("Content-Type"), h.Filename) {
			return nil, &domain.UploadRejectedError{Message: cat.TypeMessage()}
		}
	}
	return headers, nil
}

func save(ctx context.Context, cat Category, store Storage, headers []*multipart.FileHeader) ([]StoredFile, error) {
	stored := make([]StoredFile, 0, len(headers))
	for _, h := range headers {
		file, err := saveOne(ctx, cat, store, h)
		if err != nil {
			Remove(ctx, store, stored) // All or nothing
			return nil, err
		}
		stored = append(stored, file)
	}
	return stored, nil
}

func saveOne(ctx context.Context, cat Category, store Storage, h *multipart.FileHeader) (StoredFile, error) {
	src, err := h.Open()
	if err != nil {
		return StoredFile{}, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := NewFilename(cat.Field, h.Filename, time.Now())
	contentType := h.Header.Get("Content-Type")
	url, err := store.Save(ctx, cat.Folder, name, src, h.Size, contentType)
	if err != nil {
		return StoredFile{}, err
	}
	return StoredFile{
		Field:        cat.Field,
		OriginalName: h.Filename,
		Filename:     name,
		Folder:       cat.Folder,
		MimeType:     contentType,
		Size:         h.Size,
		URL:          url,
	}, nil
}

// Files returns the files stored for the current request
func Files(c *gin.Context) []StoredFile {
	if v, ok := c.Get(filesKey); ok {
		if files, ok := v.([]StoredFile); ok {
			return files
		}
	}
	return nil
}

// Remove deletes stored files, logging failures
func Remove(ctx context.Context, store Storage, files []StoredFile) {
	for _, f := range files {
		if _, err := store.Delete(ctx, f.Folder, f.Filename); err != nil {
			logrus.WithError(err).WithField("file", f.Filename).Warn("failed to remove uploaded file")
		}
	}
}

// DeleteByURL removes the file behind a URL produced by a Storage
func DeleteByURL(ctx context.Context, store Storage, url string) (bool, error) {
	folder, filename, ok := SplitURL(url)
	if !ok {
		return false, nil
	}
	return store.Delete(ctx, folder, filename)
}

// UploadedHandler responds with the stored files, or 400 when none were sent
func UploadedHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		files := Files(c)
		if len(files) == 0 {
			response.Fail(c, http.StatusBadRequest, MsgNoFiles)
			return
		}
		urls := make([]string, len(files))
		for i, f := range files {
			urls[i] = f.URL
		}
		c.JSON(http.StatusCreated, gin.H{
			"message": "Files uploaded successfully",
			"files":   files,
			"urls":    urls,
		})
	}
}
