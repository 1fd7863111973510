// Package upload validates multipart file uploads per category and stores them
// on disk or in S3 compatible object storage.
package upload

import (
	"fmt"
	"math/rand/v2"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// MaxFileSize is the per-file limit of every category
const MaxFileSize = 10 << 20

// Limit codes reported with rejections
const (
	CodeFileSize       = "LIMIT_FILE_SIZE"
	CodeFileCount      = "LIMIT_FILE_COUNT"
	CodeUnexpectedFile = "LIMIT_UNEXPECTED_FILE"
)

// Rejection messages
const (
	MsgFileTooLarge   = "File too large. Maximum size is 10MB."
	MsgTooManyFiles   = "Too many files uploaded."
	MsgUnexpectedFile = "Unexpected field name for file upload."
	MsgNoFiles        = "No files uploaded."
)

var (
	imageMimes = []string{"image/jpeg", "image/png", "image/gif", "image/webp", "image/avif"}
	imageExts  = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".avif"}
	docMimes   = []string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
	docExts = []string{".pdf", ".doc", ".docx"}
)

// Category is an upload destination with its form field, count limit and allowed types
type Category struct {
	Folder   string   // Storage folder and URL segment
	Field    string   // Multipart field name
	MaxFiles int      // Files accepted per request
	Mimes    []string // Allowed declared content types
	Exts     []string // Allowed lower-case extensions
}

// Upload categories
var (
	ServiceOrders = Category{
		Folder:   "service-orders",
		Field:    "serviceFiles",
		MaxFiles: 5,
		Mimes:    slices.Concat(imageMimes, docMimes),
		Exts:     slices.Concat(imageExts, docExts),
	}
	Categories = Category{Folder: "categories", Field: "categoryImage", MaxFiles: 1, Mimes: imageMimes, Exts: imageExts}
	Products   = Category{Folder: "products", Field: "productImages", MaxFiles: 10, Mimes: imageMimes, Exts: imageExts}
	Profiles   = Category{Folder: "profiles", Field: "profilePicture", MaxFiles: 1, Mimes: imageMimes, Exts: imageExts}
)

// Allows reports whether both the declared content type and the extension of filename are permitted
func (c Category) Allows(contentType, filename string) bool {
	mime := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext := strings.ToLower(filepath.Ext(filename))
	return slices.Contains(c.Mimes, mime) && slices.Contains(c.Exts, ext)
}

// TypeMessage is the rejection message for a disallowed file type
func (c Category) TypeMessage() string {
	return fmt.Sprintf("File type not allowed. Only %s are permitted.", strings.Join(c.Exts, ", "))
}

// NewFilename returns <field>-<unixMillis>-<random><ext> for an uploaded file
func NewFilename(field, original string, now time.Time) string {
	return fmt.Sprintf("%s-%d-%d%s", field, now.UnixMilli(), rand.IntN(1_000_000_001), strings.ToLower(filepath.Ext(original)))
}

// FileURL is the public URL of a disk stored file
func FileURL(folder, filename string) string {
	return "/uploads/" + folder + "/" + filename
}

// SplitURL extracts folder and filename from a URL produced by a Storage
func SplitURL(url string) (folder, filename string, ok bool) {
	dir, file := path.Split(strings.TrimRight(url, "/"))
	folder = path.Base(strings.TrimRight(dir, "/"))
	if file == "" || folder == "" || folder == "." || folder == "/" {
		return "", "", false
	}
	return folder, file, true
}

// StoredFile describes one accepted and stored upload
type StoredFile struct {
	Field        string `json:"field"`
	OriginalName string `json:"originalName"`
	Filename     string `json:"filename"`
	Folder       string `json:"folder"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
	URL          string `json:"url"`
}
