package http

import (
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readsync/internal/auth"
	"github.com/mrlokans/readsync/internal/errs"
	"github.com/mrlokans/readsync/internal/library"
)

// multipartSlack covers form fields and part headers on top of the file cap.
const multipartSlack = 1 << 20

// LibraryController serves content resolution, uploads and downloads.
type LibraryController struct {
	library  BookLibrary
	activity ActivityLog
}

func NewLibraryController(lib BookLibrary) *LibraryController {
	return &LibraryController{library: lib}
}

// Resolve handles POST /resolve
func (lc *LibraryController) Resolve(c *gin.Context) {
	body, ok := readObject(c)
	if !ok {
		return
	}
	sha, ok := body["sha256"].(string)
	if !ok {
		respondInvalid(c, "no or bad sha256")
		return
	}
	size, ok := int64Value(body["filesize"])
	if !ok {
		respondInvalid(c, "no or bad filesize")
		return
	}

	fileID, found, err := lc.library.ResolveByContent(sha, size)
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		respondOK(c, gin.H{"exists": false})
		return
	}
	respondOK(c, gin.H{"exists": true, "fileId": fileID})
}

// UploadBook handles POST /uploadBook
// Fields: sha256, size, optional fileId (ignored), and one file part. Known
// content is answered without reading the file part.
func (lc *LibraryController) UploadBook(c *gin.Context) {
	if limit := lc.library.MaxFileSize(); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartSlack)
	}

	form, err := c.MultipartForm()
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondFail(c, http.StatusOK, codeTooLarge, "")
			return
		}
		respondInvalid(c, "failed to parse")
		return
	}
	defer form.RemoveAll()

	size, err := strconv.ParseInt(firstValue(form.Value["size"]), 10, 64)
	if err != nil {
		respondInvalid(c, "bad filesize")
		return
	}

	up := library.Upload{SHA256: firstValue(form.Value["sha256"]), Size: size}
	if fh := firstFile(form); fh != nil {
		up.FileName = fh.Filename
		up.Open = func() (io.ReadCloser, error) { return fh.Open() }
	}

	book, err := lc.library.Ingest(c.Request.Context(), up)
	if lc.activity != nil {
		fileID := ""
		if book != nil {
			fileID = book.FileID
		}
		lc.activity.LogUpload(auth.GetUsername(c), fileID, err)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"fileId": book.FileID, "size": book.FileSize, "sha256": book.SHA256})
}

// GetBook handles GET /book/:fileId
// Errors here use HTTP status codes since the body is a file stream.
func (lc *LibraryController) GetBook(c *gin.Context) {
	book, err := lc.library.FetchForDownload(c.Param("fileId"))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) || errors.Is(err, errs.ErrInvalidInput) {
			respondFail(c, http.StatusNotFound, "book record not found", "")
			return
		}
		log.Printf("Internal error (book lookup): %v", err)
		respondFail(c, http.StatusInternalServerError, codeServerError, "")
		return
	}

	rc, err := lc.library.Open(c.Request.Context(), book)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrNotFound):
			respondFail(c, http.StatusNotFound, "file not found", "")
		case errors.Is(err, library.ErrCorrupt):
			log.Printf("[LIBRARY] %v", err)
			respondFail(c, http.StatusInternalServerError, codeSizeMismatch, "")
		default:
			log.Printf("Internal error (book open): %v", err)
			respondFail(c, http.StatusInternalServerError, codeServerError, "")
		}
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, book.FileSize, "application/octet-stream", rc, map[string]string{
		"X-Checksum-SHA256": book.SHA256,
		"X-Filename":        book.DisplayName(),
	})
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// firstFile returns the part named "file", or else the first file part by
// field name.
func firstFile(form *multipart.Form) *multipart.FileHeader {
	if files := form.File["file"]; len(files) > 0 {
		return files[0]
	}
	names := make([]string, 0, len(form.File))
	for name, files := range form.File {
		if len(files) > 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)
	return form.File[names[0]][0]
}
