package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
)

const multipartMemory = 8 << 20

type uploadFile struct {
	multipart.File
	size int64
}

// readUpload parses a multipart body bounded by maxBytes and returns the
// "file" part. It writes the error response itself when it fails.
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (*uploadFile, bool) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if errBodyTooLarge(err) {
			respondError(w, fmt.Sprintf("file exceeds %d MB", maxBytes>>20), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		respondError(w, "Invalid multipart form", http.StatusBadRequest)
		return nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			respondError(w, "file is required", http.StatusBadRequest)
			return nil, false
		}
		respondError(w, "Invalid file", http.StatusBadRequest)
		return nil, false
	}

	return &uploadFile{File: file, size: header.Size}, true
}
