package web

// handlers_common.go holds request parsing shared by the preview handlers.

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/core"
)

// multipartOverhead is headroom for multipart boundaries and form fields on
// top of the file size limit.
const multipartOverhead = 1 << 20

// defaultFileName names raw-body uploads that carry no filename parameter.
const defaultFileName = "upload.csv"

// upload is a file read from a request.
type upload struct {
	name string
	data []byte
}

// readUpload reads the CSV from a multipart "file" field or, for any other
// content type, from the raw request body. At most limit+1 bytes are read so
// the service can report an oversized file.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (upload, error) {
	limit := s.cfg.Preview.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
		if err != nil {
			return upload{}, bodyError(err)
		}
		return upload{name: fileName(r.URL.Query().Get("filename")), data: data}, nil
	}

	if err := r.ParseMultipartForm(limit); err != nil {
		return upload{}, bodyError(err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return upload{}, core.ErrNoFile
	}
	defer file.Close()

	if header.Size > limit {
		return upload{}, fmt.Errorf("%w: %d bytes exceeds limit of %d", core.ErrFileTooLarge, header.Size, limit)
	}
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return upload{}, fmt.Errorf("read upload: %w", err)
	}
	return upload{name: fileName(header.Filename), data: data}, nil
}

// fileName strips any directory from a client-supplied name.
func fileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return defaultFileName
	}
	return name
}

func bodyError(err error) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return fmt.Errorf("%w: request body exceeds %d bytes", core.ErrFileTooLarge, tooBig.Limit)
	}
	return badRequest(err)
}

// schemaParam returns the schema from the route, falling back to the
// "schema" query or form value.
func schemaParam(r *http.Request) string {
	if key := chi.URLParam(r, "schema"); key != "" {
		return key
	}
	return strings.TrimSpace(r.FormValue("schema"))
}

// parseIntParam parses an integer query or form parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.FormValue(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
