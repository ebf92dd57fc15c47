package complaints

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	apierrors "github.com/R3E-Network/complaint_client/internal/errors"
	"github.com/R3E-Network/complaint_client/internal/httputil"
)

// Display messages for failed submissions.
const (
	MsgSubmitForbidden  = "You do not have permission to create complaints."
	MsgSubmitValidation = "Validation failed. Please check your input."
	MsgSubmitFailed     = "Failed to submit complaint. Please try again."
)

const (
	defaultImageName = "image.jpg"
	defaultImageExt  = "jpg"

	// DefaultMaxImageBytes caps attachments read by FileImageSource.
	DefaultMaxImageBytes int64 = 10 << 20
)

// NewComplaint holds the fields of a submission.
type NewComplaint struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	CategoryID  int64    `json:"category_id"`
	Priority    Priority `json:"priority"`
}

// Validate checks the fields the backend requires. It trims n in place and
// fills the default priority.
func (n *NewComplaint) Validate() error {
	n.Title = strings.TrimSpace(n.Title)
	n.Description = strings.TrimSpace(n.Description)
	if n.Title == "" || n.Description == "" {
		return apierrors.Validation("title", "Please fill in all fields.")
	}
	if n.CategoryID <= 0 {
		return apierrors.Validation("category_id", "Please select a category.")
	}
	if n.Priority == "" {
		n.Priority = DefaultPriority
	}
	if !n.Priority.Valid() {
		return apierrors.Validation("priority", fmt.Sprintf("Unknown priority %q.", n.Priority))
	}
	return nil
}

// Submission is a complaint payload in a caller-chosen encoding: either
// JSONSubmission or MultipartSubmission.
type Submission interface {
	fields() NewComplaint
	body(ctx context.Context, images ImageSource, fields NewComplaint) (httputil.Body, error)
}

// JSONSubmission posts the fields as application/json.
type JSONSubmission struct {
	NewComplaint
}

func (s *JSONSubmission) fields() NewComplaint { return s.NewComplaint }

func (s *JSONSubmission) body(_ context.Context, _ ImageSource, fields NewComplaint) (httputil.Body, error) {
	return httputil.JSONBody(fields), nil
}

// MultipartSubmission posts the fields plus an image as multipart/form-data.
type MultipartSubmission struct {
	NewComplaint
	Image ImageAttachment
}

func (s *MultipartSubmission) fields() NewComplaint { return s.NewComplaint }

func (s *MultipartSubmission) body(ctx context.Context, images ImageSource, fields NewComplaint) (httputil.Body, error) {
	content, err := readImage(ctx, images, s.Image.URI)
	if err != nil {
		return nil, err
	}

	form := &httputil.MultipartForm{}
	form.AddField("title", fields.Title)
	form.AddField("description", fields.Description)
	form.AddField("category_id", strconv.FormatInt(fields.CategoryID, 10))
	form.AddField("priority", string(fields.Priority))
	form.AddFile(httputil.FilePart{
		FieldName:   "image",
		FileName:    s.Image.FileName,
		ContentType: s.Image.MIMEType,
		Content:     content,
	})
	return httputil.MultipartBody(form), nil
}

// ImageAttachment references a picked image by URI.
type ImageAttachment struct {
	URI      string
	FileName string
	MIMEType string
}

// NewImageAttachment infers the upload file name and MIME type from uri.
// The name is the last path segment (image.jpg when empty) and the type is
// image/<extension>, with jpg assumed when there is no extension.
func NewImageAttachment(uri string) ImageAttachment {
	name := uri
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		name = defaultImageName
	}

	ext := defaultImageExt
	if i := strings.LastIndex(name, "."); i >= 0 && i < len(name)-1 {
		ext = name[i+1:]
	}

	return ImageAttachment{
		URI:      uri,
		FileName: name,
		MIMEType: "image/" + strings.ToLower(ext),
	}
}

// ImageSource opens picked images by URI.
type ImageSource interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// FileImageSource opens file:// URIs and plain filesystem paths.
type FileImageSource struct {
	// MaxBytes caps the image size, DefaultMaxImageBytes when zero.
	MaxBytes int64
}

func (FileImageSource) Open(_ context.Context, uri string) (io.ReadCloser, error) {
	path := uri
	if strings.HasPrefix(uri, "file://") {
		u, err := url.Parse(uri)
		if err != nil {
			return nil, fmt.Errorf("parse image uri: %w", err)
		}
		path = u.Path
	} else if strings.Contains(uri, "://") {
		return nil, fmt.Errorf("unsupported image uri %q", uri)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return f, nil
}

func (s FileImageSource) limit() int64 {
	if s.MaxBytes > 0 {
		return s.MaxBytes
	}
	return DefaultMaxImageBytes
}

func readImage(ctx context.Context, images ImageSource, uri string) ([]byte, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, fmt.Errorf("image uri is empty")
	}
	rc, err := images.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	limit := DefaultMaxImageBytes
	if fs, ok := images.(FileImageSource); ok {
		limit = fs.limit()
	}
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("image exceeds %d bytes", limit)
	}
	return data, nil
}

// SubmissionError is a failed complaint submission carrying one message
// suitable for direct display.
type SubmissionError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *SubmissionError) Error() string { return e.Message }

func (e *SubmissionError) Unwrap() error { return e.Err }

// DisplayMessage returns Message.
func (e *SubmissionError) DisplayMessage() string { return e.Message }

// normalizeSubmissionError prefers the server's message, then a fixed message
// for 403 and 422. Other backend and transport failures get the generic
// fallback. Local failures such as an unreadable image keep their own text.
func normalizeSubmissionError(err error) *SubmissionError {
	out := &SubmissionError{Err: err, StatusCode: apierrors.StatusCode(err)}

	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) && len(apiErr.Body) > 0 {
		if msg := gjson.GetBytes(apiErr.Body, "message"); msg.Type == gjson.String && strings.TrimSpace(msg.String()) != "" {
			out.Message = strings.TrimSpace(msg.String())
			return out
		}
	}

	switch {
	case out.StatusCode == http.StatusForbidden:
		out.Message = MsgSubmitForbidden
	case out.StatusCode == http.StatusUnprocessableEntity:
		out.Message = MsgSubmitValidation
	case apiErr != nil && apiErr.Kind == apierrors.KindValidation && apiErr.StatusCode == 0:
		out.Message = apiErr.DisplayMessage()
	case apiErr != nil:
		out.Message = MsgSubmitFailed
	case err != nil && err.Error() != "":
		out.Message = err.Error()
	default:
		out.Message = MsgSubmitFailed
	}
	return out
}
