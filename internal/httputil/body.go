package httputil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// Body encodes a request payload.
type Body interface {
	// Encode returns the payload and its Content-Type.
	Encode() (io.Reader, string, error)
}

type jsonBody struct {
	value interface{}
}

// JSONBody encodes v as application/json.
func JSONBody(v interface{}) Body {
	return jsonBody{value: v}
}

func (b jsonBody) Encode() (io.Reader, string, error) {
	data, err := json.Marshal(b.value)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), "application/json", nil
}

// FilePart is one file in a multipart form.
type FilePart struct {
	FieldName   string
	FileName    string
	ContentType string
	Content     []byte
}

// Field is one plain multipart field. Order is preserved on the wire.
type Field struct {
	Name  string
	Value string
}

// MultipartForm is a multipart/form-data payload.
type MultipartForm struct {
	Fields []Field
	Files  []FilePart
}

// AddField appends a plain field.
func (f *MultipartForm) AddField(name, value string) {
	f.Fields = append(f.Fields, Field{Name: name, Value: value})
}

// AddFile appends a file part.
func (f *MultipartForm) AddFile(part FilePart) {
	f.Files = append(f.Files, part)
}

type multipartBody struct {
	form *MultipartForm
}

// MultipartBody encodes form as multipart/form-data with its own boundary.
func MultipartBody(form *MultipartForm) Body {
	return multipartBody{form: form}
}

func (b multipartBody) Encode() (io.Reader, string, error) {
	if b.form == nil {
		return nil, "", fmt.Errorf("multipart form is nil")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, field := range b.form.Fields {
		if err := w.WriteField(field.Name, field.Value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", field.Name, err)
		}
	}
	for _, file := range b.form.Files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(file.FieldName), escapeQuotes(file.FileName)))
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", file.FieldName, err)
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, "", fmt.Errorf("write part %s: %w", file.FieldName, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
