package apiclient

import (
	"bytes"
	"io"
	"mime/multipart"
)

// Form is a multipart/form-data body; parts are written in insertion order
type Form struct {
	parts []formPart
}

type formPart struct {
	field    string
	value    string
	filename string
	content  io.Reader
}

// NewForm creates an empty form
func NewForm() *Form {
	return &Form{}
}

// Field appends a text field
func (f *Form) Field(name, value string) *Form {
	f.parts = append(f.parts, formPart{field: name, value: value})
	return f
}

// File appends a file part
func (f *Form) File(field, filename string, content io.Reader) *Form {
	f.parts = append(f.parts, formPart{field: field, filename: filename, content: content})
	return f
}

func (f *Form) encode() (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, p := range f.parts {
		if p.content == nil {
			if err := w.WriteField(p.field, p.value); err != nil {
				return nil, "", err
			}
			continue
		}
		part, err := w.CreateFormFile(p.field, p.filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, p.content); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
