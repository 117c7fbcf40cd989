package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupported is returned by ReadText for extensions without a reader
var ErrUnsupported = errors.New("unsupported document type")

// TextReader returns the plain text of the document at path
type TextReader func(path string) (string, error)

var (
	readersMu sync.RWMutex
	readers   = map[string]TextReader{
		".pdf":  ReadPDF,
		".docx": ReadDOCX,
	}
)

// RegisterReader installs r for files with extension ext and returns the
// reader it replaced, or nil. Passing a nil r removes the extension.
func RegisterReader(ext string, r TextReader) TextReader {
	ext = strings.ToLower(ext)
	readersMu.Lock()
	defer readersMu.Unlock()
	prev := readers[ext]
	if r == nil {
		delete(readers, ext)
	} else {
		readers[ext] = r
	}
	return prev
}

// ReadText dispatches on the file extension
func ReadText(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	readersMu.RLock()
	r, ok := readers[ext]
	readersMu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported)
	}
	return r(path)
}

// ReadPDF concatenates the plain text of every page
func ReadPDF(path string) (text string, err error) {
	// the pdf package panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to parse PDF %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if f != nil {
		defer f.Close()
	}
	if err != nil {
		return "", fmt.Errorf("failed to open PDF %s: %w", path, err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d of %s: %w", i, path, err)
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// docxBody is the main document part of an Office Open XML package
const docxBody = "word/document.xml"

// ReadDOCX returns the text of the document body. Paragraphs and line breaks
// become newlines, tabs become tab characters.
func ReadDOCX(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX %s: %w", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != docxBody {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open %s in %s: %w", docxBody, path, err)
		}
		defer rc.Close()
		text, err := wordText(rc)
		if err != nil {
			return "", fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return text, nil
	}
	return "", fmt.Errorf("%s has no %s", path, docxBody)
}

func wordText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteString("\t")
			case "br", "cr":
				sb.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
}
