package webapp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/phillip-england/jobcard/internal/reference"
)

var errNoFile = errors.New("no file uploaded")

var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// uploadedFile reads one file field of an already parsed multipart form.
// A missing field returns errNoFile.
func uploadedFile(r *http.Request, fieldName string, maxBytes int64) ([]byte, string, error) {
	file, header, err := r.FormFile(fieldName)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, "", errNoFile
		}
		return nil, "", errors.New("invalid upload form")
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, "", errors.New("unable to read uploaded file")
	}
	if int64(len(raw)) > maxBytes {
		return nil, "", fmt.Errorf("uploaded file is larger than %d MB", maxBytes>>20)
	}
	fileName := strings.TrimSpace(filepath.Base(header.Filename))
	if len(raw) == 0 {
		if fileName == "" || fileName == "." {
			return nil, "", errNoFile
		}
		return nil, "", errors.New("uploaded file is empty")
	}
	if err := checkSpreadsheetType(fileName, raw); err != nil {
		return nil, "", err
	}
	return raw, fileName, nil
}

// checkSpreadsheetType matches the extension against the sniffed content.
func checkSpreadsheetType(fileName string, raw []byte) error {
	detected := http.DetectContentType(raw)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		if detected != "application/zip" {
			return errors.New("file is not a valid .xlsx workbook")
		}
	case ".xls":
		if !bytes.HasPrefix(raw, oleSignature) {
			return errors.New("file is not a valid .xls workbook")
		}
	case ".csv", ".txt":
		if !strings.HasPrefix(detected, "text/plain") {
			return errors.New("file is not a text CSV file")
		}
	default:
		return errors.New("unsupported file type: upload .xlsx, .xls or .csv")
	}
	return nil
}

func (s *Server) loadUploadedTable(r *http.Request, field string, opts reference.Options) (*reference.Table, string, error) {
	raw, name, err := uploadedFile(r, field, s.opts.MaxUploadBytes)
	if err != nil {
		return nil, "", err
	}
	table, err := reference.Load(bytes.NewReader(raw), name, opts)
	if err != nil {
		return nil, "", err
	}
	return table, name, nil
}

func loadPresetTable(path string, opts reference.Options) (*reference.Table, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open preset: %w", err)
	}
	defer f.Close()
	table, err := reference.Load(f, path, opts)
	if err != nil {
		return nil, "", err
	}
	return table, presetName(path), nil
}

// loadErrorMessage turns loader errors into text for the data page.
func loadErrorMessage(what string, err error) string {
	if errors.Is(err, reference.ErrUnreadable) {
		return what + ": the file could not be read as a spreadsheet"
	}
	return what + ": " + err.Error()
}
