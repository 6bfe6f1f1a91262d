// Package disk keeps program documents on the local filesystem:
//
//	{root}/temp/{storedName}          staged uploads
//	{root}/{programID}/{storedName}   attached documents
//
// and exposes them under {publicPrefix}/{programID}/{storedName}.
package disk

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"budget-portal/internal/domain/program"
	"budget-portal/pkg/id"

	"github.com/google/uuid"
)

const (
	stagingDirName = "temp"
	// DefaultPublicPrefix matches the static route that serves the root directory.
	DefaultPublicPrefix = "/uploads/documents"
	DefaultMaxFileSize  = 10 << 20
)

var (
	ErrFileTooLarge   = fmt.Errorf("%w: file exceeds the size limit", program.ErrInvalidInput)
	ErrFileType       = fmt.Errorf("%w: documents only (PDF, DOC, DOCX, JPG, PNG, XLS, XLSX)", program.ErrInvalidInput)
	ErrBadProgramPath = fmt.Errorf("%w: malformed program id", program.ErrInvalidInput)
)

// allowedTypes maps each accepted extension to the content types a client may declare for it.
var allowedTypes = map[string][]string{
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	".jpg":  {"image/jpeg", "image/jpg"},
	".jpeg": {"image/jpeg", "image/jpg"},
	".png":  {"image/png"},
	".xls":  {"application/vnd.ms-excel"},
	".xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
}

type Store struct {
	root         string
	staging      string
	publicPrefix string
	maxFileSize  int64
	now          func() time.Time
}

var _ program.DocumentStore = (*Store)(nil)

// New prepares root and its staging directory.
func New(root string, maxFileSize int64) (*Store, error) {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	staging := filepath.Join(root, stagingDirName)
	if err := os.MkdirAll(staging, 0o750); err != nil {
		return nil, fmt.Errorf("create staging dir %s: %w", staging, err)
	}
	return &Store{
		root:         root,
		staging:      staging,
		publicPrefix: DefaultPublicPrefix,
		maxFileSize:  maxFileSize,
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *Store) Root() string               { return s.root }
func (s *Store) stagedPath(n string) string { return filepath.Join(s.staging, n) }

// CheckType validates the extension and, when the client declared one, the content type.
func CheckType(originalName, contentType string) error {
	ext := strings.ToLower(filepath.Ext(originalName))
	mimes, ok := allowedTypes[ext]
	if !ok {
		return ErrFileType
	}
	ct := strings.TrimSpace(contentType)
	if ct == "" {
		return nil
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ErrFileType
	}
	if mt == "application/octet-stream" {
		return nil
	}
	for _, m := range mimes {
		if mt == m {
			return nil
		}
	}
	return ErrFileType
}

// Stage validates and copies one upload into the staging directory.
// Nothing is written when the type or the declared size is rejected.
func (s *Store) Stage(r io.Reader, originalName, contentType string, size int64) (program.StagedUpload, error) {
	if err := CheckType(originalName, contentType); err != nil {
		return program.StagedUpload{}, err
	}
	if size > s.maxFileSize {
		return program.StagedUpload{}, ErrFileTooLarge
	}

	name := s.storageName(originalName)
	path := s.stagedPath(name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return program.StagedUpload{}, fmt.Errorf("create staged file: %w", err)
	}

	// one byte over the limit is enough to know the declared size lied
	n, err := io.Copy(f, io.LimitReader(r, s.maxFileSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return program.StagedUpload{}, fmt.Errorf("write staged file: %w", err)
	}
	if n > s.maxFileSize {
		_ = os.Remove(path)
		return program.StagedUpload{}, ErrFileTooLarge
	}

	return program.StagedUpload{Filename: name, OriginalName: filepath.Base(originalName), Size: n}, nil
}

func (s *Store) Discard(staged []program.StagedUpload) {
	for _, st := range staged {
		_ = os.Remove(s.stagedPath(st.Filename))
	}
}

func (s *Store) programDir(programID string) (string, error) {
	if !id.IsID32(programID) {
		return "", ErrBadProgramPath
	}
	return filepath.Join(s.root, programID), nil
}

func (s *Store) Attach(programID string, staged []program.StagedUpload) ([]program.Document, error) {
	if len(staged) == 0 {
		return nil, nil
	}
	dir, err := s.programDir(programID)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create program dir: %w", err)
	}

	docs := make([]program.Document, 0, len(staged))
	for _, st := range staged {
		if err := os.Rename(s.stagedPath(st.Filename), filepath.Join(dir, st.Filename)); err != nil {
			_ = s.Restore(programID, docs)
			return nil, fmt.Errorf("move %s into program dir: %w", st.OriginalName, err)
		}
		docs = append(docs, program.Document{
			DocumentID:   id.NewID32(),
			Filename:     st.Filename,
			OriginalName: st.OriginalName,
			Path:         s.publicPrefix + "/" + programID + "/" + st.Filename,
			UploadedAt:   s.now(),
		})
	}
	return docs, nil
}

func (s *Store) Restore(programID string, docs []program.Document) error {
	dir, err := s.programDir(programID)
	if err != nil {
		return err
	}
	var errs []error
	for _, d := range docs {
		err := os.Rename(filepath.Join(dir, d.Filename), s.stagedPath(d.Filename))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Store) documentPath(programID, filename string) (string, error) {
	dir, err := s.programDir(programID)
	if err != nil {
		return "", err
	}
	if filename == "" || filename == "." || filename == ".." || filename != filepath.Base(filename) {
		return "", fmt.Errorf("%w: malformed document filename", program.ErrInvalidInput)
	}
	return filepath.Join(dir, filename), nil
}

func (s *Store) Remove(programID, filename string) error {
	path, err := s.documentPath(programID, filename)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove document %s: %w", filename, err)
	}
	return nil
}

// Locate resolves a stored document to its path on disk. Staged files are
// never reachable through it.
func (s *Store) Locate(programID, filename string) (string, error) {
	path, err := s.documentPath(programID, filename)
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && fi.IsDir()) {
		return "", program.ErrDocumentNotFound
	}
	if err != nil {
		return "", fmt.Errorf("stat document: %w", err)
	}
	return path, nil
}

func (s *Store) Purge(programID string) error {
	dir, err := s.programDir(programID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("purge program dir: %w", err)
	}
	return nil
}

// storageName follows documents-{unixMillis}-{uuid8}{ext}.
func (s *Store) storageName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("documents-%d-%s%s", s.now().UnixMilli(), uuid.New().String()[:8], ext)
}
