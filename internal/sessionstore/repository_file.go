package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/agencydesk/console/internal/apierrors"
	"github.com/agencydesk/console/internal/db"
	"github.com/agencydesk/console/internal/models"
)

const sessionFileName string = "session.json"

type fileEntry struct {
	Tokens *models.TokenPair `json:"tokens,omitempty"`
	Admin  *models.Admin     `json:"admin,omitempty"`
}

type fileDocument struct {
	Sessions map[string]fileEntry `json:"sessions"`
}

// FileRepository keeps sessions in a single JSON document readable only by the current user.
type FileRepository struct {
	lock      *sync.Mutex
	path      string
	encryptor models.Encryptor
}

func (f *FileRepository) Path() string {
	return f.path
}

func (f *FileRepository) read() (fileDocument, error) {
	doc := fileDocument{Sessions: map[string]fileEntry{}}
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return doc, nil
		}
		return doc, err
	}
	if len(raw) == 0 {
		return doc, nil
	}
	err = json.Unmarshal(raw, &doc)
	if err != nil {
		return doc, fmt.Errorf("cannot parse session file %s: %w", f.path, err)
	}
	if doc.Sessions == nil {
		doc.Sessions = map[string]fileEntry{}
	}
	return doc, nil
}

// write replaces the document through a temporary file so readers never see a partial write
func (f *FileRepository) write(doc fileDocument) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	err = os.MkdirAll(dir, 0o700)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	_, err = tmp.Write(raw)
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Chmod(0o600)
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

func (f *FileRepository) update(change func(doc *fileDocument)) error {
	doc, err := f.read()
	if err != nil {
		return err
	}
	change(&doc)
	return f.write(doc)
}

func (f *FileRepository) GetTokens(ctx context.Context, sessionName string) (models.TokenPair, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	doc, err := f.read()
	if err != nil {
		return models.TokenPair{}, err
	}
	entry, found := doc.Sessions[sessionName]
	if !found || entry.Tokens == nil {
		return models.TokenPair{}, apierrors.ErrTokensNotFound
	}
	if f.encryptor == nil {
		return *entry.Tokens, nil
	}
	tokens, err := entry.Tokens.SetEncryptor(f.encryptor).Decrypt()
	if err != nil {
		return models.TokenPair{}, err
	}
	return tokens.SetEncryptor(nil), nil
}

func (f *FileRepository) SetTokens(ctx context.Context, sessionName string, tokens models.TokenPair) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	encTokens, err := tokens.SetEncryptor(f.encryptor).Encrypt()
	if err != nil {
		return err
	}
	return f.update(func(doc *fileDocument) {
		entry := doc.Sessions[sessionName]
		entry.Tokens = &encTokens
		doc.Sessions[sessionName] = entry
	})
}

func (f *FileRepository) RemoveTokens(ctx context.Context, sessionName string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.update(func(doc *fileDocument) {
		entry, found := doc.Sessions[sessionName]
		if !found {
			return
		}
		entry.Tokens = nil
		f.setOrDelete(doc, sessionName, entry)
	})
}

func (f *FileRepository) GetAdmin(ctx context.Context, sessionName string) (models.Admin, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	doc, err := f.read()
	if err != nil {
		return models.Admin{}, err
	}
	entry, found := doc.Sessions[sessionName]
	if !found || entry.Admin == nil {
		return models.Admin{}, apierrors.ErrAdminNotFound
	}
	return *entry.Admin, nil
}

func (f *FileRepository) SetAdmin(ctx context.Context, sessionName string, admin models.Admin) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.update(func(doc *fileDocument) {
		entry := doc.Sessions[sessionName]
		entry.Admin = &admin
		doc.Sessions[sessionName] = entry
	})
}

func (f *FileRepository) RemoveAdmin(ctx context.Context, sessionName string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.update(func(doc *fileDocument) {
		entry, found := doc.Sessions[sessionName]
		if !found {
			return
		}
		entry.Admin = nil
		f.setOrDelete(doc, sessionName, entry)
	})
}

func (*FileRepository) setOrDelete(doc *fileDocument, sessionName string, entry fileEntry) {
	if entry.Tokens == nil && entry.Admin == nil {
		delete(doc.Sessions, sessionName)
		return
	}
	doc.Sessions[sessionName] = entry
}

type FileRepositoryOption func(*FileRepository) error

func WithFilePath(path string) FileRepositoryOption {
	return func(f *FileRepository) error {
		f.path = path
		return nil
	}
}

func WithFileEncryption(secretKey string) FileRepositoryOption {
	return func(f *FileRepository) error {
		encryptor, err := db.NewGCMEncryptor(secretKey)
		if err != nil {
			return err
		}
		f.encryptor = encryptor
		return nil
	}
}

// DefaultFilePath is the session file location inside the user configuration directory.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "adminconsole", sessionFileName), nil
}

func NewFileRepository(options ...FileRepositoryOption) (*FileRepository, error) {
	f := FileRepository{lock: &sync.Mutex{}}
	for _, opt := range options {
		err := opt(&f)
		if err != nil {
			return &FileRepository{}, err
		}
	}
	if f.path == "" {
		path, err := DefaultFilePath()
		if err != nil {
			return &FileRepository{}, err
		}
		f.path = path
	}
	return &f, nil
}
