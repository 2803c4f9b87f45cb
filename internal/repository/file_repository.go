package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"story-server/internal/models"

	"go.uber.org/zap"
)

// fileDocument - формат файла данных.
type fileDocument struct {
	Users         []*models.User         `json:"users"`
	SharedStories []*models.SharedStory `json:"sharedStories"`
}

// FileRepository хранит всех пользователей и снимки в одном JSON-файле.
// Доступ к файлу сериализуется мьютексом, запись атомарна (временный файл + rename).
type FileRepository struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

var (
	_ UserRepository        = (*FileRepository)(nil)
	_ SharedStoryRepository = (*FileRepository)(nil)
)

// NewFileRepository создает репозиторий; директория файла создается при необходимости.
func NewFileRepository(path string, logger *zap.Logger) (*FileRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory for %s: %w", path, err)
	}
	return &FileRepository{path: path, logger: logger.Named("FileRepo")}, nil
}

func (r *FileRepository) load() (*fileDocument, error) {
	doc := &fileDocument{}
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read data file %s: %w", r.path, err)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to decode data file %s: %w", r.path, err)
	}
	return doc, nil
}

func (r *FileRepository) store(doc *fileDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode data file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp data file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp data file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp data file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	return nil
}

// GetUser возвращает копию пользователя.
func (r *FileRepository) GetUser(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	for _, u := range doc.Users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, models.ErrNotFound
}

// SaveUser создает или перезаписывает пользователя.
func (r *FileRepository) SaveUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}
	replaced := false
	for i, u := range doc.Users {
		if u.Email == user.Email {
			doc.Users[i] = user
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Users = append(doc.Users, user)
	}
	if err := r.store(doc); err != nil {
		r.logger.Error("Failed to save user", zap.String("email", user.Email), zap.Error(err))
		return err
	}
	r.logger.Debug("User saved", zap.String("email", user.Email), zap.Bool("created", !replaced))
	return nil
}

// GetAllUsers возвращает всех пользователей, отсортированных по email.
func (r *FileRepository) GetAllUsers(_ context.Context) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	sort.Slice(doc.Users, func(i, j int) bool { return doc.Users[i].Email < doc.Users[j].Email })
	return doc.Users, nil
}

// GetSharedStory возвращает снимок по id.
func (r *FileRepository) GetSharedStory(_ context.Context, id string) (*models.SharedStory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	for _, s := range doc.SharedStories {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, models.ErrNotFound
}

// SaveSharedStory добавляет снимок.
func (r *FileRepository) SaveSharedStory(_ context.Context, shared *models.SharedStory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}
	doc.SharedStories = append(doc.SharedStories, shared)
	if err := r.store(doc); err != nil {
		r.logger.Error("Failed to save shared story", zap.String("id", shared.ID), zap.Error(err))
		return err
	}
	return nil
}
