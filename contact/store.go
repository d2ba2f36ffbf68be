package contact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrMissingFields is returned when a message lacks one of its fields.
var ErrMissingFields = errors.New("please fill all fields")

// TimestampLayout is the local-time ISO 8601 layout of Submission.Timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Message is what a visitor sends through the contact form.
type Message struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Validate reports ErrMissingFields if any field is empty.
func (m Message) Validate() error {
	if m.Name == "" || m.Email == "" || m.Subject == "" || m.Message == "" {
		return ErrMissingFields
	}
	return nil
}

// Submission is a stored Message.
type Submission struct {
	ID        int    `json:"id"`
	Timestamp string `json:"timestamp"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}

// Store appends submissions to a JSON array file.
type Store struct {
	path   string
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

// StoreOption defines a functional option for Store
type StoreOption func(*Store)

// WithClock sets the time source used for submission timestamps
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a Store backed by the file at path.
func NewStore(logger *zap.Logger, path string, options ...StoreOption) *Store {
	s := &Store{
		path:   path,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Init creates the file holding an empty array if it does not exist yet.
func (s *Store) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", s.path, err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return s.write([]Submission{})
}

// Save validates m and appends it as a new Submission. IDs count up from 1.
func (s *Store) Save(m Message) (Submission, error) {
	if err := m.Validate(); err != nil {
		return Submission{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	submissions, err := s.read()
	if err != nil {
		return Submission{}, err
	}

	sub := Submission{
		ID:        len(submissions) + 1,
		Timestamp: s.now().Format(TimestampLayout),
		Name:      m.Name,
		Email:     m.Email,
		Subject:   m.Subject,
		Message:   m.Message,
	}
	submissions = append(submissions, sub)

	if err := s.write(submissions); err != nil {
		return Submission{}, err
	}

	s.logger.Info("contact submission saved",
		zap.Int("id", sub.ID),
		zap.String("email", sub.Email),
		zap.String("subject", sub.Subject))
	return sub, nil
}

// List returns every stored submission; a missing file is an empty list.
func (s *Store) List() ([]Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *Store) read() ([]Submission, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Submission{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	submissions := []Submission{}
	if len(bytes.TrimSpace(data)) == 0 {
		return submissions, nil
	}
	if err := json.Unmarshal(data, &submissions); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	return submissions, nil
}

// write replaces the file through a rename so readers never see a partial array.
func (s *Store) write(submissions []Submission) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(submissions); err != nil {
		return fmt.Errorf("failed to encode submissions: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".contact-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
