package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/edsrzf/mmap-go"
	"github.com/rs/xid"
)

var (
	// ErrAccountNotFound is returned by Get for a key with no backing file.
	ErrAccountNotFound = errors.New("the account does not exist")

	// ErrAccountSize is returned when an account file does not have the size
	// it was created with. Accounts are never resized, so a mismatch means
	// the file was tampered with or truncated outside this process.
	ErrAccountSize = errors.New("the account file has an unexpected size")
)

// Store hands out fixed-size byte regions backed by memory-mapped files, one
// file per account, named by the account's key. It is the hosting
// environment for queues and market records: everything above it borrows
// regions, nothing above it allocates.
type Store struct {
	dir string
}

// Open prepares a store rooted at dir, creating the directory if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Create allocates a new account of exactly size bytes, zero-filled, and
// maps it. The size is fixed for the account's lifetime.
func (s *Store) Create(size int64) (*Account, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: account size %d", ErrAccountSize, size)
	}
	key := xid.New()
	path := s.path(key)

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create account file: %w", err)
	}
	if err := file.Truncate(size); err != nil {
		file.Close()
		return nil, fmt.Errorf("size account file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return nil, fmt.Errorf("sync account file: %w", err)
	}

	m, err := mmap.Map(file, mmap.RDWR, 0)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("map account file: %w", err)
	}

	logger.Debug("account created", "key", key.String(), "size", size)
	return &Account{key: key, size: size, file: file, mmap: m}, nil
}

// Get maps an existing account.
func (s *Store) Get(key xid.ID) (*Account, error) {
	path := s.path(key)

	file, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, key.String())
		}
		return nil, fmt.Errorf("open account file: %w", err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat account file: %w", err)
	}
	if stat.Size() == 0 {
		file.Close()
		return nil, fmt.Errorf("%w: %s is empty", ErrAccountSize, key.String())
	}

	m, err := mmap.Map(file, mmap.RDWR, 0)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("map account file: %w", err)
	}
	return &Account{key: key, size: stat.Size(), file: file, mmap: m}, nil
}

func (s *Store) path(key xid.ID) string {
	return filepath.Join(s.dir, key.String()+".account")
}

// Account is one fixed-size mapped region. Writes through Data land in the
// page cache immediately; Flush forces them to the file.
type Account struct {
	key  xid.ID
	size int64
	file *os.File
	mmap mmap.MMap
}

// Key returns the account's identifier.
func (a *Account) Key() xid.ID {
	return a.key
}

// Size returns the fixed region size in bytes.
func (a *Account) Size() int64 {
	return a.size
}

// Data returns the mapped region. The slice stays valid until Close.
func (a *Account) Data() []byte {
	return a.mmap
}

// Flush writes the mapped region back to the file.
func (a *Account) Flush() error {
	return a.mmap.Flush()
}

// Close flushes, unmaps and closes the backing file. The slice returned by
// Data must not be used afterwards.
func (a *Account) Close() error {
	_ = a.mmap.Flush()
	if err := a.mmap.Unmap(); err != nil {
		_ = a.file.Close()
		return fmt.Errorf("unmap account: %w", err)
	}
	return a.file.Close()
}
