// SPDX-License-Identifier: Apache-2.0

package file

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/xid"
	"github.com/xataio/regexop/pkg/checkpoint"
	loglib "github.com/xataio/regexop/pkg/log"
)

// Store keeps one file per checkpoint key under a directory. Files are
// replaced atomically on save.
type Store struct {
	dir    string
	logger loglib.Logger
}

type Config struct {
	Dir string
}

type Option func(*Store)

const (
	fileExtension = ".ckpt"
	formatVersion = 1
	// magic, version, id, saved at, key length
	headerLen = 4 + 1 + 12 + 8 + 4
)

var (
	fileMagic = []byte("RXCP")

	ErrCorruptCheckpoint = errors.New("corrupt checkpoint file")
)

func New(cfg *Config, opts ...Option) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("checkpoint directory cannot be empty")
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating checkpoint directory: %w", err)
	}

	s := &Store{
		dir:    cfg.Dir,
		logger: loglib.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func WithLogger(l loglib.Logger) Option {
	return func(s *Store) {
		s.logger = loglib.NewLogger(l).WithFields(loglib.Fields{
			loglib.ModuleField: "checkpoint_file_store",
		})
	}
}

func (s *Store) Save(_ context.Context, c *checkpoint.Checkpoint) error {
	if err := c.Validate(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*"+fileExtension)
	if err != nil {
		return fmt.Errorf("creating temporary checkpoint file: %w", err)
	}
	// noop once the file has been renamed
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(encode(c)); err != nil {
		tmp.Close()
		return fmt.Errorf("writing checkpoint file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing checkpoint file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing checkpoint file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path(c.Key)); err != nil {
		return fmt.Errorf("replacing checkpoint file: %w", err)
	}

	s.logger.Debug("checkpoint saved", loglib.Fields{"key": c.Key, "checkpoint_id": c.ID.String()})
	return nil
}

func (s *Store) Load(_ context.Context, key string) (*checkpoint.Checkpoint, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", checkpoint.ErrNotFound, key)
		}
		return nil, fmt.Errorf("reading checkpoint file: %w", err)
	}

	c, err := decode(data)
	if err != nil {
		return nil, err
	}
	if c.Key != key {
		return nil, fmt.Errorf("%w: file holds key %q, expected %q", ErrCorruptCheckpoint, c.Key, key)
	}
	return c, nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+fileExtension)
}

func encode(c *checkpoint.Checkpoint) []byte {
	buf := make([]byte, 0, headerLen+len(c.Key)+len(c.State))
	buf = append(buf, fileMagic...)
	buf = append(buf, formatVersion)
	buf = append(buf, c.ID.Bytes()...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(c.SavedAt.UnixNano()))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(c.Key)))
	buf = append(buf, c.Key...)
	return append(buf, c.State...)
}

func decode(data []byte) (*checkpoint.Checkpoint, error) {
	if len(data) < headerLen || !bytes.Equal(data[:4], fileMagic) {
		return nil, fmt.Errorf("%w: missing header", ErrCorruptCheckpoint)
	}
	if data[4] != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptCheckpoint, data[4])
	}

	id, err := xid.FromBytes(data[5:17])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptCheckpoint, err)
	}
	savedAt := int64(binary.BigEndian.Uint64(data[17:25]))
	keyLen := int(binary.BigEndian.Uint32(data[25:29]))
	if keyLen > len(data)-headerLen {
		return nil, fmt.Errorf("%w: key length %d exceeds file size", ErrCorruptCheckpoint, keyLen)
	}

	return &checkpoint.Checkpoint{
		ID:      id,
		Key:     string(data[headerLen : headerLen+keyLen]),
		State:   data[headerLen+keyLen:],
		SavedAt: time.Unix(0, savedAt).UTC(),
	}, nil
}
