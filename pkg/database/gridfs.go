package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"video2mp3_service/pkg/logger"

	"go.uber.org/zap"
)

// The converter's retry policy classifies failures by these exact phrases.
// Do not reword without updating the classification regression tests.
var (
	// ErrFileNotFound a well-formed id with no stored object behind it
	ErrFileNotFound = errors.New("file not found")
	// ErrInvalidFileID an id that is not a 24-character lowercase-hex string
	ErrInvalidFileID = errors.New("Invalid file ID")
)

// fileIDPattern GridFS ids are ObjectID hex, 24 lowercase hex characters
var fileIDPattern = regexp.MustCompile(`^[a-f0-9]{24}$`)

// GridFSStore content-addressed binary storage over MongoDB GridFS buckets
type GridFSStore struct {
	db *mongo.Database

	mu      sync.Mutex
	buckets map[string]*gridfs.Bucket
}

// NewGridFSStore create a store on the given database
func NewGridFSStore(db *mongo.Database) *GridFSStore {
	return &GridFSStore{
		db:      db,
		buckets: make(map[string]*gridfs.Bucket),
	}
}

// bucket lazily create the named GridFS bucket handle
func (s *GridFSStore) bucket(name string) (*gridfs.Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.buckets[name]; ok {
		return b, nil
	}
	b, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(name))
	if err != nil {
		return nil, fmt.Errorf("initialize GridFS bucket [%s]: %w", name, err)
	}
	s.buckets[name] = b
	return b, nil
}

// parseFileID reject any id that is not the store's native 24-hex key shape
func parseFileID(id string) (primitive.ObjectID, error) {
	if !fileIDPattern.MatchString(id) {
		return primitive.NilObjectID, fmt.Errorf("%w format: %s", ErrInvalidFileID, id)
	}
	return primitive.ObjectIDFromHex(id)
}

// Put store content under a fresh id, never overwrites an existing object
func (s *GridFSStore) Put(ctx context.Context, bucketName, filename string, content io.Reader) (string, error) {
	b, err := s.bucket(bucketName)
	if err != nil {
		return "", err
	}
	applyDeadline(ctx, b)

	fileID, err := b.UploadFromStream(filename, content)
	if err != nil {
		return "", fmt.Errorf("upload to GridFS bucket [%s]: %w", bucketName, err)
	}
	return fileID.Hex(), nil
}

// Get open a download stream for the stored object.
// A malformed id fails with ErrInvalidFileID and an absent one with
// ErrFileNotFound so callers can tell the two permanent conditions apart.
func (s *GridFSStore) Get(ctx context.Context, bucketName, id string) (io.ReadCloser, string, int64, error) {
	oid, err := parseFileID(id)
	if err != nil {
		return nil, "", 0, err
	}

	b, err := s.bucket(bucketName)
	if err != nil {
		return nil, "", 0, err
	}
	applyDeadline(ctx, b)

	if !s.existsOID(ctx, b, oid) {
		return nil, "", 0, fmt.Errorf("%w: %s", ErrFileNotFound, id)
	}

	stream, err := b.OpenDownloadStream(oid)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, "", 0, fmt.Errorf("%w: %s", ErrFileNotFound, id)
		}
		return nil, "", 0, fmt.Errorf("open GridFS download stream: %w", err)
	}

	file := stream.GetFile()
	return stream, file.Name, file.Length, nil
}

// Exists report whether the id refers to a stored object.
// A malformed id resolves to false, this is a guard and must not raise.
func (s *GridFSStore) Exists(ctx context.Context, bucketName, id string) bool {
	oid, err := parseFileID(id)
	if err != nil {
		return false
	}
	b, err := s.bucket(bucketName)
	if err != nil {
		logger.Log.Warn("GridFS exists check failed", zap.Error(err))
		return false
	}
	return s.existsOID(ctx, b, oid)
}

func (s *GridFSStore) existsOID(ctx context.Context, b *gridfs.Bucket, oid primitive.ObjectID) bool {
	cursor, err := b.Find(bson.M{"_id": oid}, options.GridFSFind().SetLimit(1))
	if err != nil {
		logger.Log.Warn("GridFS find failed", zap.Error(err))
		return false
	}
	defer cursor.Close(ctx)
	return cursor.Next(ctx)
}

// Delete remove the stored object, deleting an absent id is a no-op
func (s *GridFSStore) Delete(ctx context.Context, bucketName, id string) error {
	oid, err := parseFileID(id)
	if err != nil {
		return err
	}
	b, err := s.bucket(bucketName)
	if err != nil {
		return err
	}
	applyDeadline(ctx, b)

	if err := b.Delete(oid); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil
		}
		return fmt.Errorf("delete from GridFS bucket [%s]: %w", bucketName, err)
	}
	return nil
}

// applyDeadline carry a context deadline onto the bucket's blocking I/O
func applyDeadline(ctx context.Context, b *gridfs.Bucket) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = b.SetReadDeadline(deadline)
		_ = b.SetWriteDeadline(deadline)
	}
}
