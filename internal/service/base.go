package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"manualexec/internal/docstore"
	"manualexec/internal/metrics"
	"manualexec/internal/models"
)

// Base carries what every pipeline component shares.
type Base struct {
	Store  docstore.Store
	Clock  *Clock
	Logger *zap.Logger
}

func (b *Base) log() *zap.Logger {
	if b == nil || b.Logger == nil {
		return zap.NewNop()
	}
	return b.Logger
}

// load reads the latest document of doc's type. found is false for a missing
// document; any other read or decode failure is an IO_ERROR.
func (b *Base) load(ctx context.Context, doc models.Document) (bool, error) {
	err := docstore.LoadLatest(ctx, b.Store, doc)
	return classifyLoad(doc.DocType(), err)
}

func (b *Base) loadByKey(ctx context.Context, key string, doc models.Document) (bool, error) {
	err := docstore.LoadLatestByKey(ctx, b.Store, key, doc)
	return classifyLoad(doc.DocType(), err)
}

func classifyLoad(docType models.DocType, err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, docstore.ErrNotFound):
		return false, nil
	default:
		return false, newError(CodeIO, fmt.Sprintf("read %s", docType), err)
	}
}

func (b *Base) save(ctx context.Context, doc models.Document, opts docstore.PutOptions) (docstore.SnapshotInfo, error) {
	info, err := docstore.Save(ctx, b.Store, doc, opts)
	metrics.ObserveStoreWrite(doc.DocType(), err)
	if err != nil {
		return docstore.SnapshotInfo{}, newError(CodeIO, fmt.Sprintf("write %s", doc.DocType()), err)
	}
	return info, nil
}

func notFound(docType models.DocType) error {
	return newError(CodeNotFound, fmt.Sprintf("no %s available", docType), nil)
}

// newConfirmToken returns 128 random bits, hex encoded.
func newConfirmToken() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

// tokensEqual compares in constant time. An empty expected token never
// matches.
func tokensEqual(supplied, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(expected)) == 1
}
