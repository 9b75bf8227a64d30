package starcat

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mcs-education/starcat/model"
)

const tracerName = "github.com/mcs-education/starcat"

// Snapshot is one published dataset. Snapshots are never modified after
// publication.
type Snapshot struct {
	ID          uuid.UUID
	Generation  uint64
	LoadedAt    time.Time
	Source      string
	Dataset     *model.Dataset
	Warnings    Issues
	Fingerprint string
}

// Catalog holds the currently published snapshot. Readers call Current and
// never block; Load builds a complete snapshot before swapping it in, and a
// failed load leaves the previous snapshot in place.
type Catalog struct {
	cur    atomic.Pointer[Snapshot]
	mu     sync.Mutex // serializes loads so generations stay ordered
	gen    uint64
	opts   []LoadOpt
	log    *slog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithLogger sets the logger used for publish and reject events.
func WithLogger(l *slog.Logger) CatalogOption {
	return func(c *Catalog) {
		if l != nil {
			c.log = l
		}
	}
}

// WithLoadOpt sets the options passed to every Load.
func WithLoadOpt(o LoadOpt) CatalogOption {
	return func(c *Catalog) { c.opts = []LoadOpt{o} }
}

// WithClock replaces time.Now for LoadedAt.
func WithClock(now func() time.Time) CatalogOption {
	return func(c *Catalog) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCatalog returns an empty catalog.
func NewCatalog(opts ...CatalogOption) *Catalog {
	c := &Catalog{
		log:    slog.Default(),
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.With("component", "catalog")
	return c
}

// Current returns the published snapshot, or nil before the first
// successful load.
func (c *Catalog) Current() *Snapshot { return c.cur.Load() }

// Load loads src and publishes the result. On error nothing is published.
func (c *Catalog) Load(ctx context.Context, src Source) (*Snapshot, error) {
	ctx, span := c.tracer.Start(ctx, "starcat.Catalog.Load",
		trace.WithAttributes(attribute.String("starcat.source", src.Name())))
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := Load(ctx, src, c.opts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load rejected")
		attrs := []any{"source", src.Name(), "error", err}
		if prev := c.cur.Load(); prev != nil {
			attrs = append(attrs, "kept_generation", prev.Generation)
		}
		c.log.WarnContext(ctx, "dataset rejected", attrs...)
		return nil, err
	}
	fp, err := Fingerprint(res.Dataset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fingerprint failed")
		return nil, err
	}

	c.gen++
	snap := &Snapshot{
		ID:          uuid.New(),
		Generation:  c.gen,
		LoadedAt:    c.now(),
		Source:      src.Name(),
		Dataset:     res.Dataset,
		Warnings:    res.Warnings,
		Fingerprint: fp,
	}
	c.cur.Store(snap)

	span.SetAttributes(
		attribute.Int64("starcat.generation", int64(snap.Generation)),
		attribute.Int("starcat.systems", len(snap.Dataset.Systems)),
		attribute.Int("starcat.warnings", len(snap.Warnings)),
	)
	c.log.InfoContext(ctx, "dataset published",
		"source", snap.Source,
		"generation", snap.Generation,
		"id", snap.ID.String(),
		"systems", len(snap.Dataset.Systems),
		"bodies", snap.Dataset.BodyCount(),
		"warnings", len(snap.Warnings),
		"fingerprint", snap.Fingerprint,
	)
	return snap, nil
}

// Fingerprint is the hex sha256 of the dataset's canonical JSON form. Two
// loads of the same document produce the same fingerprint.
func Fingerprint(ds *model.Dataset) (string, error) {
	b, err := gojson.Marshal(ds)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
