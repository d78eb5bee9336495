package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/LuisRivera1699/wedding-presents/internal/auth"
	"github.com/LuisRivera1699/wedding-presents/internal/domain"
	"github.com/LuisRivera1699/wedding-presents/internal/proof"
	"github.com/LuisRivera1699/wedding-presents/internal/store/storetest"
)

const adminEmail = "novios@example.com"

var (
	adminSession = auth.Session{ID: "s1", Identity: adminEmail}
	guestSession = auth.Session{ID: "s2", Identity: "guest@example.com"}
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, body.(domain.ChangeEvent))
	return nil
}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.RoutingKey())
	}
	return out
}

type archiveStub struct {
	proof.Archive
	puts       int
	putErr     error
	resolveErr error
}

func (a *archiveStub) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	a.puts++
	if a.putErr != nil {
		return "", a.putErr
	}
	return a.Archive.Put(ctx, key, r, contentType)
}

func (a *archiveStub) ResolveURL(ctx context.Context, key string) (string, error) {
	if a.resolveErr != nil {
		return "", a.resolveErr
	}
	return a.Archive.ResolveURL(ctx, key)
}

func newArchive(t *testing.T) *archiveStub {
	t.Helper()
	return &archiveStub{Archive: proof.NewFileStore(t.TempDir(), "/uploads", "https://boda.example.com")}
}

func pngUpload(name string) *Upload {
	content := "\x89PNG fake image"
	return &Upload{Filename: name, ContentType: "image/png", Size: int64(len(content)), Content: strings.NewReader(content)}
}

func seedGift(t *testing.T, repo *storetest.Memory, cost string) domain.Gift {
	t.Helper()
	gift := &domain.Gift{Name: "Refrigeradora", Description: "Para la cocina", TotalCost: decimal.RequireFromString(cost)}
	if err := repo.CreateGift(context.Background(), gift); err != nil {
		t.Fatalf("seed gift: %v", err)
	}
	return *gift
}

func strPtr(s string) *string { return &s }

var errStoreDown = errors.New("store unavailable")
