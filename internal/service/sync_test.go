package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Strob0t/TaskForge/internal/domain/contact"
	"github.com/Strob0t/TaskForge/internal/domain/mail"
)

type mockMessageSource struct {
	messages []*mail.Message
	err      error
	gotMax   int
}

func (m *mockMessageSource) ListRemoteMessages(_ context.Context, _ string, max int) ([]*mail.Message, error) {
	m.gotMax = max
	return m.messages, m.err
}

type mockContactSource struct {
	contacts []*contact.Contact
	err      error
}

func (m *mockContactSource) ListRemoteContacts(_ context.Context, _ string, _ int) ([]*contact.Contact, error) {
	return m.contacts, m.err
}

func TestSyncMessagesSkipsDuplicates(t *testing.T) {
	store := newMockStore()
	source := &mockMessageSource{messages: []*mail.Message{
		{OwnerID: "owner-1", RemoteID: "r1", Subject: "one"},
		{OwnerID: "owner-1", RemoteID: "r2", Subject: "two"},
	}}
	svc := NewSyncService(store, source, &mockContactSource{}, 200, 500, testLogger())

	inserted, err := svc.SyncMessages(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted != 2 {
		t.Fatalf("expected 2 inserted, got %d", inserted)
	}
	if source.gotMax != 200 {
		t.Fatalf("configured cap should be passed through, got %d", source.gotMax)
	}

	// A second pass over the same remote set inserts nothing.
	inserted, err = svc.SyncMessages(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted != 0 {
		t.Fatalf("re-sync should skip existing rows, got %d", inserted)
	}
	if len(store.messages) != 2 {
		t.Fatalf("expected 2 mirrored messages, got %d", len(store.messages))
	}
}

func TestSyncMessagesSourceFailure(t *testing.T) {
	source := &mockMessageSource{err: errors.New("gmail unreachable")}
	svc := NewSyncService(newMockStore(), source, &mockContactSource{}, 200, 500, testLogger())

	if _, err := svc.SyncMessages(context.Background(), "owner-1"); err == nil {
		t.Fatal("expected error when the remote listing fails")
	}
}

func TestSyncContactsSkipsDuplicates(t *testing.T) {
	store := newMockStore()
	source := &mockContactSource{contacts: []*contact.Contact{
		{OwnerID: "owner-1", RemoteID: "c1", Email: "a@x.test"},
		{OwnerID: "owner-1", RemoteID: "c1", Email: "a@x.test"}, // duplicate in the same batch
		{OwnerID: "owner-1", RemoteID: "c2", Email: "b@x.test"},
	}}
	svc := NewSyncService(store, &mockMessageSource{}, source, 200, 500, testLogger())

	inserted, err := svc.SyncContacts(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted != 2 {
		t.Fatalf("expected 2 inserted, got %d", inserted)
	}
}
