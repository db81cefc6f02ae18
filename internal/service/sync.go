package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Strob0t/TaskForge/internal/domain/contact"
	"github.com/Strob0t/TaskForge/internal/domain/mail"
	"github.com/Strob0t/TaskForge/internal/port/database"
)

// MessageSource lists remote messages for mirroring.
type MessageSource interface {
	ListRemoteMessages(ctx context.Context, ownerID string, max int) ([]*mail.Message, error)
}

// ContactSource lists remote CRM contacts for mirroring.
type ContactSource interface {
	ListRemoteContacts(ctx context.Context, ownerID string, max int) ([]*contact.Contact, error)
}

// SyncService mirrors remote messages and contacts into local storage for
// the local search tools. Re-running a sync is safe: rows are keyed by
// remote ID and duplicates are skipped.
type SyncService struct {
	store       database.Store
	messages    MessageSource
	contacts    ContactSource
	maxMessages int
	maxContacts int
	logger      *slog.Logger
}

// NewSyncService creates a SyncService.
func NewSyncService(store database.Store, messages MessageSource, contacts ContactSource, maxMessages, maxContacts int, logger *slog.Logger) *SyncService {
	return &SyncService{
		store:       store,
		messages:    messages,
		contacts:    contacts,
		maxMessages: maxMessages,
		maxContacts: maxContacts,
		logger:      logger,
	}
}

// SyncMessages mirrors recent remote messages. Per-item failures are
// logged and skipped; the count of newly inserted rows is returned.
func (s *SyncService) SyncMessages(ctx context.Context, ownerID string) (int, error) {
	remote, err := s.messages.ListRemoteMessages(ctx, ownerID, s.maxMessages)
	if err != nil {
		return 0, fmt.Errorf("sync messages: %w", err)
	}

	inserted := 0
	for _, m := range remote {
		ok, err := s.store.UpsertMessage(ctx, m)
		if err != nil {
			s.logger.Warn("message upsert failed", "owner", ownerID, "remote_id", m.RemoteID, "error", err)
			continue
		}
		if ok {
			inserted++
		}
	}

	s.logger.Info("message sync complete", "owner", ownerID, "fetched", len(remote), "inserted", inserted)
	return inserted, nil
}

// SyncContacts mirrors remote CRM contacts. Per-item failures are logged
// and skipped; the count of newly inserted rows is returned.
func (s *SyncService) SyncContacts(ctx context.Context, ownerID string) (int, error) {
	remote, err := s.contacts.ListRemoteContacts(ctx, ownerID, s.maxContacts)
	if err != nil {
		return 0, fmt.Errorf("sync contacts: %w", err)
	}

	inserted := 0
	for _, ct := range remote {
		ok, err := s.store.UpsertContact(ctx, ct)
		if err != nil {
			s.logger.Warn("contact upsert failed", "owner", ownerID, "remote_id", ct.RemoteID, "error", err)
			continue
		}
		if ok {
			inserted++
		}
	}

	s.logger.Info("contact sync complete", "owner", ownerID, "fetched", len(remote), "inserted", inserted)
	return inserted, nil
}
