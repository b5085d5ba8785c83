package secrets

import (
	"fmt"

	"github.com/ebolton/keygate/internal/audit"
)

// AuditedStore wraps a Store and records every operation to the audit log.
type AuditedStore struct {
	inner Store
	audit *audit.Logger
	actor string // "cli" or "daemon"
}

// NewAuditedStore wraps an existing store with audit logging.
func NewAuditedStore(inner Store, auditLog *audit.Logger, actor string) *AuditedStore {
	return &AuditedStore{
		inner: inner,
		audit: auditLog,
		actor: actor,
	}
}

func (s *AuditedStore) Set(key, value string) error {
	if err := s.inner.Set(key, value); err != nil {
		return fmt.Errorf("audited store set: %w", err)
	}

	// Audit logging is best effort; a failure to log should not block the
	// operation.
	s.audit.Log(audit.Entry{
		Action: audit.ActionSecretWrite,
		Secret: key,
		Actor:  s.actor,
	})
	return nil
}

func (s *AuditedStore) Get(key string) (string, error) {
	val, err := s.inner.Get(key)
	entry := audit.Entry{
		Action: audit.ActionSecretRead,
		Secret: key,
		Actor:  s.actor,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	s.audit.Log(entry)
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *AuditedStore) List() ([]string, error) {
	return s.inner.List()
}

func (s *AuditedStore) Delete(key string) error {
	if err := s.inner.Delete(key); err != nil {
		return fmt.Errorf("audited store delete: %w", err)
	}

	s.audit.Log(audit.Entry{
		Action: audit.ActionSecretDelete,
		Secret: key,
		Actor:  s.actor,
	})
	return nil
}

func (s *AuditedStore) GetMultiple(keys []string) (map[string]string, error) {
	result, err := s.inner.GetMultiple(keys)
	if err != nil {
		return nil, err
	}
	for key := range result {
		s.audit.Log(audit.Entry{
			Action: audit.ActionSecretRead,
			Secret: key,
			Actor:  s.actor,
		})
	}
	return result, nil
}
