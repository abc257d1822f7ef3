package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"aptimaster-sync/internal/domain"
)

// RecordStore is the durable, device-local key/value store (classroom mappings and the
// support configuration).
type RecordStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Clear() error
}

// PartitionResolver maps a classroom id to the remote identifier holding its snapshot.
// The remote store has no namespaces, so partitioning lives entirely in this local table:
// a device that never created or learned a classroom's identifier cannot resolve it.
type PartitionResolver struct {
	records RecordStore
}

func NewPartitionResolver(records RecordStore) *PartitionResolver {
	return &PartitionResolver{records: records}
}

// Resolve returns the remote identifier persisted for classroomID, if any.
func (r *PartitionResolver) Resolve(classroomID string) (string, bool) {
	if domain.NormalizeClassroomID(classroomID) == "" {
		return "", false
	}
	id, ok, err := r.records.Get(domain.PartitionKey(classroomID))
	if err != nil || !ok {
		return "", false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", false
	}
	return id, true
}

// Persist durably records remoteID as the identifier for classroomID.
func (r *PartitionResolver) Persist(classroomID, remoteID string) error {
	if domain.NormalizeClassroomID(classroomID) == "" {
		return domain.ErrEmptyClassroom
	}
	if strings.TrimSpace(remoteID) == "" {
		return fmt.Errorf("persist partition %s: empty remote id", domain.PartitionKey(classroomID))
	}
	return r.records.Set(domain.PartitionKey(classroomID), remoteID)
}

// ConfigStore persists the SupportConfig under a single global key.
type ConfigStore struct {
	records RecordStore
}

func NewConfigStore(records RecordStore) *ConfigStore {
	return &ConfigStore{records: records}
}

// Load returns the saved config, or false when none has been saved or it is unreadable.
func (s *ConfigStore) Load() (domain.SupportConfig, bool) {
	raw, ok, err := s.records.Get(domain.ConfigKey)
	if err != nil || !ok {
		return domain.SupportConfig{}, false
	}
	var cfg domain.SupportConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil || cfg.MeetLink == "" {
		return domain.SupportConfig{}, false
	}
	return cfg, true
}

func (s *ConfigStore) Save(cfg domain.SupportConfig) error {
	if err := domain.ValidateConfig(cfg); err != nil {
		return err
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return s.records.Set(domain.ConfigKey, string(data))
}
