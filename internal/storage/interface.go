package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Configuration document keys. Each key maps to one JSON document in the
// routing_config table; the configuration store assembles them into an
// immutable snapshot.
const (
	KeyRules            = "rules"
	KeyProviderWeights  = "provider_weights"
	KeyCustomProfiles   = "custom_profiles"
	KeyActiveProfile    = "active_profile"
	KeyHealthThresholds = "health_thresholds"
)

// User represents an admin API user.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsDefault    bool      `json:"is_default"`
	CreatedAt    time.Time `json:"created_at"`
}

// DecisionRecord is the persisted form of one routing decision. The
// context and metadata columns hold the decision's JSON verbatim so the
// audit trail keeps every score and explanation without a relational
// schema for them.
type DecisionRecord struct {
	ID               string    `json:"id"`
	MerchantID       string    `json:"merchant_id"`
	SelectedProvider string    `json:"selected_provider"`
	Reason           string    `json:"reason"`
	Profile          string    `json:"profile"`
	Candidates       []byte    `json:"candidates"`
	Context          []byte    `json:"context"`
	Metadata         []byte    `json:"metadata"`
	ProcessingMs     int64     `json:"processing_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// DecisionFilters narrows decision listings. Zero values mean "no filter".
type DecisionFilters struct {
	MerchantID string
	Provider   string
	Profile    string
	Since      time.Time
}

// StorageConfig is implemented by backend-specific configuration types.
type StorageConfig interface {
	Validate() error
	GetType() string
	GetConnectionString() string
}

// Storage is the persistence port shared by the SQLite and PostgreSQL
// adapters.
type Storage interface {
	// Connection management
	Close() error
	Health() error

	// Users
	CreateUser(username, password string) (*User, error)
	GetUserByUsername(username string) (*User, error)
	ValidateUser(username, password string) (*User, error)
	UpdateUserCredentials(userID int, username, password string) error
	GetUserCount() (int, error)

	// Routing configuration documents
	GetConfig(key string) ([]byte, error)
	SetConfig(key string, value []byte) error
	GetAllConfig() (map[string][]byte, error)

	// Decision audit trail
	SaveDecision(record *DecisionRecord) error
	GetDecision(id string) (*DecisionRecord, error)
	ListDecisions(filters DecisionFilters, limit, offset int) ([]*DecisionRecord, error)
	CountDecisions(filters DecisionFilters) (int, error)
	DeleteOldDecisions(before time.Time) (int64, error)
}
