package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/tailscale/hujson"
)

// Instance kinds supported by the daemon.
const (
	KindBlacklist = "blacklist"
	KindWhitelist = "whitelist"
)

// InstanceDef declares one named instance to start at boot.
type InstanceDef struct {
	// Name addresses the instance in the registry and the HTTP API.
	Name string `json:"name" validate:"required"`

	// Kind selects the behavior: "blacklist" or "whitelist".
	Kind string `json:"kind" validate:"required,oneof=blacklist whitelist"`

	// Capacity and ErrorRate size the filter; zero values take the core
	// defaults (1000 and 0.3).
	Capacity  uint64  `json:"capacity" validate:"gte=0"`
	ErrorRate float64 `json:"error_rate" validate:"gte=0,lt=1"`

	// Persist backs a blacklist's exact index with a bolt database under
	// DataDir. Ignored for whitelists.
	Persist bool `json:"persist"`

	// Seeds are inline initial keys; SeedFile points at a plain key list.
	// Both may be set; file keys are appended after inline seeds.
	Seeds    []string `json:"seeds"`
	SeedFile string   `json:"seed_file"`
}

// InstancesDoc is the root of the instances file.
type InstancesDoc struct {
	Instances []InstanceDef `json:"instances" validate:"required,min=1,dive"`
}

// LoadInstances reads and validates the HuJSON instances file at path.
// HuJSON permits comments and trailing commas; the document is standardized
// to plain JSON before unmarshalling.
func LoadInstances(path string) ([]InstanceDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read instances file: %w", err)
	}
	std, err := hujson.Standardize(raw)
	if err != nil {
		return nil, fmt.Errorf("standardize instances file %s: %w", path, err)
	}

	var doc InstancesDoc
	if err := json.Unmarshal(std, &doc); err != nil {
		return nil, fmt.Errorf("parse instances file %s: %w", path, err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("invalid instances file %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(doc.Instances))
	for _, def := range doc.Instances {
		if _, dup := seen[def.Name]; dup {
			return nil, fmt.Errorf("invalid instances file %s: duplicate instance name %q", path, def.Name)
		}
		seen[def.Name] = struct{}{}
	}
	return doc.Instances, nil
}
