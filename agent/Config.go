package agent

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/samuelfneumann/reachavoid/environment"
)

// Type represents a specific type of an agent Config.
// Config's with this type can create Agents of the corresponding type.
type Type string

const (
	EGreedyDDQNMLP Type = "EGreedyDDQN-MLP"
)

// Registered types with the package. Once a Type has been registered
// with this map, a TypedConfig with that type can be deserialized.
//
// Each separate package is in charge of registering its Type with
// the package separately to avoid circular imports.
var registeredTypes = make(map[Type]reflect.Type)

// Register registers an agent's Type with a concrete Config type so
// that upon deserialization of a TypedConfig, Configs of type
// agentType are deserialized into the concrete type.
func Register(agentType Type, config Config) {
	registeredTypes[agentType] = reflect.TypeOf(config)
}

// Config represents a configuration for creating an agent
type Config interface {
	// CreateAgent creates the agent that the config describes
	CreateAgent(env environment.Environment, seed int64) (Agent, error)

	// Validate returns an error describing whether or not the
	// configuration is valid or not.
	Validate() error

	// Type returns the type of agent the Config creates
	Type() Type
}

// TypedConfig wraps a Config so that it can be JSON marshaled and
// unmarshaled into its underlying concrete type
type TypedConfig struct {
	Type
	Config
}

// NewTypedConfig returns a new TypedConfig wrapping c
func NewTypedConfig(c Config) TypedConfig {
	return TypedConfig{Type: c.Type(), Config: c}
}

// MarshalJSON implements the json.Marshaler interface
func (t TypedConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   Type
		Config Config
	}{t.Type, t.Config})
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (t *TypedConfig) UnmarshalJSON(data []byte) error {
	m := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	var typeName Type
	if err := json.Unmarshal(m["Type"], &typeName); err != nil {
		return fmt.Errorf("unmarshalJSON: could not decode agent type: %v",
			err)
	}

	ty, found := registeredTypes[typeName]
	if !found {
		return fmt.Errorf("unmarshalJSON: unregistered agent type %q",
			typeName)
	}

	value := reflect.New(ty)
	if raw, ok := m["Config"]; ok {
		if err := json.Unmarshal(raw, value.Interface()); err != nil {
			return fmt.Errorf("unmarshalJSON: could not decode config: %v",
				err)
		}
	}

	t.Type = typeName
	t.Config = value.Elem().Interface().(Config)
	return nil
}
