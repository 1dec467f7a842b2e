package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/checkin/internal/participant"
)

// Scenario defines a check-in conformance scenario.
// A scenario seeds the record store, drives a registration form and a
// verification screen through a list of steps, and checks the state each
// step leaves behind.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are keyed by it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// SessionID is the fixed ID given to both sessions.
	// If empty, defaults to "test-session-default".
	SessionID string `yaml:"session_id,omitempty"`

	// Seed lists participants written to the store before the first step.
	Seed []SeedParticipant `yaml:"seed,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`
}

// SeedParticipant is a stored record set up before the steps run.
// Title and RegistrationType take the form defaults when omitted.
type SeedParticipant struct {
	UserID           int     `yaml:"user_id"`
	FullName         string  `yaml:"full_name"`
	Title            string  `yaml:"title,omitempty"`
	RegistrationType string  `yaml:"registration_type,omitempty"`
	PhotoPath        *string `yaml:"photo_path,omitempty"`
}

// Step is one user intent.
type Step struct {
	// Action is one of the Action* constants.
	Action string `yaml:"action"`

	// Field is the draft field for edit steps.
	Field string `yaml:"field,omitempty"`

	// Value is the edited text, the captured photo path, or the search query.
	Value string `yaml:"value,omitempty"`

	// Decline makes a photo step simulate the user cancelling the camera.
	Decline bool `yaml:"decline,omitempty"`

	// Screen selects the session a clear_error step applies to:
	// "registration" (default) or "verification".
	Screen string `yaml:"screen,omitempty"`

	// Expect is checked against the screen's state after the step.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect lists the state fields a step must leave behind.
// Only the fields that are set are compared; an empty string asserts the
// field is empty.
type Expect struct {
	Phase    *string `yaml:"phase,omitempty"`
	Error    *string `yaml:"error,omitempty"`
	Warning  *string `yaml:"warning,omitempty"`
	Success  *string `yaml:"success,omitempty"`
	Category *string `yaml:"category,omitempty"`

	// UserID is the draft's UserID text on the registration screen and the
	// found participant's ID on the verification screen ("" when none).
	UserID *string `yaml:"user_id,omitempty"`

	// Rejected is the message of the error the intent itself returned.
	Rejected *string `yaml:"rejected,omitempty"`
}

// Step action constants.
const (
	ActionEdit         = "edit"
	ActionPhoto        = "photo"
	ActionSubmit       = "submit"
	ActionClearSuccess = "clear_success"
	ActionSearch       = "search"
	ActionVerify       = "verify"
	ActionClearError   = "clear_error"
)

// Screen names.
const (
	ScreenRegistration = "registration"
	ScreenVerification = "verification"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	return nil
}

func validateStep(step Step) error {
	switch step.Action {
	case ActionEdit:
		if step.Field == "" {
			return fmt.Errorf("edit requires a field")
		}
		if _, err := participant.ParseField(step.Field); err != nil {
			return err
		}
	case ActionPhoto:
		if !step.Decline && step.Value == "" {
			return fmt.Errorf("photo requires a value or decline: true")
		}
	case ActionClearError:
		switch step.Screen {
		case "", ScreenRegistration, ScreenVerification:
		default:
			return fmt.Errorf("unknown screen %q", step.Screen)
		}
	case ActionSubmit, ActionClearSuccess, ActionSearch, ActionVerify:
	case "":
		return fmt.Errorf("action is required")
	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
	return nil
}
