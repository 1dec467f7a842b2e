package roster

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/checkin/internal/participant"
)

//go:embed roster.cue
var schemaSource string

// file is the on-disk shape. Optional keys are pointers so that an omitted
// key stays distinguishable from an empty one until the schema fills in
// defaults.
type file struct {
	Participants []entry `yaml:"participants"`
}

type entry struct {
	UserID           *int    `yaml:"user_id"`
	FullName         *string `yaml:"full_name"`
	Title            *string `yaml:"title"`
	RegistrationType *string `yaml:"registration_type"`
	PhotoPath        *string `yaml:"photo_path"`
}

// resolved is an entry after unification; every field is concrete.
type resolved struct {
	UserID           int     `json:"user_id"`
	FullName         string  `json:"full_name"`
	Title            string  `json:"title"`
	RegistrationType string  `json:"registration_type"`
	PhotoPath        *string `json:"photo_path"`
}

// Load reads and parses the roster at path.
func Load(path string) ([]participant.Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file: %w", err)
	}
	drafts, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return drafts, nil
}

// Parse decodes a roster document.
func Parse(data []byte) ([]participant.Draft, error) {
	var f file
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	rows, err := resolve(f)
	if err != nil {
		return nil, err
	}

	drafts := make([]participant.Draft, 0, len(rows))
	for i, row := range rows {
		rt, err := participant.ParseRegistrationType(row.RegistrationType)
		if err != nil {
			return nil, fmt.Errorf("participants.%d: %w", i, err)
		}
		drafts = append(drafts, participant.Draft{
			UserID:           strconv.Itoa(row.UserID),
			FullName:         row.FullName,
			Title:            participant.Title(row.Title),
			RegistrationType: rt,
			PhotoPath:        row.PhotoPath,
		})
	}
	return drafts, nil
}

// resolve unifies the decoded document with the schema and returns the
// concrete entries.
func resolve(f file) ([]resolved, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("roster.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile roster schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Roster"))

	value := def.Unify(ctx.Encode(toMap(f)))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid roster: %s", cueerrors.Details(err, nil))
	}

	var out struct {
		Participants []resolved `json:"participants"`
	}
	if err := value.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}
	return out.Participants, nil
}

// toMap builds the value handed to CUE, leaving omitted keys out so the
// schema defaults apply.
func toMap(f file) map[string]any {
	list := make([]any, 0, len(f.Participants))
	for _, e := range f.Participants {
		m := make(map[string]any)
		if e.UserID != nil {
			m["user_id"] = *e.UserID
		}
		if e.FullName != nil {
			m["full_name"] = *e.FullName
		}
		if e.Title != nil {
			m["title"] = *e.Title
		}
		if e.RegistrationType != nil {
			m["registration_type"] = *e.RegistrationType
		}
		if e.PhotoPath != nil {
			m["photo_path"] = *e.PhotoPath
		}
		list = append(list, m)
	}
	return map[string]any{"participants": list}
}
