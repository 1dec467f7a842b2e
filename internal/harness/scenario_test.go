package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario(filepath.Join(scenariosDir, "duplicate_rejected.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "duplicate_rejected", s.Name)
	assert.Equal(t, "golden-session", s.SessionID)
	require.Len(t, s.Seed, 1)
	assert.Equal(t, 1, s.Seed[0].UserID)
	assert.Equal(t, "Dr.", s.Seed[0].Title)
	require.Len(t, s.Steps, 4)
	assert.Equal(t, ActionEdit, s.Steps[0].Action)
	require.NotNil(t, s.Steps[0].Expect)
	require.NotNil(t, s.Steps[0].Expect.Warning)
	assert.Nil(t, s.Steps[0].Expect.Phase)
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_FromTempFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: s\ndescription: d\nsteps:\n  - action: submit\n"), 0644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, ActionSubmit, s.Steps[0].Action)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: s\ndescription: d\nsteps:\n  - action: submit\n    expects: {}\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			yaml:    "description: d\nsteps:\n  - action: submit\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: s\nsteps:\n  - action: submit\n",
			wantErr: "description is required",
		},
		{
			name:    "no steps",
			yaml:    "name: s\ndescription: d\n",
			wantErr: "steps list is required",
		},
		{
			name:    "missing action",
			yaml:    "name: s\ndescription: d\nsteps:\n  - value: x\n",
			wantErr: "action is required",
		},
		{
			name:    "unknown action",
			yaml:    "name: s\ndescription: d\nsteps:\n  - action: dance\n",
			wantErr: `unknown action "dance"`,
		},
		{
			name:    "edit without field",
			yaml:    "name: s\ndescription: d\nsteps:\n  - action: edit\n    value: x\n",
			wantErr: "edit requires a field",
		},
		{
			name:    "edit unknown field",
			yaml:    "name: s\ndescription: d\nsteps:\n  - action: edit\n    field: nickname\n",
			wantErr: `unknown field "nickname"`,
		},
		{
			name:    "photo without path",
			yaml:    "name: s\ndescription: d\nsteps:\n  - action: photo\n",
			wantErr: "photo requires a value",
		},
		{
			name:    "clear_error unknown screen",
			yaml:    "name: s\ndescription: d\nsteps:\n  - action: clear_error\n    screen: kiosk\n",
			wantErr: `unknown screen "kiosk"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
