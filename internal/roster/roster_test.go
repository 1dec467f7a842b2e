package roster

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/checkin/internal/participant"
)

func TestLoad(t *testing.T) {
	drafts, err := Load(filepath.Join("testdata", "roster.yaml"))
	require.NoError(t, err)
	require.Len(t, drafts, 3)

	assert.Equal(t, "1001", drafts[0].UserID)
	assert.Equal(t, "Ada Lovelace", drafts[0].FullName)
	assert.Equal(t, participant.TitleDr, drafts[0].Title)
	assert.Equal(t, participant.RegistrationFull, drafts[0].RegistrationType)
	require.NotNil(t, drafts[0].PhotoPath)
	assert.Equal(t, "/photos/1001.jpg", *drafts[0].PhotoPath)

	// Omitted keys take the schema defaults.
	assert.Equal(t, participant.TitleProf, drafts[1].Title)
	assert.Equal(t, participant.RegistrationFull, drafts[1].RegistrationType)
	assert.Nil(t, drafts[1].PhotoPath)

	assert.Equal(t, participant.TitleStudent, drafts[2].Title)
	assert.Equal(t, participant.RegistrationStudent, drafts[2].RegistrationType)

	for _, d := range drafts {
		_, err := d.Validate()
		assert.NoError(t, err, "roster drafts must pass draft validation")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read roster file")
}

func TestParse_NumericRegistrationType(t *testing.T) {
	doc := "participants:\n" +
		"  - user_id: 1\n    full_name: A\n    registration_type: 2\n" +
		"  - user_id: 2\n    full_name: B\n    registration_type: \"3\"\n"

	drafts, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, participant.RegistrationStudent, drafts[0].RegistrationType)
	assert.Equal(t, participant.RegistrationNone, drafts[1].RegistrationType)
}

func TestParse_Empty(t *testing.T) {
	drafts, err := Parse([]byte("participants: []\n"))
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "unknown key",
			doc:     "participants:\n  - user_id: 1\n    full_name: A\n    nickname: B\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "unknown top-level key",
			doc:     "attendees: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "non-integer id",
			doc:     "participants:\n  - user_id: abc\n    full_name: A\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing id",
			doc:     "participants:\n  - full_name: A\n",
			wantErr: "invalid roster",
		},
		{
			name:    "id out of range",
			doc:     "participants:\n  - user_id: 4294967296\n    full_name: A\n",
			wantErr: "invalid roster",
		},
		{
			name:    "missing name",
			doc:     "participants:\n  - user_id: 1\n",
			wantErr: "invalid roster",
		},
		{
			name:    "blank name",
			doc:     "participants:\n  - user_id: 1\n    full_name: \"   \"\n",
			wantErr: "invalid roster",
		},
		{
			name:    "unknown title",
			doc:     "participants:\n  - user_id: 1\n    full_name: A\n    title: Mr.\n",
			wantErr: "invalid roster",
		},
		{
			name:    "unknown registration type",
			doc:     "participants:\n  - user_id: 1\n    full_name: A\n    registration_type: vip\n",
			wantErr: "invalid roster",
		},
		{
			name:    "empty photo path",
			doc:     "participants:\n  - user_id: 1\n    full_name: A\n    photo_path: \"\"\n",
			wantErr: "invalid roster",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
