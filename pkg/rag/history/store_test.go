package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"buddy-tutor-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{"lesson-1", "lesson-1", false},
		{"../../etc/passwd", "etc_passwd", false},
		{"my chat.json", "my_chat_json", false},
		{"///", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := SanitizeName(tt.in)
			if tt.err {
				assert.ErrorIs(t, err, ErrInvalidName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "exports"))

	name, err := store.Save("../solar system", []llm.Message{
		{Role: llm.RoleSystem, Content: "hidden"},
		{Role: llm.RoleUser, Content: "What is the Sun?"},
		{Role: llm.RoleAssistant, Content: "The Sun is a star."},
	})
	require.NoError(t, err)
	assert.Equal(t, "solar_system", name)

	path := filepath.Join(dir, "exports", "solar_system.json")
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded, err := store.Load("solar_system")
	require.NoError(t, err)
	assert.Equal(t, "solar_system", loaded.Name)
	assert.False(t, loaded.ExportedAt.IsZero())
	require.Len(t, loaded.Messages, 2)
	assert.Equal(t, "What is the Sun?", loaded.Messages[0].Content)
	assert.Equal(t, llm.RoleAssistant, loaded.Messages[1].Role)
}

func TestStore_FileIsArrayOfRoleContent(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	_, err := store.Save("unit_1", []llm.Message{
		{Role: llm.RoleUser, Content: "What is a cell?"},
		{Role: llm.RoleAssistant, Content: "The basic unit of life."},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "unit_1.json"))
	require.NoError(t, err)

	var raw []map[string]string
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, []map[string]string{
		{"role": "user", "content": "What is a cell?"},
		{"role": "assistant", "content": "The basic unit of life."},
	}, raw)
}

func TestStore_LoadsHandWrittenExport(t *testing.T) {
	dir := t.TempDir()
	body := `[{"role":"user","content":"Hi"},{"role":"assistant","content":"Hello!"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lesson.json"), []byte(body), 0o644))

	loaded, err := NewStore(dir).Load("lesson")
	require.NoError(t, err)
	assert.Equal(t, "lesson", loaded.Name)
	assert.Equal(t, []llm.Message{
		{Role: llm.RoleUser, Content: "Hi"},
		{Role: llm.RoleAssistant, Content: "Hello!"},
	}, loaded.Messages)
}

func TestStore_LoadRejectsObjectLayout(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.json"), []byte(`{"messages":[]}`), 0o644))

	_, err := NewStore(dir).Load("old")
	assert.Error(t, err)
}

func TestStore_LoadMissing(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Load("nothing-here")
	assert.ErrorIs(t, err, ErrNotFound)
}
