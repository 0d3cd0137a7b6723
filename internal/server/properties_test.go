package server

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"roam/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProperties(t *testing.T) {
	in := `#Minecraft server properties
#Mon Jan 01 00:00:00 UTC 2026

motd=A Minecraft Server
server-port = 25565
level-seed=
online-mode=true
motd=Second wins
`
	props, err := ParseProperties(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, domain.ServerProperties{
		"motd":        "Second wins",
		"server-port": "25565",
		"level-seed":  "",
		"online-mode": "true",
	}, props)
}

func TestParsePropertiesSkipsGarbage(t *testing.T) {
	props, err := ParseProperties(strings.NewReader("motd=ok\nnot a property\n=value\npvp=false\n"))
	require.NoError(t, err)
	assert.Equal(t, domain.ServerProperties{"motd": "ok", "pvp": "false"}, props)
}

func TestWritePropertiesSorted(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteProperties(&buf, domain.ServerProperties{"pvp": "false", "difficulty": "hard"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "difficulty=hard", lines[2])
	assert.Equal(t, "pvp=false", lines[3])
}

func TestPropertiesFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), PropertiesFile)
	props := domain.ServerProperties{"motd": "hello=world", "max-players": "20"}

	require.NoError(t, SavePropertiesFile(path, props))
	out, err := LoadPropertiesFile(path)
	require.NoError(t, err)
	assert.Equal(t, props, out)
}

func TestResolveDir(t *testing.T) {
	dir := t.TempDir()
	got, err := ResolveDir(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	file := filepath.Join(dir, "server.jar")
	require.NoError(t, os.WriteFile(file, []byte("jar"), 0644))
	_, err = ResolveDir(file)
	assert.Error(t, err)

	_, err = ResolveDir("")
	assert.Error(t, err)
}
