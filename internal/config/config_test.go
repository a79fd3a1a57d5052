package config

import (
	"strings"
	"testing"

	"github.com/apex/log"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacktop/go-elf/pkg/elf"
)

func TestLoadDefaults(t *testing.T) {
	c, err := load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, elf.CountAuto, c.Parser.CountMethod)
	assert.Equal(t, log.InfoLevel, c.LogLevel())
	assert.Equal(t, elf.Config{Name: "/bin/ls", CountMethod: elf.CountAuto}, c.ElfConfig("/bin/ls"))
}

func TestLoadYAML(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
parser:
  count-method: forced
  forced-count: 42
log:
  level: DEBUG
`)))
	c, err := load(v)
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, c.LogLevel())
	assert.Equal(t, elf.Config{Name: "a.out", CountMethod: elf.CountForced, ForcedCount: 42}, c.ElfConfig("a.out"))
}

func TestLoadCountOrder(t *testing.T) {
	v := viper.New()
	v.Set("parser.count-order", []string{"gnu-hash", "relocations"})
	c, err := load(v)
	require.NoError(t, err)
	assert.Equal(t, []elf.CountMethod{elf.CountGnuHash, elf.CountRelocations}, c.ElfConfig("x").CountOrder)

	// as given by GOELF_PARSER_COUNT_ORDER
	v = viper.New()
	v.Set("parser.count-order", "section,HASH")
	c, err = load(v)
	require.NoError(t, err)
	assert.Equal(t, []elf.CountMethod{elf.CountSection, elf.CountHash}, c.Parser.CountOrder)
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name string
		keys map[string]any
	}{
		{"unknown method", map[string]any{"parser.count-method": "guess"}},
		{"forced without count", map[string]any{"parser.count-method": "forced"}},
		{"count without forced", map[string]any{"parser.forced-count": 10}},
		{"auto in order", map[string]any{"parser.count-order": []string{"hash", "auto"}}},
		{"bad order entry", map[string]any{"parser.count-order": []string{"symtab"}}},
		{"bad level", map[string]any{"log.level": "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for k, val := range tt.keys {
				v.Set(k, val)
			}
			_, err := load(v)
			assert.Error(t, err)
		})
	}
}
