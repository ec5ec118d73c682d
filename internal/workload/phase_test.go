package workload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand(" MGET ")
	require.NoError(t, err)
	assert.Equal(t, CommandMGet, cmd)

	_, err = ParseCommand("hget")
	assert.Error(t, err)
}

func TestPhaseCalls(t *testing.T) {
	tests := []struct {
		name  string
		phase Phase
		want  int
	}{
		{"lpush", Phase{Command: CommandLPush, From: 1, To: 10000}, 9999},
		{"set", Phase{Command: CommandSet, From: 1, To: 1000}, 999},
		{"lrange single", Phase{Command: CommandLRange, Start: 0, Stop: -1}, 1},
		{"lrange growing", Phase{Command: CommandLRange, From: 1, To: 1000, Growing: true}, 999},
		{"mget", Phase{Command: CommandMGet, From: 1, To: 1000, Repeat: 999}, 999},
		{"del", Phase{Command: CommandDel, From: 1, To: 10, Repeat: 3}, 3},
		{"empty range", Phase{Command: CommandSet, From: 5, To: 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.phase.Calls())
		})
	}
}

func TestPhaseKeysAndValues(t *testing.T) {
	p := Phase{Command: CommandSet, Key: "foo", From: 1, To: 4, ValueRepeat: 3}

	assert.Equal(t, []string{"foo1", "foo2", "foo3"}, p.Keys())
	assert.Equal(t, "foo12", p.KeyFor(12))
	assert.Equal(t, "121212", p.ValueFor(12))
}

func TestPhaseConcurrent(t *testing.T) {
	assert.True(t, Phase{Command: CommandMGet, Workers: 4}.Concurrent())
	assert.True(t, Phase{Command: CommandDel, Workers: 2}.Concurrent())
	assert.False(t, Phase{Command: CommandMGet, Workers: 1}.Concurrent())
	assert.False(t, Phase{Command: CommandSet, Workers: 4}.Concurrent())
}

func TestPhaseValidate(t *testing.T) {
	valid := []Phase{
		{Name: "a", Command: CommandLPush, Key: "l", From: 1, To: 2, ValueRepeat: 1},
		{Name: "b", Command: CommandLRange, Key: "l", Start: 0, Stop: -1},
		{Name: "c", Command: CommandLRange, Key: "l", From: 1, To: 5, Growing: true},
		{Name: "d", Command: CommandMGet, Key: "foo", From: 1, To: 5, Repeat: 1, Workers: 4},
	}
	for _, p := range valid {
		assert.NoError(t, p.Validate(), p.Name)
	}

	invalid := map[string]Phase{
		"unknown command":  {Command: "hget", Key: "k", From: 1, To: 2},
		"empty key":        {Command: CommandSet, From: 1, To: 2, ValueRepeat: 1},
		"negative from":    {Command: CommandSet, Key: "k", From: -1, To: 2, ValueRepeat: 1},
		"empty range":      {Command: CommandSet, Key: "k", From: 2, To: 2, ValueRepeat: 1},
		"zero repeat":      {Command: CommandMGet, Key: "k", From: 1, To: 2},
		"zero value":       {Command: CommandLPush, Key: "k", From: 1, To: 2},
		"negative workers": {Command: CommandDel, Key: "k", From: 1, To: 2, Repeat: 1, Workers: -1},
		"workers on set":   {Command: CommandSet, Key: "k", From: 1, To: 2, ValueRepeat: 1, Workers: 2},
	}
	for name, p := range invalid {
		assert.Error(t, p.Validate(), name)
	}
}

func TestConfigSetWorkers(t *testing.T) {
	config := ExtendedScenario()
	config.SetWorkers(8)

	for _, p := range config.Phases {
		switch p.Command {
		case CommandMGet, CommandDel:
			assert.Equal(t, 8, p.Workers, p.Name)
		default:
			assert.Zero(t, p.Workers, p.Name)
		}
	}
	assert.Equal(t, 8, config.MaxWorkers())
	assert.NoError(t, config.Validate())
	assert.Equal(t, 1, BasicScenario().MaxWorkers())
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{Name: "empty"}.Validate())

	config := QuickScenario()
	config.Print = "verbose"
	assert.Error(t, config.Validate())

	config = QuickScenario()
	config.Phases[0].Key = ""
	assert.ErrorContains(t, config.Validate(), "phase 1")
}

func TestParsePrintMode(t *testing.T) {
	mode, err := ParsePrintMode("")
	require.NoError(t, err)
	assert.Equal(t, PrintFull, mode)

	mode, err = ParsePrintMode("NONE")
	require.NoError(t, err)
	assert.Equal(t, PrintNone, mode)

	_, err = ParsePrintMode("some")
	assert.Error(t, err)
}
