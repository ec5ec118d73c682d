package workload

import "sort"

// BasicScenario はリストの書き込みと全件読み出し、文字列キーのMGETを行う
func BasicScenario() Config {
	return Config{
		Name:        "basic",
		Description: "Push 9999 list values, read the list back, set 999 keys, MGET them 999 times",
		Print:       PrintFull,
		Phases: []Phase{
			{Name: "lpush", Command: CommandLPush, Key: "lfoo", From: 1, To: 10000, ValueRepeat: 1000},
			{Name: "lrange", Command: CommandLRange, Key: "lfoo", Start: 0, Stop: -1},
			{Name: "set", Command: CommandSet, Key: "foo", From: 1, To: 1000, ValueRepeat: 100},
			{Name: "mget", Command: CommandMGet, Key: "foo", From: 1, To: 1000, Repeat: 999},
		},
	}
}

// ExtendedScenario は範囲読み出しを挟んだ書き込みと、MGET/DELの繰り返しを行う
func ExtendedScenario() Config {
	return Config{
		Name:        "extended",
		Description: "Growing LRANGEs around 999 pushes, then the set/MGET block and 999 repeated DELs",
		Print:       PrintFull,
		Phases:      extendedPhases(1000, 32, 100, 999),
	}
}

// QuickScenario は extended と同じ形を小さな件数で実行する
// 動作確認用
func QuickScenario() Config {
	return Config{
		Name:        "quick",
		Description: "Extended shape with 9 keys and 9 repeats for smoke checks",
		Print:       PrintFull,
		Phases:      extendedPhases(10, 4, 4, 9),
	}
}

func extendedPhases(to, pushRepeat, setRepeat, repeat int) []Phase {
	return []Phase{
		{Name: "lrange-before", Command: CommandLRange, Key: "lfoo", From: 1, To: to, Growing: true},
		{Name: "lpush", Command: CommandLPush, Key: "lfoo", From: 1, To: to, ValueRepeat: pushRepeat},
		{Name: "lrange-after", Command: CommandLRange, Key: "lfoo", From: 1, To: to, Growing: true},
		{Name: "set", Command: CommandSet, Key: "foo", From: 1, To: to, ValueRepeat: setRepeat},
		{Name: "mget", Command: CommandMGet, Key: "foo", From: 1, To: to, Repeat: repeat},
		{Name: "set-again", Command: CommandSet, Key: "foo", From: 1, To: to, ValueRepeat: setRepeat},
		{Name: "del", Command: CommandDel, Key: "foo", From: 1, To: to, Repeat: repeat},
	}
}

var presets = map[string]func() Config{
	"basic":    BasicScenario,
	"extended": ExtendedScenario,
	"quick":    QuickScenario,
}

// GetPreset は名前からプリセットシナリオを取得する
func GetPreset(name string) (Config, bool) {
	if fn, ok := presets[name]; ok {
		return fn(), true
	}
	return Config{}, false
}

// ListPresets は利用可能なプリセット名を返す
func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PresetInfo はプリセットの概要
type PresetInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Phases      int    `json:"phases"`
	Calls       int    `json:"calls"`
}

// PresetDescriptions は全プリセットの概要を名前順で返す
func PresetDescriptions() []PresetInfo {
	names := ListPresets()
	infos := make([]PresetInfo, 0, len(names))
	for _, name := range names {
		cfg, _ := GetPreset(name)
		infos = append(infos, PresetInfo{
			Name:        cfg.Name,
			Description: cfg.Description,
			Phases:      len(cfg.Phases),
			Calls:       cfg.Calls(),
		})
	}
	return infos
}
