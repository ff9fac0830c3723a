package config

import "testing"

func TestDefault_Valid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default(): %v", err)
	}
}

func TestOptions_Set(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		check func(o Options) bool
	}{
		{"base-index", "base-index", "1", func(o Options) bool { return o.BaseIndex == 1 }},
		{"history-limit", "history-limit", "5000", func(o Options) bool { return o.HistoryLimit == 5000 }},
		{"prefix", "prefix", "C-a", func(o Options) bool { return o.Prefix == "C-a" }},
		{"terminal-name", "terminal-name", "screen-256color", func(o Options) bool { return o.TerminalName == "screen-256color" }},
		{"bell-action", "bell-action", "audible", func(o Options) bool { return o.BellAction == "audible" }},
		{"mouse on", "mouse", "on", func(o Options) bool { return o.MouseEnabled }},
		{"mouse off", "mouse", "off", func(o Options) bool { return !o.MouseEnabled }},
		{"remain-on-exit", "remain-on-exit", "true", func(o Options) bool { return o.RemainOnExit }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := Default().Set(tt.key, tt.value)
			if err != nil {
				t.Fatalf("Set(%q, %q): %v", tt.key, tt.value, err)
			}
			if !tt.check(o) {
				t.Errorf("Set(%q, %q) produced %+v", tt.key, tt.value, o)
			}
		})
	}
}

func TestOptions_Set_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown option", "frobnicate", "1"},
		{"negative history limit", "history-limit", "-1"},
		{"non-numeric base-index", "base-index", "abc"},
		{"non-boolean mouse", "mouse", "maybe"},
		{"empty prefix", "prefix", ""},
		{"bad bell-action", "bell-action", "explode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Default().Set(tt.key, tt.value); err == nil {
				t.Fatalf("Set(%q, %q): expected error, got nil", tt.key, tt.value)
			}
		})
	}
}

func TestOptions_Set_DoesNotMutateReceiver(t *testing.T) {
	base := Default()
	if _, err := base.Set("base-index", "7"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if base.BaseIndex != 0 {
		t.Errorf("Set mutated receiver: BaseIndex = %d, want 0", base.BaseIndex)
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o Options) Options
		wantErr bool
	}{
		{"valid defaults", func(o Options) Options { return o }, false},
		{"negative history limit", func(o Options) Options { o.HistoryLimit = -1; return o }, true},
		{"empty prefix", func(o Options) Options { o.Prefix = ""; return o }, true},
		{"empty terminal name", func(o Options) Options { o.TerminalName = ""; return o }, true},
		{"invalid bell action", func(o Options) Options { o.BellAction = "boom"; return o }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mutate(Default()).Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
