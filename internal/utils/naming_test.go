package utils

import "testing"

func TestExportCase(t *testing.T) {
	tests := []struct {
		name     string
		exported bool
		want     string
	}{
		{"token", true, "Token"},
		{"Token", false, "token"},
		{"Token", true, "Token"},
		{"", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExportCase(tt.name, tt.exported); got != tt.want {
				t.Errorf("ExportCase(%q, %v) = %q, want %q", tt.name, tt.exported, got, tt.want)
			}
		})
	}
}

func TestJoinCamel(t *testing.T) {
	tests := []struct {
		prefix string
		name   string
		want   string
	}{
		{"with", "Token", "withToken"},
		{"with", "token", "withToken"},
		{"", "Token", "Token"},
		{"set", "url", "setUrl"},
	}

	for _, tt := range tests {
		t.Run(tt.prefix+"_"+tt.name, func(t *testing.T) {
			if got := JoinCamel(tt.prefix, tt.name); got != tt.want {
				t.Errorf("JoinCamel(%q, %q) = %q, want %q", tt.prefix, tt.name, got, tt.want)
			}
		})
	}
}

func TestSafeParamName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Token", "token"},
		{"Type", "typeVal"},
		{"Range", "rangeVal"},
		{"", "value"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SafeParamName(tt.input); got != tt.want {
				t.Errorf("SafeParamName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestReceiverName(t *testing.T) {
	if got := ReceiverName("ChannelBuilder"); got != "c" {
		t.Errorf("ReceiverName(ChannelBuilder) = %q, want c", got)
	}
	if got := ReceiverName(""); got != "v" {
		t.Errorf("ReceiverName(空) = %q, want v", got)
	}
}
