package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Pauta da Semana", "pauta-da-semana"},
		{"Reunião de Pauta", "reuniao-de-pauta"},
		{"Programação", "programacao"},
		{"slow_burn", "slow-burn"},
		{"SLOW-BURN", "slow-burn"},
		{"🔥 Urgente!", "urgente"},
		{"  multi   word ", "multi-word"},
		{"--leading--", "leading"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.input), "input %q", tt.input)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\notes.TXT`, "notes.txt"},
		{"pauta semanal.docx", "pauta_semanal.docx"},
		{"", "file"},
		{"...", "file"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.input), "input %q", tt.input)
	}
}
