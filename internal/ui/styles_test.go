package ui

import (
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
)

func TestKeyValue(t *testing.T) {
	got := KeyValue("EER", "0.125")
	if !strings.Contains(got, "EER: ") || !strings.Contains(got, "0.125") {
		t.Errorf("KeyValue() = %q", got)
	}
}

func TestFangColorScheme(t *testing.T) {
	cs := FangColorScheme(lipgloss.LightDark(true))
	if cs.Title != ColorPrimary {
		t.Errorf("Title = %v, want primary", cs.Title)
	}
	if cs.ErrorDetails != ColorError {
		t.Errorf("ErrorDetails = %v, want error color", cs.ErrorDetails)
	}
	if cs.Codeblock == nil {
		t.Error("Codeblock color not set")
	}
}
