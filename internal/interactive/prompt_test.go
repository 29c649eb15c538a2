package interactive

import (
	"bytes"
	"strings"
	"testing"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes", "y\n", true},
		{"yes word", "yes\n", true},
		{"uppercase", "Y\n", true},
		{"no", "n\n", false},
		{"empty defaults to no", "\n", false},
		{"garbage defaults to no", "sure\n", false},
		{"eof defaults to no", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompterWithIO(strings.NewReader(tt.input), &out)

			got := p.Confirm("Do you want to delete the above snapshots?")
			if got != tt.want {
				t.Errorf("Confirm() = %t, want %t", got, tt.want)
			}
			if !strings.Contains(out.String(), "[y/N]") {
				t.Errorf("Confirm() prompt = %q, want y/N hint", out.String())
			}
		})
	}
}
