package parsers

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParsePlainList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "simple keys",
			input: "a\nb\nc\n",
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "comments and blanks",
			input: "# header\n\na # inline comment\n   \nb\n",
			want:  []string{"a", "b"},
		},
		{
			name:  "duplicates keep first-seen order",
			input: "b\na\nb\na\n",
			want:  []string{"b", "a"},
		},
		{
			name:  "whitespace trimmed",
			input: "  spaced\t\n",
			want:  []string{"spaced"},
		},
		{
			name:  "leading BOM",
			input: "\uFEFFfirst\nsecond\n",
			want:  []string{"first", "second"},
		},
		{
			name:  "empty input",
			input: "",
			want:  []string{},
		},
		{
			name:  "comment-only input",
			input: "# nothing here\n#nor here\n",
			want:  []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePlainList(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("ParsePlainList: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
