package xmlparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/assetpipe/internal/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		xml  string
		want map[string]any
	}{
		{
			name: "text root",
			xml:  `<greeting> hello </greeting>`,
			want: map[string]any{"greeting": "hello"},
		},
		{
			name: "empty root",
			xml:  `<?xml version="1.0"?><empty/>`,
			want: map[string]any{"empty": ""},
		},
		{
			name: "repeated children",
			xml: `<root a="1">
  <item>x</item>
  <item>y</item>
  <other/>
</root>`,
			want: map[string]any{"root": map[string]any{
				"$":     map[string]any{"a": "1"},
				"item":  []any{"x", "y"},
				"other": []any{""},
			}},
		},
		{
			name: "attributes with text",
			xml:  `<price currency="EUR">9.99</price>`,
			want: map[string]any{"price": map[string]any{
				"$": map[string]any{"currency": "EUR"},
				"_": "9.99",
			}},
		},
		{
			name: "nested",
			xml:  `<config><db name="prod"><host>localhost</host></db><!-- note --></config>`,
			want: map[string]any{"config": map[string]any{
				"db": []any{map[string]any{
					"$":    map[string]any{"name": "prod"},
					"host": []any{"localhost"},
				}},
			}},
		},
		{
			name: "namespace prefixes kept",
			xml:  `<x:doc xmlns:x="urn:x"><x:a>1</x:a></x:doc>`,
			want: map[string]any{"x:doc": map[string]any{
				"$":   map[string]any{"xmlns:x": "urn:x"},
				"x:a": []any{"1"},
			}},
		},
		{
			name: "cdata",
			xml:  `<script><![CDATA[a < b]]></script>`,
			want: map[string]any{"script": "a < b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseString(tt.xml)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	inputs := map[string]string{
		"empty":      "",
		"unclosed":   "<a><b></b>",
		"mismatched": "<a></b>",
		"two roots":  "<a/><b/>",
		"garbage":    "not xml <",
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := ParseString(input)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
		})
	}

	_, err := Parse(nil)
	assert.Error(t, err)
}
