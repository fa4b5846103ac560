package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClosePartialJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: `{`, want: `{}`},
		{in: `{"language": "py`, want: `{"language": "py"}`},
		{in: `{"code": "a\`, want: `{"code": "a"}`},
		{in: `{"code": "say \"hi\" `, want: `{"code": "say \"hi\" "}`},
		{in: `{"code": "{[", "x": [1, `, want: `{"code": "{[", "x": [1]}`},
		{in: `{"language":`, want: `{"language":null}`},
		{in: `{"a": "b"}`, want: `{"a": "b"}`},
		{in: `{"code": "print('\u00`, want: `{"code": "print('"}`},
		{in: `{"code": "print('\ud83d`, want: `{"code": "print('"}`},
		{in: `{"code": "print('\ud83d\ude0`, want: `{"code": "print('"}`},
		{in: `{"code": "print('\ud83d\ude00`, want: `{"code": "print('\ud83d\ude00"}`},
		{in: `{"code": "\u0041\n\u00e9`, want: `{"code": "\u0041\n\u00e9"}`},
		{in: `{"code": "a\\u`, want: `{"code": "a\\u"}`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, closePartialJSON(tt.in))
		})
	}
}

func TestParsePartialArgs(t *testing.T) {
	args, ok := parsePartialArgs(`{"language": "shell", "code": "echo $HO`)
	assert.True(t, ok)
	assert.Equal(t, executeArgs{Language: "shell", Code: "echo $HO"}, args)

	_, ok = parsePartialArgs(`{"language": "shell", "co`)
	assert.False(t, ok)

	_, ok = parsePartialArgs("")
	assert.False(t, ok)

	args, ok = parsePartialArgs(`{"language": "python", "code": "print('\ud83d`)
	assert.True(t, ok)
	assert.Equal(t, "print('", args.Code)
}
