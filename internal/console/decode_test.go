package console

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestReadToken 测试按键、方向键与 SGR 鼠标序列的解码
func TestReadToken(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want token
	}{
		{"letter", "a", token{kind: tokenKey, key: "a"}},
		{"upper letter", "D", token{kind: tokenKey, key: "D"}},
		{"arrow left", "\x1b[D", token{kind: tokenKey, key: "arrowleft"}},
		{"arrow right", "\x1b[C", token{kind: tokenKey, key: "arrowright"}},
		{"arrow up", "\x1b[A", token{kind: tokenKey, key: "arrowup"}},
		{"colon", ":", token{kind: tokenByte, b: ':'}},
		{"enter", "\r", token{kind: tokenByte, b: 13}},
		{"ctrl-c", "\x03", token{kind: tokenByte, b: 3}},
		{"lone escape", "\x1b", token{kind: tokenByte, b: 27}},
		{"mouse press", "\x1b[<0;11;5M", token{kind: tokenMouse, mouse: mouseEvent{X: 10, Y: 4, Press: true}}},
		{"mouse drag", "\x1b[<32;20;5M", token{kind: tokenMouse, mouse: mouseEvent{X: 19, Y: 4, Motion: true}}},
		{"mouse release", "\x1b[<0;20;5m", token{kind: tokenMouse, mouse: mouseEvent{X: 19, Y: 4, Release: true}}},
		{"wheel", "\x1b[<64;1;1M", token{kind: tokenMouse, mouse: mouseEvent{Wheel: true, Press: true}}},
		{"malformed mouse", "\x1b[<0;x;5M", token{kind: tokenByte, b: 27}},
		{"unknown sequence", "\x1b[Z", token{kind: tokenByte, b: 27}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readToken(bufio.NewReader(strings.NewReader(tt.in)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadTokenSequence(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("a\x1b[Dd"))
	var keys []string
	for i := 0; i < 3; i++ {
		tok, err := readToken(r)
		require.NoError(t, err)
		keys = append(keys, tok.key)
	}
	assert.Equal(t, []string{"a", "arrowleft", "d"}, keys)

	_, err := readToken(r)
	assert.Error(t, err)
}

func TestParseSGRMouse(t *testing.T) {
	tests := []struct {
		name   string
		params string
		final  byte
		ok     bool
	}{
		{"valid", "0;1;1", 'M', true},
		{"missing field", "0;1", 'M', false},
		{"zero column", "0;0;1", 'M', false},
		{"negative", "-1;3;3", 'M', false},
		{"empty", "", 'm', false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := parseSGRMouse(tt.params, tt.final)
			assert.Equal(t, tt.ok, ok)
		})
	}

	ev, ok := parseSGRMouse("2;5;5", 'M')
	require.True(t, ok)
	assert.Equal(t, 2, ev.Button)
	assert.False(t, ev.primary())
}
