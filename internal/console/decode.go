package console

import (
	"bufio"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokenByte tokenKind = iota
	tokenKey
	tokenMouse
)

// mouseEvent is one SGR (mode 1006) report. X and Y are zero-based cells.
type mouseEvent struct {
	Button  int
	X       int
	Y       int
	Press   bool
	Motion  bool
	Wheel   bool
	Release bool
}

func (m mouseEvent) primary() bool {
	return m.Button == 0 && !m.Wheel
}

type token struct {
	kind  tokenKind
	b     byte
	key   string
	mouse mouseEvent
}

const maxSequence = 32

// readToken reads one keystroke. Printable bytes become key tokens, arrow
// sequences become "arrowleft" style keys, SGR mouse reports become mouse
// tokens and anything else is passed through as a raw byte.
func readToken(r *bufio.Reader) (token, error) {
	b, err := r.ReadByte()
	if err != nil {
		return token{}, err
	}
	if b != 27 {
		if b >= 32 && b <= 126 && b != ':' {
			return token{kind: tokenKey, key: string(rune(b))}, nil
		}
		return token{kind: tokenByte, b: b}, nil
	}

	// A lone ESC has nothing buffered behind it.
	if r.Buffered() == 0 {
		return token{kind: tokenByte, b: 27}, nil
	}
	next, err := r.ReadByte()
	if err != nil {
		return token{kind: tokenByte, b: 27}, nil
	}
	if next != '[' {
		return token{kind: tokenByte, b: 27}, nil
	}
	code, err := r.ReadByte()
	if err != nil {
		return token{kind: tokenByte, b: 27}, nil
	}
	switch code {
	case 'A':
		return token{kind: tokenKey, key: "arrowup"}, nil
	case 'B':
		return token{kind: tokenKey, key: "arrowdown"}, nil
	case 'C':
		return token{kind: tokenKey, key: "arrowright"}, nil
	case 'D':
		return token{kind: tokenKey, key: "arrowleft"}, nil
	case '<':
		var params strings.Builder
		for params.Len() < maxSequence {
			c, err := r.ReadByte()
			if err != nil {
				return token{kind: tokenByte, b: 27}, nil
			}
			if c == 'M' || c == 'm' {
				if ev, ok := parseSGRMouse(params.String(), c); ok {
					return token{kind: tokenMouse, mouse: ev}, nil
				}
				break
			}
			params.WriteByte(c)
		}
	}
	return token{kind: tokenByte, b: 27}, nil
}

// parseSGRMouse decodes "b;x;y" followed by M (press/drag) or m (release).
func parseSGRMouse(params string, final byte) (mouseEvent, bool) {
	parts := strings.Split(params, ";")
	if len(parts) != 3 {
		return mouseEvent{}, false
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return mouseEvent{}, false
		}
		nums[i] = n
	}
	if nums[1] < 1 || nums[2] < 1 {
		return mouseEvent{}, false
	}
	code := nums[0]
	ev := mouseEvent{
		Button: code & 3,
		X:      nums[1] - 1,
		Y:      nums[2] - 1,
		Motion: code&32 != 0,
		Wheel:  code&64 != 0,
	}
	if final == 'm' {
		ev.Release = true
	} else if !ev.Motion {
		ev.Press = true
	}
	return ev, true
}
