// SPDX-License-Identifier: MIT

package zigcode

import (
	"fmt"
	"strings"
)

// Reset clears all active SGR attributes.
const Reset = "\x1b[0m"

// Color is an SGR foreground color from the palette Discord's ANSI
// codeblocks support.
type Color int

const (
	Gray   Color = 30
	Red    Color = 31
	Green  Color = 32
	Yellow Color = 33
	Blue   Color = 34
	Pink   Color = 35
	Cyan   Color = 36
	White  Color = 37
)

// Style is a renderable SGR style.
type Style struct {
	Color Color
	Bold  bool
}

// SGR renders the escape sequence activating the style.
func (s Style) SGR() string {
	var parts []string
	if s.Bold {
		parts = append(parts, "1")
	}
	parts = append(parts, fmt.Sprintf("%d", s.Color))
	return "\x1b[" + strings.Join(parts, ";") + "m"
}

// TokenKind classifies lexed Zig tokens for theming.
type TokenKind int

const (
	TokenPlain TokenKind = iota
	TokenComment
	TokenString
	TokenNumber
	TokenKeyword
	TokenBuiltin
	TokenType
	TokenCall
	TokenLabel
)

// Theme maps token kinds to styles. Kinds without an entry render unstyled.
type Theme map[TokenKind]Style

// DefaultTheme is the full palette.
func DefaultTheme() Theme {
	return Theme{
		TokenComment: {Color: Gray},
		TokenString:  {Color: Green},
		TokenNumber:  {Color: Cyan},
		TokenKeyword: {Color: Red},
		TokenBuiltin: {Color: Pink},
		TokenType:    {Color: Yellow},
		TokenCall:    {Color: Blue},
		TokenLabel:   {Color: Cyan, Bold: true},
	}
}

// DiscordTheme is DefaultTheme without comment styling. Discord renders the
// gray SGR color as a barely readable dark block, so comments stay plain.
func DiscordTheme() Theme {
	theme := DefaultTheme()
	delete(theme, TokenComment)
	return theme
}
