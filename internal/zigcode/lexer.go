// SPDX-License-Identifier: MIT

package zigcode

import "strings"

var zigKeywords = map[string]bool{
	"addrspace": true, "align": true, "allowzero": true, "and": true,
	"anyframe": true, "anytype": true, "asm": true, "async": true,
	"await": true, "break": true, "callconv": true, "catch": true,
	"comptime": true, "const": true, "continue": true, "defer": true,
	"else": true, "enum": true, "errdefer": true, "error": true,
	"export": true, "extern": true, "fn": true, "for": true, "if": true,
	"inline": true, "linksection": true, "noalias": true, "noinline": true,
	"nosuspend": true, "opaque": true, "or": true, "orelse": true,
	"packed": true, "pub": true, "resume": true, "return": true,
	"struct": true, "suspend": true, "switch": true, "test": true,
	"threadlocal": true, "try": true, "union": true, "unreachable": true,
	"usingnamespace": true, "var": true, "volatile": true, "while": true,
	"true": true, "false": true, "null": true, "undefined": true,
}

var zigTypes = map[string]bool{
	"bool": true, "anyopaque": true, "anyerror": true, "noreturn": true,
	"void": true, "type": true, "isize": true, "usize": true,
	"comptime_int": true, "comptime_float": true,
	"c_char": true, "c_short": true, "c_ushort": true, "c_int": true,
	"c_uint": true, "c_long": true, "c_ulong": true, "c_longlong": true,
	"c_ulonglong": true, "c_longdouble": true,
	"f16": true, "f32": true, "f64": true, "f80": true, "f128": true,
}

type token struct {
	kind TokenKind
	text string
}

// isPrimitiveType also covers the iN/uN arbitrary-width integers.
func isPrimitiveType(word string) bool {
	if zigTypes[word] {
		return true
	}
	if len(word) < 2 || (word[0] != 'i' && word[0] != 'u') {
		return false
	}
	for _, c := range word[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// tokenize splits Zig source into classified tokens. Unclassified runs come
// back as TokenPlain so that concatenating all token texts reproduces the
// input exactly.
func tokenize(src string) []token {
	var tokens []token
	var plain strings.Builder

	flush := func() {
		if plain.Len() > 0 {
			tokens = append(tokens, token{TokenPlain, plain.String()})
			plain.Reset()
		}
	}
	emit := func(kind TokenKind, text string) {
		flush()
		tokens = append(tokens, token{kind, text})
	}

	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			// Line and doc comments.
			end := strings.IndexByte(src[i:], '\n')
			if end == -1 {
				end = len(src) - i
			}
			emit(TokenComment, src[i:i+end])
			i += end

		case c == '\\' && i+1 < len(src) && src[i+1] == '\\':
			// Multiline string literal line.
			end := strings.IndexByte(src[i:], '\n')
			if end == -1 {
				end = len(src) - i
			}
			emit(TokenString, src[i:i+end])
			i += end

		case c == '"' || c == '\'':
			quote := c
			j := i + 1
			for j < len(src) && src[j] != quote && src[j] != '\n' {
				if src[j] == '\\' && j+1 < len(src) {
					j++
				}
				j++
			}
			if j < len(src) && src[j] == quote {
				j++
			}
			emit(TokenString, src[i:j])
			i = j

		case c >= '0' && c <= '9':
			j := i + 1
			for j < len(src) && (isIdentPart(src[j]) || src[j] == '.') {
				j++
			}
			emit(TokenNumber, src[i:j])
			i = j

		case c == '@' && i+1 < len(src) && isIdentStart(src[i+1]):
			j := i + 1
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			emit(TokenBuiltin, src[i:j])
			i = j

		case isIdentStart(c):
			j := i + 1
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			word := src[i:j]
			switch {
			case zigKeywords[word]:
				emit(TokenKeyword, word)
			case isPrimitiveType(word):
				emit(TokenType, word)
			case i > 0 && src[i-1] == ':':
				// break :blk
				emit(TokenLabel, word)
			case j < len(src) && src[j] == ':' && isBlockLabel(src[j:]):
				emit(TokenLabel, word)
			case j < len(src) && src[j] == '(':
				emit(TokenCall, word)
			default:
				plain.WriteString(word)
				flush()
			}
			i = j

		default:
			plain.WriteByte(c)
			i++
		}
	}
	flush()
	return tokens
}

// isBlockLabel reports whether rest (starting at ':') introduces a labeled
// block or loop rather than a struct field or parameter.
func isBlockLabel(rest string) bool {
	trimmed := strings.TrimLeft(rest[1:], " \t")
	return strings.HasPrefix(trimmed, "{") ||
		strings.HasPrefix(trimmed, "while") ||
		strings.HasPrefix(trimmed, "for") ||
		strings.HasPrefix(trimmed, "switch")
}
