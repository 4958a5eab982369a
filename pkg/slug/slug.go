// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

// Package slug derives and checks the URL identifiers of posts ("hello-world").
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength bounds generated slugs.
const MaxLength = 120

// stripMarks decomposes accented letters and drops the combining marks: "é" becomes "e".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// From turns s into a lowercase ASCII slug.
//
// Runs of anything but ASCII letters and digits collapse into one hyphen; the
// result never starts or ends with a hyphen and is at most [MaxLength] bytes.
func From(s string) string {
	plain, _, err := transform.String(stripMarks, s)
	if err != nil {
		plain = s
	}

	var builder strings.Builder
	builder.Grow(len(plain))
	pendingHyphen := false
	for _, r := range strings.ToLower(plain) {
		if !isSlugRune(r) {
			pendingHyphen = builder.Len() > 0
			continue
		}
		if pendingHyphen {
			if builder.Len()+1 >= MaxLength {
				break
			}
			builder.WriteByte('-')
			pendingHyphen = false
		}
		if builder.Len() >= MaxLength {
			break
		}
		builder.WriteRune(r)
	}
	return builder.String()
}

// Valid reports whether s is already a well-formed slug.
func Valid(s string) bool {
	if s == "" || s[0] == '-' || s[len(s)-1] == '-' || strings.Contains(s, "--") {
		return false
	}
	for _, r := range s {
		if r != '-' && !isSlugRune(r) {
			return false
		}
	}
	return true
}

func isSlugRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
