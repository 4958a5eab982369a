// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

/*
Package query assembles parameterised SQL filter clauses.

List endpoints accept optional filters; each one present adds a condition and
an argument. The builder numbers placeholders so callers never count "$n".

	where := query.New()
	where.Add("userid = ?", userID)
	where.Add("createdat >= ?", from)
	sql := "SELECT ... " + where.Clause() // WHERE userid = $1 AND createdat >= $2
*/
package query

import (
	"strconv"
	"strings"
)

// Builder collects AND-ed conditions with their arguments.
type Builder struct {
	conditions []string
	args       []any
}

// New returns an empty [Builder].
func New() *Builder {
	return &Builder{}
}

// Add appends a condition. Every "?" in condition is bound, in order, to the next arg.
func (b *Builder) Add(condition string, args ...any) *Builder {
	var sb strings.Builder
	next := 0
	for _, r := range condition {
		if r == '?' && next < len(args) {
			b.args = append(b.args, args[next])
			next++
			sb.WriteString("$" + strconv.Itoa(len(b.args)))
			continue
		}
		sb.WriteRune(r)
	}
	b.conditions = append(b.conditions, sb.String())
	return b
}

// AddIf appends the condition only when ok is true.
func (b *Builder) AddIf(ok bool, condition string, args ...any) *Builder {
	if ok {
		b.Add(condition, args...)
	}
	return b
}

// Clause returns " WHERE a AND b", or "" when no condition was added.
func (b *Builder) Clause() string {
	if len(b.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conditions, " AND ")
}

// Args returns the bound arguments in placeholder order.
func (b *Builder) Args() []any {
	return b.args
}

// Next returns the placeholder for an argument appended after the filters, e.g. LIMIT.
func (b *Builder) Next(arg any) string {
	b.args = append(b.args, arg)
	return "$" + strconv.Itoa(len(b.args))
}

// StringSlice parses a single comma-separated query string
// into a trimmed slice of strings.
func StringSlice(val string) []string {
	if val == "" {
		return nil
	}
	var res []string
	for _, v := range strings.Split(val, ",") {
		clean := strings.TrimSpace(v)
		if clean != "" {
			res = append(res, clean)
		}
	}
	return res
}
