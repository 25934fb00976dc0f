package searchindex

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/dodoapps/dodopass/internal/item"
)

// Tokenize splits free text into lowercase, alphanumeric tokens. Search
// tokens never leave the process boundary in cleartext — only their
// HMAC is ever persisted — so the tokenizer can afford to be simple:
// its job is recall, not precision.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f == "" {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// hostToken extracts a coarse registrable-domain token from a URL, e.g.
// "https://accounts.google.com/signin" -> "google.com". This is a
// heuristic (strip the leading subdomain when there are 3+ labels), not
// a full public-suffix-list lookup: spec.md doesn't require exact eTLD+1
// matching and no third-party public-suffix library appears anywhere in
// the example pack, so pulling one in purely for this heuristic would be
// unjustified. See DESIGN.md for the stdlib justification.
func hostToken(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(raw)
	}
	host := strings.ToLower(u.Hostname())
	labels := strings.Split(host, ".")
	if len(labels) >= 3 {
		labels = labels[1:]
	}
	return strings.Join(labels, ".")
}

// TokensForRecord produces every search token a record should be
// indexed under: title, tags, username, URLs (both raw and host-folded),
// and notes. Passwords, card numbers, and other pure-secret fields are
// never tokenized.
func TokensForRecord(r *item.Record) []string {
	var text []string
	text = append(text, r.Title)
	text = append(text, r.Tags...)

	var urls []string
	switch r.Category {
	case item.CategoryLogin:
		text = append(text, r.Login.Username, r.Login.Notes)
		urls = r.Login.URLs
	case item.CategoryIdentity:
		text = append(text, r.Identity.FullName, r.Identity.Email)
	case item.CategoryCreditCard:
		text = append(text, r.CreditCard.Cardholder, r.CreditCard.Brand)
	}

	tokens := Tokenize(strings.Join(text, " "))
	for _, u := range urls {
		tokens = append(tokens, Tokenize(u)...)
		tokens = append(tokens, Tokenize(hostToken(u))...)
	}
	return dedupe(tokens)
}

func dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
