// Package resolver turns the free-form string a customer scans or pastes
// (a program id, a merchant id, a share URL or a fragment of one) into the
// merchant and optional program it refers to.
package resolver

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// ErrNoMatch is returned when no candidate resolves to a program or merchant
var ErrNoMatch = errors.New("identifier does not match any program or merchant")

// Lookup answers existence questions against the identity store.
// ok is false when the id is unknown; err is reserved for store failures.
type Lookup interface {
	ProgramMerchant(ctx context.Context, programID string) (merchantID string, ok bool, err error)
	MerchantExists(ctx context.Context, merchantID string) (bool, error)
}

// Result is a resolved identifier. LoyaltyProgramID is empty when only a
// merchant matched.
type Result struct {
	MerchantID       string
	LoyaltyProgramID string
}

// Resolver resolves identifiers against a Lookup
type Resolver struct {
	lookup Lookup
}

// New creates a Resolver
func New(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve tries each candidate from Candidates in order. At every candidate
// a program match beats a merchant match.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (Result, error) {
	for _, c := range Candidates(identifier) {
		merchantID, ok, err := r.lookup.ProgramMerchant(ctx, c)
		if err != nil {
			return Result{}, err
		}
		if ok {
			return Result{MerchantID: merchantID, LoyaltyProgramID: c}, nil
		}

		ok, err = r.lookup.MerchantExists(ctx, c)
		if err != nil {
			return Result{}, err
		}
		if ok {
			return Result{MerchantID: c}, nil
		}
	}
	return Result{}, ErrNoMatch
}

// Candidates returns the ordered, de-duplicated ids worth probing for identifier:
// the identifier itself, then its URL path and path segments (or its
// slash-separated segments when it is not an absolute URL), then the same
// decomposition of its URL-decoded form.
func Candidates(identifier string) []string {
	raw := strings.TrimSpace(identifier)
	if raw == "" {
		return nil
	}

	var b candidateSet
	b.add(raw)
	b.addParts(raw)
	if decoded := decode(raw); decoded != raw {
		b.addParts(decoded)
	}
	return b.list
}

type candidateSet struct {
	list []string
	seen map[string]struct{}
}

// add records the decoded form of c. Slashes are trimmed only to decide
// whether c is empty; the candidate itself keeps them.
func (b *candidateSet) add(c string) {
	c = decode(c)
	if strings.Trim(c, "/") == "" || strings.EqualFold(c, "join") {
		return
	}
	if b.seen == nil {
		b.seen = make(map[string]struct{})
	}
	if _, dup := b.seen[c]; dup {
		return
	}
	b.seen[c] = struct{}{}
	b.list = append(b.list, c)
}

func (b *candidateSet) addParts(s string) {
	if u, err := url.Parse(s); err == nil && u.IsAbs() && u.Host != "" {
		path := u.EscapedPath()
		b.add(path)
		for _, seg := range strings.Split(path, "/") {
			b.add(seg)
		}
		return
	}
	for _, seg := range strings.Split(s, "/") {
		b.add(seg)
	}
}

// decode URL-decodes s, falling back to s when it is not valid escaping
func decode(s string) string {
	d, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return d
}
