package repository

import "net/url"

// Canonicalize normalizes a webhook URL per spec §4.A: parse, drop query and
// fragment, strip a single trailing "/" only when the path length exceeds 1,
// and recompose scheme://host+path. On parse failure the input is returned
// unchanged — the repository still enforces uniqueness textually in that case.
//
// Canonicalize is idempotent: Canonicalize(Canonicalize(u)) == Canonicalize(u).
func Canonicalize(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.RawQuery = ""
	u.Fragment = ""

	if len(u.Path) > 1 && u.Path[len(u.Path)-1] == '/' {
		u.Path = u.Path[:len(u.Path)-1]
	}

	return u.Scheme + "://" + u.Host + u.Path
}
