package httputils

import (
	"net/url"
	"strings"
)

func URLWithQuery(base string, v url.Values) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	if len(v) == 0 {
		return u.String(), nil
	}

	q := u.Query()
	for key, values := range v {
		for _, value := range values {
			q.Add(key, value)
		}
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// JoinURL joins a base URL and a relative endpoint with exactly one slash.
func JoinURL(base string, endpoint string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(endpoint, "/")
}

// RedactURL strips credentials from a URL before it is logged.
func RedactURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	c := *u
	c.User = nil
	return c.String()
}
