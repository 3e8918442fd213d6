package handler

import (
	"net/http"
	"net/url"
	"strings"
)

// msgParam returns the first msg value of the raw query. Unlike
// url.ParseQuery it keeps pairs with a raw ';' and values with malformed
// escapes, which are returned as sent.
func msgParam(r *http.Request) string {
	for _, pair := range strings.Split(r.URL.RawQuery, "&") {
		key, value, _ := strings.Cut(pair, "=")
		if unescape(key) == "msg" {
			return unescape(value)
		}
	}
	return ""
}

func unescape(s string) string {
	if v, err := url.QueryUnescape(s); err == nil {
		return v
	}
	return s
}
