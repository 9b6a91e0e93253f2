package auth

import "net/http"

const (
	CookieAccessToken  = "accessToken"
	CookieRefreshToken = "refreshToken"
	CookieAccountID    = "accountId"
	CookieRole         = "role"
)

var sessionCookies = []string{CookieAccessToken, CookieRefreshToken, CookieAccountID, CookieRole}

// CookieJar is the persistence for session fields.
type CookieJar interface {
	Get(name string) (string, bool)
	Set(name, value string)
	Clear(name string)
}

// HTTPCookieJar reads cookies from the request and writes Set-Cookie headers
// to the response. Values set during the request are visible to later Gets.
type HTTPCookieJar struct {
	r       *http.Request
	w       http.ResponseWriter
	secure  bool
	written map[string]string
}

func NewHTTPCookieJar(w http.ResponseWriter, r *http.Request, secure bool) *HTTPCookieJar {
	return &HTTPCookieJar{r: r, w: w, secure: secure, written: make(map[string]string)}
}

func (j *HTTPCookieJar) Get(name string) (string, bool) {
	if v, ok := j.written[name]; ok {
		return v, v != ""
	}
	c, err := j.r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (j *HTTPCookieJar) Set(name, value string) {
	http.SetCookie(j.w, j.cookie(name, value))
	j.written[name] = value
}

func (j *HTTPCookieJar) Clear(name string) {
	c := j.cookie(name, "")
	c.MaxAge = -1
	http.SetCookie(j.w, c)
	j.written[name] = ""
}

func (j *HTTPCookieJar) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Secure:   j.secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}
