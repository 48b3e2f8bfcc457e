package webscan

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// AuthType selects the authentication bootstrap strategy.
type AuthType string

const (
	AuthBasic AuthType = "basic"
	AuthForm  AuthType = "form"
)

// Credentials configures the optional pre-crawl authentication step.
type Credentials struct {
	Type          AuthType `json:"type"`
	Username      string   `json:"username"`
	Password      string   `json:"password"`
	LoginURL      string   `json:"login_url,omitempty"`
	UsernameField string   `json:"username_field,omitempty"`
	PasswordField string   `json:"password_field,omitempty"`
}

// AuthResult records the bootstrap outcome. A failed bootstrap never
// aborts the scan; the crawl simply proceeds unauthenticated.
type AuthResult struct {
	Attempted     bool   `json:"attempted"`
	Authenticated bool   `json:"authenticated"`
	Method        string `json:"method,omitempty"`
	Message       string `json:"message,omitempty"`
}

// failureKeywords in a login response body mean the submission was
// rejected even when the server answered 200.
var failureKeywords = []string{"failed", "incorrect", "invalid"}

// Authenticator performs the pre-crawl login.
type Authenticator struct {
	Client *http.Client
	Logger *zap.SugaredLogger
}

// Authenticate runs the configured strategy against target once.
func (a *Authenticator) Authenticate(ctx context.Context, target string, creds *Credentials) AuthResult {
	if creds == nil || creds.Username == "" {
		return AuthResult{}
	}

	switch creds.Type {
	case AuthBasic:
		return a.basicAuth(ctx, target, creds)
	case AuthForm:
		return a.formAuth(ctx, target, creds)
	}
	return AuthResult{Attempted: true, Message: fmt.Sprintf("unsupported auth type %q", creds.Type)}
}

// basicAuth validates credentials with a single authenticated test request.
func (a *Authenticator) basicAuth(ctx context.Context, target string, creds *Credentials) AuthResult {
	result := AuthResult{Attempted: true, Method: string(AuthBasic)}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		result.Message = err.Error()
		return result
	}
	req.SetBasicAuth(creds.Username, creds.Password)

	resp, err := a.Client.Do(req)
	if err != nil {
		result.Message = err.Error()
		return result
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		result.Message = fmt.Sprintf("credentials rejected with status %d", resp.StatusCode)
		return result
	}
	result.Authenticated = true
	return result
}

// formAuth fetches the login page, lifts an anti-CSRF token when one is
// present, and submits the credentials. Success is inferred from a
// Set-Cookie response or the absence of failure keywords in the body.
func (a *Authenticator) formAuth(ctx context.Context, target string, creds *Credentials) AuthResult {
	result := AuthResult{Attempted: true, Method: string(AuthForm)}

	loginURL := creds.LoginURL
	if loginURL == "" {
		loginURL = target
	}

	token, tokenField := a.fetchCSRFToken(ctx, loginURL)

	userField := creds.UsernameField
	if userField == "" {
		userField = "username"
	}
	passField := creds.PasswordField
	if passField == "" {
		passField = "password"
	}

	form := url.Values{}
	form.Set(userField, creds.Username)
	form.Set(passField, creds.Password)
	if token != "" {
		form.Set(tokenField, token)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		result.Message = err.Error()
		return result
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.Client.Do(req)
	if err != nil {
		result.Message = err.Error()
		return result
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))

	if len(resp.Cookies()) > 0 {
		result.Authenticated = true
		result.Message = "session cookie received"
		return result
	}

	lower := strings.ToLower(string(body))
	for _, keyword := range failureKeywords {
		if strings.Contains(lower, keyword) {
			result.Message = fmt.Sprintf("response contains failure keyword %q", keyword)
			return result
		}
	}

	result.Authenticated = true
	result.Message = "no failure indicators in response"
	return result
}

// fetchCSRFToken pulls the login page and tries the known token names in
// order, first against hidden inputs, then meta tags.
func (a *Authenticator) fetchCSRFToken(ctx context.Context, loginURL string) (token, field string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loginURL, nil)
	if err != nil {
		return "", ""
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return "", ""
	}
	defer resp.Body.Close()

	doc, err := html.Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", ""
	}

	inputs := map[string]string{}
	metas := map[string]string{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "input":
				if name := strings.ToLower(attrValue(n, "name")); name != "" {
					inputs[name] = attrValue(n, "value")
				}
			case "meta":
				if name := strings.ToLower(attrValue(n, "name")); name != "" {
					metas[name] = attrValue(n, "content")
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	for _, name := range csrfTokenFieldNames {
		if value, ok := inputs[name]; ok && value != "" {
			return value, name
		}
	}
	for _, name := range []string{"csrf-token", "csrf_token", "xsrf-token"} {
		if value, ok := metas[name]; ok && value != "" {
			return value, "csrf_token"
		}
	}
	return "", ""
}
