package webscan

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBasicAuthAccepted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	a := &Authenticator{Client: server.Client()}
	result := a.Authenticate(context.Background(), server.URL, &Credentials{
		Type: AuthBasic, Username: "admin", Password: "hunter2",
	})

	if !result.Attempted || !result.Authenticated {
		t.Errorf("result = %+v, want attempted and authenticated", result)
	}
	if result.Method != string(AuthBasic) {
		t.Errorf("Method = %q, want basic", result.Method)
	}
}

func TestBasicAuthRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	a := &Authenticator{Client: server.Client()}
	result := a.Authenticate(context.Background(), server.URL, &Credentials{
		Type: AuthBasic, Username: "admin", Password: "wrong",
	})

	if !result.Attempted {
		t.Error("auth not attempted")
	}
	if result.Authenticated {
		t.Error("rejected credentials reported as authenticated")
	}
	if result.Message == "" {
		t.Error("rejection left no message")
	}
}

// formLoginServer requires the CSRF token lifted from the login page.
func formLoginServer(t *testing.T, password string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, `<html><body><form method="post" action="/login">
				<input type="hidden" name="csrf_token" value="tok-42">
				<input type="text" name="username">
				<input type="password" name="password">
			</form></body></html>`)
			return
		}
		if r.FormValue("csrf_token") != "tok-42" || r.FormValue("password") != password {
			fmt.Fprint(w, "Login failed: invalid credentials")
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "s3cr3t"})
		fmt.Fprint(w, "welcome")
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestFormAuthWithCSRFToken(t *testing.T) {
	server := formLoginServer(t, "hunter2")

	a := &Authenticator{Client: server.Client()}
	result := a.Authenticate(context.Background(), server.URL, &Credentials{
		Type:     AuthForm,
		Username: "admin",
		Password: "hunter2",
		LoginURL: server.URL + "/login",
	})

	if !result.Authenticated {
		t.Errorf("form auth failed: %+v", result)
	}
}

func TestFormAuthFailureKeyword(t *testing.T) {
	server := formLoginServer(t, "hunter2")

	a := &Authenticator{Client: server.Client()}
	result := a.Authenticate(context.Background(), server.URL, &Credentials{
		Type:     AuthForm,
		Username: "admin",
		Password: "wrong",
		LoginURL: server.URL + "/login",
	})

	if result.Authenticated {
		t.Error("failed login reported as authenticated")
	}
	if result.Message == "" {
		t.Error("failed login left no message")
	}
}

func TestAuthSkippedWithoutCredentials(t *testing.T) {
	a := &Authenticator{Client: http.DefaultClient}
	for _, creds := range []*Credentials{nil, {Type: AuthBasic}} {
		result := a.Authenticate(context.Background(), "http://example.invalid", creds)
		if result.Attempted {
			t.Errorf("Authenticate(%+v) attempted without usable credentials", creds)
		}
	}
}
