package api

import (
	"net/http"
	"time"
)

// SetSessionCookies stores a hosted-auth session in HttpOnly cookies.
func SetSessionCookies(w http.ResponseWriter, accessToken, refreshToken string, expiresIn int, secure bool) {
	maxAge := expiresIn
	if maxAge <= 0 {
		maxAge = int(time.Hour / time.Second)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	if refreshToken != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     RefreshTokenCookie,
			Value:    refreshToken,
			Path:     "/",
			MaxAge:   int(30 * 24 * time.Hour / time.Second),
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func ClearSessionCookies(w http.ResponseWriter, secure bool) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
