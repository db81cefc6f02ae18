package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func webhookRequest(body, sigHeader, sig string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	if sig != "" {
		req.Header.Set(sigHeader, sig)
	}
	return req
}

func TestWebhookHMACValidSignature(t *testing.T) {
	body := `{"user_id":"owner-1"}`
	var gotBody string
	handler := WebhookHMAC("secret", "X-Goog-Signature")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, webhookRequest(body, "X-Goog-Signature", sign("secret", []byte(body))))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotBody != body {
		t.Fatalf("body must be re-readable downstream, got %q", gotBody)
	}
}

func TestWebhookHMACPrefixedSignature(t *testing.T) {
	body := `{}`
	handler := WebhookHMAC("secret", "X-HubSpot-Signature")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, webhookRequest(body, "X-HubSpot-Signature", "sha256="+sign("secret", []byte(body))))

	if rec.Code != http.StatusOK {
		t.Fatalf("sha256= prefixed signatures should verify, got %d", rec.Code)
	}
}

func TestWebhookHMACMissingSignature(t *testing.T) {
	handler := WebhookHMAC("secret", "X-Goog-Signature")(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, webhookRequest(`{}`, "X-Goog-Signature", ""))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestWebhookHMACInvalidSignature(t *testing.T) {
	handler := WebhookHMAC("secret", "X-Goog-Signature")(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, webhookRequest(`{}`, "X-Goog-Signature", sign("wrong-secret", []byte(`{}`))))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestWebhookHMACUnconfiguredSecret(t *testing.T) {
	handler := WebhookHMAC("", "X-Goog-Signature")(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, webhookRequest(`{}`, "X-Goog-Signature", "anything"))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for unconfigured secret, got %d", rec.Code)
	}
}
