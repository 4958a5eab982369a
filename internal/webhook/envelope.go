// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// signaturePrefix precedes the hex digest in the signature header.
const signaturePrefix = "sha256="

/*
BuildEnvelope renders the canonical request body for an event.

The output is compact JSON of {"data","event","timestamp"} where every object
has its keys sorted, numbers keep their original text and HTML characters are
not escaped. Timestamp is at in UTC with second precision.
*/
func BuildEnvelope(event string, payload any, at time.Time) ([]byte, error) {
	data, err := normalize(payload)
	if err != nil {
		return nil, err
	}

	envelope := map[string]any{
		"data":      data,
		"event":     event,
		"timestamp": at.UTC().Truncate(time.Second).Format(time.RFC3339),
	}
	return encodeCompact(envelope)
}

// normalize round-trips payload through JSON so nested structs become sorted maps.
func normalize(payload any) (any, error) {
	if payload == nil {
		return map[string]any{}, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("webhook: payload is not JSON serializable: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var data any
	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("webhook: payload round trip failed: %w", err)
	}
	return data, nil
}

// encodeCompact marshals with map keys sorted (encoding/json always sorts them) and HTML escaping off.
func encodeCompact(value any) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return nil, fmt.Errorf("webhook: envelope encoding failed: %w", err)
	}
	return bytes.TrimSuffix(buffer.Bytes(), []byte("\n")), nil
}

// Sign returns the X-Webhook-Signature value for body, or "" when secret is empty.
func Sign(secret string, body []byte) string {
	if secret == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches body under secret.
func Verify(secret string, body []byte, signature string) bool {
	expected := Sign(secret, body)
	return expected != "" && hmac.Equal([]byte(expected), []byte(signature))
}
