package service

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/sifan077/ShortKey/internal/app/model"
)

const (
	maxCustomKeyLength = model.KeyMaxLength
	maxHostLength      = 253
	maxLabelLength     = 63
)

// reservedKeys are path segments the HTTP API owns.
var reservedKeys = map[string]struct{}{
	"admin":  {},
	"url":    {},
	"health": {},
}

// ValidateTargetURL accepts absolute http and https URLs whose host is an IP
// literal, localhost, or a dotted DNS name of well-formed labels.
func ValidateTargetURL(raw string) error {
	if raw == "" || strings.ContainsAny(raw, " \t\r\n") {
		return ErrInvalidURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidURL
	}
	if !validHost(u.Hostname()) {
		return ErrInvalidURL
	}
	return nil
}

func validHost(host string) bool {
	if host == "" {
		return false
	}
	if net.ParseIP(host) != nil || strings.EqualFold(host, "localhost") {
		return true
	}
	if len(host) > maxHostLength {
		return false
	}

	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if !validLabel(label) {
			return false
		}
	}
	return true
}

// validLabel accepts 1-63 letters, digits and inner hyphens.
func validLabel(label string) bool {
	if label == "" || len(label) > maxLabelLength {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for _, c := range label {
		if !isAlnum(c) && c != '-' {
			return false
		}
	}
	return true
}

// ValidateCustomKey accepts 1-32 characters of [A-Za-z0-9_-] that do not
// shadow an API route.
func ValidateCustomKey(key string) error {
	if key == "" || len(key) > maxCustomKeyLength {
		return fmt.Errorf("%w: length must be 1-%d", ErrInvalidKey, maxCustomKeyLength)
	}
	for _, c := range key {
		if !isKeyChar(c) {
			return fmt.Errorf("%w: unexpected character %q", ErrInvalidKey, c)
		}
	}
	if _, ok := reservedKeys[strings.ToLower(key)]; ok {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidKey, key)
	}
	return nil
}

func isKeyChar(c rune) bool {
	return isAlnum(c) || c == '-' || c == '_'
}

func isAlnum(c rune) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
