// Package voucherparse extracts voucher fields from the raw text of a
// Pluxee/Cibus voucher notification.
//
// Subject format: "שובר על סך ₪200.00 - שופרסל שלי נווה הדרים - ראשון לציון",
// possibly prefixed with "Fw:" / "Fwd:" / "Re:". The redemption code is a
// standalone 15-25 digit number on its own line of the body.
package voucherparse

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrNoAmount indicates the subject carries no parsable ₪ amount.
	ErrNoAmount = errors.New("no face value found in subject")
	// ErrNoCode indicates the body carries no redemption code.
	ErrNoCode = errors.New("no redemption code found in body")
)

var (
	forwardPrefixRe = regexp.MustCompile(`(?i)^(?:Fw|Fwd|Re)\s*:\s*`)
	amountRe        = regexp.MustCompile(`₪\s*(\d+(?:\.\d+)?)`)
	codeRe          = regexp.MustCompile(`(?m)^\s*(\d{15,25})\s*$`)
)

// Parsed holds the voucher fields recovered from one notification.
type Parsed struct {
	FaceValue int64
	Store     string
	Code      string
}

// ParseSubject extracts the face value and store label from a notification
// subject. The store may be empty; a missing amount is an error.
func ParseSubject(subject string) (faceValue int64, store string, err error) {
	subject = strings.TrimSpace(forwardPrefixRe.ReplaceAllString(subject, ""))

	m := amountRe.FindStringSubmatch(subject)
	if m == nil {
		return 0, "", ErrNoAmount
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, "", ErrNoAmount
	}
	faceValue = int64(f)

	if parts := strings.Split(subject, " - "); len(parts) >= 2 {
		store = strings.TrimSpace(parts[1])
	}
	return faceValue, store, nil
}

// ParseBody extracts the redemption code from a notification body.
func ParseBody(body string) (string, error) {
	m := codeRe.FindStringSubmatch(body)
	if m == nil {
		return "", ErrNoCode
	}
	return m[1], nil
}

// Parse combines ParseSubject and ParseBody into one voucher candidate.
func Parse(subject, body string) (Parsed, error) {
	faceValue, store, err := ParseSubject(subject)
	if err != nil {
		return Parsed{}, err
	}
	code, err := ParseBody(body)
	if err != nil {
		return Parsed{}, err
	}
	if faceValue <= 0 {
		return Parsed{}, ErrNoAmount
	}
	return Parsed{FaceValue: faceValue, Store: store, Code: code}, nil
}

// CodePattern reports whether s looks like a bare redemption code. Used by
// the spreadsheet importer, which gets codes without a surrounding body.
func CodePattern(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 15 || len(s) > 25 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
