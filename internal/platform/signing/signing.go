// Package signing issues and checks HMAC-signed, expiring links.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Signer struct {
	Secret []byte
	now    func() time.Time
}

// Signed binds a resource id to a subject until Exp (unix seconds).
type Signed struct {
	Resource string
	Subject  string
	Exp      int64
	Sig      string
}

func New(secret string) *Signer {
	return &Signer{Secret: []byte(secret), now: time.Now}
}

func (s *Signer) Sign(resource, subject string, exp time.Time) Signed {
	sig := s.signValue(resource, subject, exp.Unix())
	return Signed{Resource: resource, Subject: subject, Exp: exp.Unix(), Sig: sig}
}

func (s *Signer) Verify(signed Signed) bool {
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	if now().Unix() > signed.Exp {
		return false
	}
	return hmac.Equal([]byte(signed.Sig), []byte(s.signValue(signed.Resource, signed.Subject, signed.Exp)))
}

func (s *Signer) signValue(resource, subject string, exp int64) string {
	mac := hmac.New(sha256.New, s.Secret)
	mac.Write([]byte(resource))
	mac.Write([]byte("|"))
	mac.Write([]byte(subject))
	mac.Write([]byte("|"))
	mac.Write([]byte(strconv.FormatInt(exp, 10)))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// BuildSignedURL appends the signature fields to base as query parameters.
func BuildSignedURL(base string, signed Signed) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("res", signed.Resource)
	q.Set("sub", signed.Subject)
	q.Set("exp", strconv.FormatInt(signed.Exp, 10))
	q.Set("sig", signed.Sig)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func ExtractSigned(query url.Values) (Signed, error) {
	res := strings.TrimSpace(query.Get("res"))
	sub := strings.TrimSpace(query.Get("sub"))
	expStr := strings.TrimSpace(query.Get("exp"))
	sig := strings.TrimSpace(query.Get("sig"))
	if res == "" || sub == "" || expStr == "" || sig == "" {
		return Signed{}, fmt.Errorf("missing signed params")
	}
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return Signed{}, err
	}
	return Signed{Resource: res, Subject: sub, Exp: exp, Sig: sig}, nil
}
