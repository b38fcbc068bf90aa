package client

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"math/big"
	"net/url"
	"time"
)

const nonceDigits = 30

// signURL appends the authid, time and nonce query parameters and then a
// sign parameter carrying the base64 HMAC-SHA1 of the resulting URL. The
// service recomputes the digest over the unsigned URL, so parameter order
// matters: authid, time, nonce, sign.
func signURL(rawURL, authID, secret string, now time.Time, nonce string) string {
	separator := "?"
	if u, err := url.Parse(rawURL); err == nil && u.RawQuery != "" {
		separator = "&"
	}

	unsigned := fmt.Sprintf("%s%sauthid=%s&time=%s&nonce=%s",
		rawURL, separator,
		url.QueryEscape(authID),
		url.QueryEscape(now.UTC().Format("2006-01-02T15:04:05Z")),
		url.QueryEscape(nonce))

	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(unsigned))
	digest := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return unsigned + "&sign=" + url.QueryEscape(digest)
}

// newNonce returns a fixed-length random digit string.
func newNonce() string {
	nonce := make([]byte, nonceDigits)
	for i := range nonce {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			// crypto/rand only fails when the platform source is broken;
			// a zero digit keeps the URL well-formed regardless.
			nonce[i] = '0'
			continue
		}
		nonce[i] = byte('0' + n.Int64())
	}
	return string(nonce)
}
