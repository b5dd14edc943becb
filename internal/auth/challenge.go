package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	mathrand "math/rand"
	"strconv"
	"strings"
	"time"
)

const defaultChallengeTTL = 5 * time.Minute

// ChallengeService issues human-verification prompts for the login form.
// The expected answer is round-tripped to the caller inside the token, so
// no server-side state is kept and no session affinity is required. The
// envelope is HMAC-signed with the process key: only this server can mint
// a token that Verify accepts.
type ChallengeService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// ChallengeOption customizes a ChallengeService.
type ChallengeOption func(*ChallengeService)

// WithChallengeTTL overrides how long an issued challenge stays answerable.
func WithChallengeTTL(ttl time.Duration) ChallengeOption {
	return func(s *ChallengeService) { s.ttl = ttl }
}

// NewChallengeService constructs a challenge service signing with secret.
func NewChallengeService(secret string, opts ...ChallengeOption) (*ChallengeService, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("signing secret is required")
	}
	s := &ChallengeService{
		secret: []byte(secret),
		ttl:    defaultChallengeTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ttl <= 0 {
		return nil, errors.New("challenge ttl must be greater than zero")
	}
	return s, nil
}

type challengeEnvelope struct {
	Answer    string `json:"answer"`
	ExpiresAt int64  `json:"exp"`
}

// Issue generates an arithmetic prompt and the opaque token encoding its
// answer. Stateless: nothing is stored between Issue and Verify.
func (s *ChallengeService) Issue() (prompt, token string, err error) {
	a := mathrand.Intn(9) + 1
	b := mathrand.Intn(9) + 1
	prompt = fmt.Sprintf("What is %d plus %d?", a, b)
	token, err = s.encode(strconv.Itoa(a+b), s.now().Add(s.ttl))
	if err != nil {
		return "", "", err
	}
	return prompt, token, nil
}

// Verify checks the submitted answer against the token. Fails closed: any
// malformed, tampered or expired token yields ErrChallengeMismatch, as
// does a wrong answer. The comparison is exact; "7" and " 7" differ.
func (s *ChallengeService) Verify(token, answer string) error {
	env, err := s.decode(token)
	if err != nil {
		return ErrChallengeMismatch
	}
	if s.now().UTC().Unix() > env.ExpiresAt {
		return ErrChallengeMismatch
	}
	if !hmac.Equal([]byte(env.Answer), []byte(answer)) {
		return ErrChallengeMismatch
	}
	return nil
}

func (s *ChallengeService) encode(answer string, expiresAt time.Time) (string, error) {
	payload, err := json.Marshal(challengeEnvelope{
		Answer:    answer,
		ExpiresAt: expiresAt.UTC().Unix(),
	})
	if err != nil {
		return "", err
	}
	body := base64.RawURLEncoding.EncodeToString(payload)
	return body + "." + s.sign(body), nil
}

func (s *ChallengeService) decode(token string) (challengeEnvelope, error) {
	body, sig, ok := strings.Cut(token, ".")
	if !ok {
		return challengeEnvelope{}, errors.New("malformed challenge token")
	}
	if !hmac.Equal([]byte(s.sign(body)), []byte(sig)) {
		return challengeEnvelope{}, errors.New("challenge signature mismatch")
	}
	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return challengeEnvelope{}, err
	}
	var env challengeEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return challengeEnvelope{}, err
	}
	return env, nil
}

func (s *ChallengeService) sign(body string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
