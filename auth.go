package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtExpiry        = 7 * 24 * time.Hour
	bcryptCost       = 12
	minPasswordLen   = 4
	minUsernameLen   = 2
	maxUsernameLen   = 16
	loginRateWindow  = 60 * time.Second
	maxLoginAttempts = 10
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Auth issues and checks account credentials. The signing key lives in the
// settings table so tokens outlive restarts; without a database the key is
// ephemeral and every restart logs everyone out.
type Auth struct {
	db       *DB
	key      []byte
	throttle loginThrottle
}

func NewAuth(db *DB) *Auth {
	return &Auth{
		db:       db,
		key:      loadSigningKey(db),
		throttle: loginThrottle{seen: make(map[string]*attemptWindow)},
	}
}

func loadSigningKey(db *DB) []byte {
	if db != nil {
		if stored := db.GetSetting("jwt_secret"); stored != "" {
			if key, err := hex.DecodeString(stored); err == nil && len(key) == 32 {
				return key
			}
		}
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic("jwt key generation: " + err.Error())
	}
	if db != nil {
		if err := db.SetSetting("jwt_secret", hex.EncodeToString(key)); err != nil {
			logrus.WithError(err).Warn("signing key not persisted, tokens die with this process")
		}
	}
	return key
}

// sessionClaims is the token payload. pid/usr are what the socket auth
// handler needs to resume an account without a password round-trip.
type sessionClaims struct {
	PlayerID int64  `json:"pid"`
	Username string `json:"usr"`
	jwt.RegisteredClaims
}

// Register creates an account and logs it straight in.
func (a *Auth) Register(username, password string) (int64, string, error) {
	username = strings.TrimSpace(username)
	if err := checkCredentialPolicy(username, password); err != nil {
		return 0, "", err
	}

	taken, err := a.db.UsernameExists(username)
	if err != nil {
		return 0, "", errors.New("database error")
	}
	if taken {
		return 0, "", errors.New("username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return 0, "", errors.New("internal error")
	}
	id, err := a.db.CreatePlayer(username, "", string(hash))
	if err != nil {
		return 0, "", errors.New("failed to create account")
	}
	logrus.WithField("username", username).Info("account registered")

	token, err := a.issueToken(id, username)
	if err != nil {
		return 0, "", errors.New("internal error")
	}
	return id, token, nil
}

func checkCredentialPolicy(username, password string) error {
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return fmt.Errorf("username must be %d-%d characters", minUsernameLen, maxUsernameLen)
	}
	if !usernameRe.MatchString(username) {
		return errors.New("username may only contain letters, digits, _ and -")
	}
	if len(password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	return nil
}

// Login checks a password and returns a fresh token. Unknown user and wrong
// password fail identically so usernames cannot be probed.
func (a *Auth) Login(username, password, ip string) (int64, string, error) {
	if !a.throttle.allow(ip) {
		return 0, "", errors.New("too many login attempts, try again later")
	}

	account, err := a.db.GetPlayerByUsername(username)
	if err != nil {
		return 0, "", errors.New("database error")
	}
	// Guests carry an empty hash; they cannot be logged into.
	if account == nil || account.PassHash == "" {
		return 0, "", errors.New("invalid username or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PassHash), []byte(password)) != nil {
		return 0, "", errors.New("invalid username or password")
	}

	token, err := a.issueToken(account.ID, account.Username)
	if err != nil {
		return 0, "", errors.New("internal error")
	}
	return account.ID, token, nil
}

// ValidateToken verifies a token and returns the account it names.
func (a *Auth) ValidateToken(tokenStr string) (int64, string, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.key, nil
	})
	if err != nil {
		return 0, "", err
	}
	if !token.Valid || claims.PlayerID == 0 {
		return 0, "", errors.New("invalid token")
	}
	return claims.PlayerID, claims.Username, nil
}

func (a *Auth) issueToken(playerID int64, username string) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		PlayerID: playerID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(jwtExpiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.key)
}

// loginThrottle counts login attempts per source IP over a fixed window.
// Successful logins count too; ten a minute is plenty for a human.
type loginThrottle struct {
	mu   sync.Mutex
	seen map[string]*attemptWindow
}

type attemptWindow struct {
	count   int
	resetAt time.Time
}

func (lt *loginThrottle) allow(ip string) bool {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	now := time.Now()
	w := lt.seen[ip]
	if w == nil || now.After(w.resetAt) {
		lt.seen[ip] = &attemptWindow{count: 1, resetAt: now.Add(loginRateWindow)}
		return true
	}
	w.count++
	return w.count <= maxLoginAttempts
}

// GenerateGuestName returns a throwaway display name like "Guest_a3f2c1".
func GenerateGuestName() string {
	tag := make([]byte, 3)
	rand.Read(tag)
	return "Guest_" + hex.EncodeToString(tag)
}
