package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"moviesapi/internal/logging"
)

// APIKeyHeader authenticates service callers as administrators.
const APIKeyHeader = "X-Api-Key"

// APIKeyUserID is the user the admin API key acts as.
var APIKeyUserID = uuid.MustParse("47327a49-172b-4f52-a849-e3fb01f58835")

var (
	errInvalidToken  = errors.New("invalid bearer token")
	errInvalidAPIKey = errors.New("invalid api key")
)

// identity is the authenticated caller of a request.
type identity struct {
	UserID        uuid.UUID
	Admin         bool
	TrustedMember bool
}

// Claims is the token payload issued by the identity provider.
type Claims struct {
	UserID        string `json:"userid"`
	Admin         bool   `json:"admin,omitempty"`
	TrustedMember bool   `json:"trusted_member,omitempty"`
	jwt.RegisteredClaims
}

type identityKey struct{}

func withIdentity(ctx context.Context, id identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func identityFrom(ctx context.Context) (identity, bool) {
	id, ok := ctx.Value(identityKey{}).(identity)
	return id, ok
}

// userID returns the caller's id, absent for anonymous requests.
func userID(ctx context.Context) uuid.NullUUID {
	if id, ok := identityFrom(ctx); ok {
		return uuid.NullUUID{UUID: id.UserID, Valid: true}
	}
	return uuid.NullUUID{}
}

// authenticate resolves the caller from a bearer token or the admin API key.
// Requests carrying neither continue anonymously; bad credentials are
// rejected outright.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			id  identity
			err error
		)
		switch {
		case r.Header.Get("Authorization") != "":
			id, err = s.parseToken(parseBearerToken(r.Header.Get("Authorization")))
		case r.Header.Get(APIKeyHeader) != "":
			id, err = s.checkAPIKey(r.Header.Get(APIKeyHeader))
		default:
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			reqLogger := logging.FromContext(r.Context(), s.logger)
			reqLogger.Debug().Err(err).Msg("authentication rejected")
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
			return
		}

		ctx := withIdentity(r.Context(), id)
		ctx = logging.WithUserID(ctx, id.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) parseToken(raw string) (identity, error) {
	if raw == "" || s.cfg.JWTSecret == "" {
		return identity{}, errInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.JWTIssuer))
	}
	if s.cfg.JWTAudience != "" {
		opts = append(opts, jwt.WithAudience(s.cfg.JWTAudience))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, opts...)
	if err != nil {
		return identity{}, fmt.Errorf("%w: %v", errInvalidToken, err)
	}

	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return identity{}, fmt.Errorf("%w: userid claim", errInvalidToken)
	}
	return identity{
		UserID:        uid,
		Admin:         claims.Admin,
		TrustedMember: claims.TrustedMember,
	}, nil
}

func (s *Server) checkAPIKey(key string) (identity, error) {
	if s.cfg.APIKeyHash == "" {
		return identity{}, errInvalidAPIKey
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.APIKeyHash), []byte(key)); err != nil {
		return identity{}, errInvalidAPIKey
	}
	return identity{UserID: APIKeyUserID, Admin: true, TrustedMember: true}, nil
}

// requireUser admits any authenticated caller.
func (s *Server) requireUser(h http.HandlerFunc) http.Handler {
	return s.require(h, func(identity) bool { return true })
}

// requireTrustedMember admits trusted members and administrators.
func (s *Server) requireTrustedMember(h http.HandlerFunc) http.Handler {
	return s.require(h, func(id identity) bool { return id.Admin || id.TrustedMember })
}

// requireAdmin admits administrators only.
func (s *Server) requireAdmin(h http.HandlerFunc) http.Handler {
	return s.require(h, func(id identity) bool { return id.Admin })
}

func (s *Server) require(h http.HandlerFunc, allowed func(identity) bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFrom(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing credentials"})
			return
		}
		if !allowed(id) {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden"})
			return
		}
		h(w, r)
	})
}
