package controllers

import (
	"net/http"
	"time"

	"github.com/cbc-energia/fieldops-backend/api/middleware"
	"github.com/cbc-energia/fieldops-backend/api/responses"
	"github.com/cbc-energia/fieldops-backend/api/validators"
	"github.com/cbc-energia/fieldops-backend/internal/identity"
	pkgAuth "github.com/cbc-energia/fieldops-backend/pkg/auth"
	"github.com/cbc-energia/fieldops-backend/pkg/auth/session"
	"github.com/cbc-energia/fieldops-backend/pkg/config"
	pkgerrors "github.com/cbc-energia/fieldops-backend/pkg/errors"
	"github.com/cbc-energia/fieldops-backend/pkg/logger"
)

type loginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	User        identity.User `json:"user"`
	AccessToken string        `json:"accessToken"`
}

// AuthLogin wires the login endpoint into the HTTP layer. A successful
// login opens a session and mints the access token bound to it.
func AuthLogin(svc identity.Service, sessions *session.Manager, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "identity service unavailable"))
			return
		}

		var body loginPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, err := svc.Login(ctx, body.Email, body.Password)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		accessID, err := sessions.Create(ctx, user.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open session"))
			return
		}

		token, err := pkgAuth.MintAccessToken(jwtCfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
			UserID: user.ID,
			Name:   user.Name,
			Role:   user.Role,
			JTI:    accessID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token"))
			return
		}

		responses.WriteSuccess(w, loginResponse{User: user, AccessToken: token})
	}
}

// AuthLogout revokes the caller's sessions and clears the persisted identity.
func AuthLogout(svc identity.Service, sessions *session.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "identity service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(ctx)
		if userID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		if sessions != nil {
			if err := sessions.RevokeUser(ctx, userID); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke sessions"))
				return
			}
		}

		if err := svc.Logout(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

// AuthMe returns the acting identity, including current points.
func AuthMe(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "identity service unavailable"))
			return
		}

		user, ok := svc.Current()
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "no active identity"))
			return
		}

		responses.WriteSuccess(w, user)
	}
}

// AuthDemoAccounts lists the seeded demo accounts. The router only mounts
// this in dev environments.
func AuthDemoAccounts(svc identity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "identity service unavailable"))
			return
		}

		responses.WriteSuccess(w, svc.DemoAccounts())
	}
}
