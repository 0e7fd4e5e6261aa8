// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/edubadge/internal/platform/request"
	"github.com/taibuivan/edubadge/internal/platform/respond"
)

// # Definitions & Constructors

// Handler exposes the facade and migration operations over HTTP.
type Handler struct {
	facade    *Facade
	migration *MigrationService
}

// NewHandler constructs a new [Handler].
func NewHandler(facade *Facade, migration *MigrationService) *Handler {
	return &Handler{facade: facade, migration: migration}
}

// SessionRoutes returns the router mounted at /session.
//
// # Endpoints
//   - GET    / : Current user
//   - POST   / : Log in
//   - DELETE / : Log out
func (handler *Handler) SessionRoutes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.currentUser)
	router.Post("/", handler.login)
	router.Delete("/", handler.logout)
	return router
}

// UserRoutes returns the router mounted at /users.
func (handler *Handler) UserRoutes() chi.Router {
	router := chi.NewRouter()
	router.Get("/{username}/badges", handler.listBadges)
	router.Post("/{username}/badges", handler.addBadge)
	router.Get("/{username}/badges/count", handler.countBadges)
	return router
}

// MigrationRoutes returns the router mounted at /migrations.
func (handler *Handler) MigrationRoutes() chi.Router {
	router := chi.NewRouter()
	router.Post("/", handler.migrateAll)
	router.Post("/{username}", handler.migrateUser)
	router.Get("/{username}/verify", handler.verifyUser)
	return router
}

// # Request Payloads

type loginRequest struct {
	Username   string `json:"username"`
	Credential string `json:"credential"`
}

type addBadgeRequest struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

// # Response Payloads

type sessionResponse struct {
	LoggedIn bool     `json:"loggedIn"`
	Session  *Session `json:"session,omitempty"`
}

type loginResponse struct {
	LoginResult
	Username string `json:"username"`
}

type badgesResponse struct {
	Username string  `json:"username"`
	Badges   []Badge `json:"badges"`
	Count    int     `json:"count"`
}

type countResponse struct {
	Username string `json:"username"`
	Count    int    `json:"count"`
}

// # Session Handlers

/*
currentUser reports the logged-in user.

GET /api/v1/session

Response:
  - 200: sessionResponse
*/
func (handler *Handler) currentUser(writer http.ResponseWriter, request *http.Request) {
	session, ok := handler.facade.Session()
	if !ok {
		respond.OK(writer, sessionResponse{})
		return
	}
	respond.OK(writer, sessionResponse{LoggedIn: true, Session: &session})
}

/*
login starts a session.

POST /api/v1/session

Request:
  - Body: loginRequest (Username, optional Credential)

Response:
  - 200: loginResponse (usedFallback reports a device-local session)
  - 400: Invalid username
  - 401: Credential rejected
  - 503: Remote unavailable and fallback disabled
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.facade.SetCurrentUser(request.Context(), input.Username, input.Credential)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	username, _ := handler.facade.CurrentUsername()
	respond.OK(writer, loginResponse{LoginResult: result, Username: username})
}

/*
logout ends the session.

DELETE /api/v1/session

Response:
  - 204: No Content
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	handler.facade.Logout(request.Context())
	respond.NoContent(writer)
}

// # Badge Handlers

/*
listBadges returns a user's badges in earn order.

GET /api/v1/users/{username}/badges

Response:
  - 200: badgesResponse
  - 400: Invalid username
*/
func (handler *Handler) listBadges(writer http.ResponseWriter, request *http.Request) {
	username, ok := usernameParam(writer, request)
	if !ok {
		return
	}

	badges, err := handler.facade.Badges(request.Context(), username)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, badgesResponse{Username: username, Badges: badges, Count: len(badges)})
}

/*
addBadge awards a badge.

POST /api/v1/users/{username}/badges

Request:
  - Body: addBadgeRequest (Name, optional Emoji)

Response:
  - 201: badgesResponse with the updated list
  - 400: Invalid username or badge
*/
func (handler *Handler) addBadge(writer http.ResponseWriter, request *http.Request) {
	username, ok := usernameParam(writer, request)
	if !ok {
		return
	}

	var input addBadgeRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.facade.AddBadge(request.Context(), username, input.Name, input.Emoji); err != nil {
		respond.Error(writer, request, err)
		return
	}

	badges, err := handler.facade.Badges(request.Context(), username)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, badgesResponse{Username: username, Badges: badges, Count: len(badges)})
}

// countBadges handles GET /api/v1/users/{username}/badges/count.
func (handler *Handler) countBadges(writer http.ResponseWriter, request *http.Request) {
	username, ok := usernameParam(writer, request)
	if !ok {
		return
	}

	count, err := handler.facade.BadgeCount(request.Context(), username)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, countResponse{Username: username, Count: count})
}

// usernameParam reads and normalizes the {username} path segment, writing the
// validation error itself when the segment is unusable.
func usernameParam(writer http.ResponseWriter, request *http.Request) (string, bool) {
	username, err := NormalizeUsername(requestutil.Param(request, FieldUsername))
	if err != nil {
		respond.Error(writer, request, err)
		return "", false
	}
	return username, true
}

// # Migration Handlers

// migrateAll handles POST /api/v1/migrations.
func (handler *Handler) migrateAll(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, handler.migration.MigrateAllUsers(request.Context()))
}

// migrateUser handles POST /api/v1/migrations/{username}.
func (handler *Handler) migrateUser(writer http.ResponseWriter, request *http.Request) {
	username := requestutil.Param(request, FieldUsername)
	respond.OK(writer, handler.migration.MigrateUserData(request.Context(), username))
}

// verifyUser handles GET /api/v1/migrations/{username}/verify.
func (handler *Handler) verifyUser(writer http.ResponseWriter, request *http.Request) {
	username := requestutil.Param(request, FieldUsername)
	respond.OK(writer, handler.migration.VerifyMigration(request.Context(), username))
}
