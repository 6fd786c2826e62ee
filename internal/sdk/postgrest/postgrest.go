// Package postgrest provides a credential store backed by a hosted table
// service speaking the PostgREST protocol (for example Supabase).
//
// Every operation is a single round trip against /rest/v1/<table> made with
// the supabase-community postgrest-go query builder. The service enforces the
// unique email constraint; the client additionally checks for an existing
// email before inserting, so a concurrent signup can still race between the
// two calls and is then rejected by the constraint.
package postgrest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nourabuild/profile-service/internal/sdk/models"
	"github.com/nourabuild/profile-service/internal/sdk/store"
	pgrest "github.com/supabase-community/postgrest-go"
)

const (
	usersTable  = "users"
	resetsTable = "password_reset_tokens"

	schema          = "public"
	uniqueViolation = "23505"

	returnRepresentation = "representation"
	returnMinimal        = "minimal"
)

// APIError is a failed request as reported by the table service. Code holds
// the PostgreSQL or PostgREST error code when the service sent one; Status is
// set when only an HTTP status line came back.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	switch {
	case e.Code != "":
		return fmt.Sprintf("postgrest: %s (%s)", e.Message, e.Code)
	case e.Message != "":
		return "postgrest: " + e.Message
	default:
		return fmt.Sprintf("postgrest: status %d", e.Status)
	}
}

type Client struct {
	rest    *pgrest.Client
	timeout time.Duration
}

var _ store.Service = (*Client)(nil)

// New returns a client for the project at baseURL authenticating with apiKey.
// Every call is bounded by timeout in addition to the caller's context.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	restURL := strings.TrimRight(baseURL, "/") + "/rest/v1"

	rest := pgrest.NewClient(restURL, schema, map[string]string{
		"apikey":        apiKey,
		"Authorization": "Bearer " + apiKey,
	})

	return &Client{rest: rest, timeout: timeout}
}

type userRow struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	FirstName    *string   `json:"first_name"`
	LastName     *string   `json:"last_name"`
	Phone        *string   `json:"phone"`
	Address      *string   `json:"address"`
	ProfilePic   *string   `json:"profile_pic"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (r userRow) toModel() models.User {
	return models.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Phone:        r.Phone,
		Address:      r.Address,
		ProfilePic:   r.ProfilePic,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type resetRow struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	_, _, err := c.rest.From(usersTable).
		Select("id", "", false).
		Limit(1, "").
		ExecuteWithContext(ctx)
	return wrapError(err)
}

// Close is a no-op; the query builder owns no resources that need releasing.
func (c *Client) Close() error {
	return nil
}

// ---------------------------------------------
// Users
// ---------------------------------------------

func (c *Client) CreateUser(ctx context.Context, nu models.NewUser) (models.User, error) {
	if _, err := c.GetUserByEmail(ctx, nu.Email); err == nil {
		return models.User{}, store.ErrDuplicateEmail
	} else if !errors.Is(err, store.ErrNotFound) {
		return models.User{}, err
	}

	now := time.Now().UTC()
	row := userRow{
		ID:           uuid.NewString(),
		Name:         nu.Name,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ctx, cancel := c.bound(ctx)
	defer cancel()

	var rows []userRow
	_, err := c.rest.From(usersTable).
		Insert(row, false, "", returnRepresentation, "").
		ExecuteToWithContext(ctx, &rows)
	if err != nil {
		err = wrapError(err)
		if isUniqueViolation(err) {
			return models.User{}, store.ErrDuplicateEmail
		}
		return models.User{}, fmt.Errorf("creating user: %w", err)
	}
	if len(rows) == 0 {
		return models.User{}, fmt.Errorf("creating user: empty representation")
	}

	return rows[0].toModel(), nil
}

func (c *Client) GetUserByID(ctx context.Context, userID string) (models.User, error) {
	return c.selectUser(ctx, "id", userID)
}

func (c *Client) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return c.selectUser(ctx, "email", email)
}

func (c *Client) selectUser(ctx context.Context, column, value string) (models.User, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	var rows []userRow
	_, err := c.rest.From(usersTable).
		Select("*", "", false).
		Eq(column, value).
		Limit(1, "").
		ExecuteToWithContext(ctx, &rows)
	if err != nil {
		return models.User{}, fmt.Errorf("selecting user by %s: %w", column, wrapError(err))
	}
	if len(rows) == 0 {
		return models.User{}, store.ErrNotFound
	}

	return rows[0].toModel(), nil
}

// UpdateUser sends only the fields set in upd.
func (c *Client) UpdateUser(ctx context.Context, userID string, upd models.UserUpdate) (models.User, error) {
	body := map[string]any{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		body["name"] = *upd.Name
	}
	if upd.Email != nil {
		body["email"] = *upd.Email
	}
	if upd.FirstName != nil {
		body["first_name"] = *upd.FirstName
	}
	if upd.LastName != nil {
		body["last_name"] = *upd.LastName
	}
	if upd.Phone != nil {
		body["phone"] = *upd.Phone
	}
	if upd.Address != nil {
		body["address"] = *upd.Address
	}

	user, err := c.patchUser(ctx, userID, body)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, store.ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return user, nil
}

func (c *Client) UpdatePassword(ctx context.Context, userID string, passwordHash string) error {
	_, err := c.patchUser(ctx, userID, map[string]any{
		"password_hash": passwordHash,
		"updated_at":    time.Now().UTC(),
	})
	return err
}

func (c *Client) SetProfilePic(ctx context.Context, userID string, pic *string) (models.User, error) {
	return c.patchUser(ctx, userID, map[string]any{
		"profile_pic": pic,
		"updated_at":  time.Now().UTC(),
	})
}

func (c *Client) patchUser(ctx context.Context, userID string, body map[string]any) (models.User, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	var rows []userRow
	_, err := c.rest.From(usersTable).
		Update(body, returnRepresentation, "").
		Eq("id", userID).
		ExecuteToWithContext(ctx, &rows)
	if err != nil {
		return models.User{}, fmt.Errorf("updating user: %w", wrapError(err))
	}
	if len(rows) == 0 {
		return models.User{}, store.ErrNotFound
	}

	return rows[0].toModel(), nil
}

// ---------------------------------------------
// Password Reset Tokens
// ---------------------------------------------

// CreateResetToken upserts on user_id so a user has at most one token.
func (c *Client) CreateResetToken(ctx context.Context, token models.PasswordResetToken) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	row := resetRow{UserID: token.UserID, Token: token.Token, ExpiresAt: token.ExpiresAt.UTC()}

	_, _, err := c.rest.From(resetsTable).
		Insert(row, true, "user_id", returnMinimal, "").
		ExecuteWithContext(ctx)
	if err != nil {
		return fmt.Errorf("creating reset token: %w", wrapError(err))
	}
	return nil
}

// ConsumeResetToken deletes the matching row and checks its expiry. A
// mismatched token matches no row and deletes nothing.
func (c *Client) ConsumeResetToken(ctx context.Context, userID, token string, now time.Time) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	var rows []resetRow
	_, err := c.rest.From(resetsTable).
		Delete(returnRepresentation, "").
		Eq("user_id", userID).
		Eq("token", token).
		ExecuteToWithContext(ctx, &rows)
	if err != nil {
		return fmt.Errorf("consuming reset token: %w", wrapError(err))
	}
	if len(rows) == 0 {
		return store.ErrInvalidOrExpired
	}

	stored := models.PasswordResetToken{UserID: rows[0].UserID, Token: rows[0].Token, ExpiresAt: rows[0].ExpiresAt}
	_, err = store.CheckResetToken(stored, token, now)
	return err
}

// ---------------------------------------------
// Helpers
// ---------------------------------------------

func (c *Client) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// wrapError turns a failed query into an *APIError. The query builder reports
// service errors as "(code) message" and unparseable bodies as the HTTP
// status line; transport and decoding failures pass through unchanged.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	msg := err.Error()

	if rest, ok := strings.CutPrefix(msg, "("); ok {
		if code, message, found := strings.Cut(rest, ") "); found {
			return &APIError{Code: code, Message: message}
		}
	}

	if head, text, found := strings.Cut(msg, " "); found {
		if status, convErr := strconv.Atoi(head); convErr == nil && status >= 400 {
			return &APIError{Status: status, Message: text}
		}
	}

	return err
}

func isUniqueViolation(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == uniqueViolation
}
