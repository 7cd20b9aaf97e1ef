package echoweb

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolsite/core/account"
)

const (
	cookieName       = "user"
	contextClaimsKey = "claims"
	redirectParam    = "redirectedFrom"
	dashboardPath    = "/dashboard"
)

var errInvalidToken = errors.New("invalid session token")

// Claims represents the session claims carried by the "user" cookie.
// ID names the server-side session.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

func (c Claims) Account() account.Account {
	return account.Account{Email: c.Email, Name: c.Name}
}

func (s *Server) newClaims(acc account.Account) *Claims {
	now := time.Now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.deps.Conf.AppName,
			Subject:   acc.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.deps.Conf.Server.CookieMaxAge)),
		},
		Email: acc.Email,
		Name:  acc.Name,
	}
}

// GenerateToken signs claims with the secret key.
func (s *Server) GenerateToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(s.deps.Conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (s *Server) parseToken(raw string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(
		raw, claims,
		func(*jwt.Token) (interface{}, error) { return []byte(s.deps.Conf.SecretKey), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid || claims.ID == "" {
		return nil, errInvalidToken
	}
	return claims, nil
}

func (s *Server) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   !(s.deps.Conf.Debug || s.deps.Conf.TestMode),
		SameSite: http.SameSiteLaxMode,
	}
}

// loadSession puts the claims of a valid "user" cookie in the context.
func (s *Server) loadSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if cookie, err := ctx.Cookie(cookieName); err == nil && cookie.Value != "" {
			if claims, err := s.parseToken(cookie.Value); err == nil {
				ctx.Set(contextClaimsKey, claims)
			}
		}
		return next(ctx)
	}
}

// requireSession redirects anonymous requests to the login page.
func requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if _, ok := contextClaims(ctx); !ok {
			q := url.Values{redirectParam: {ctx.Request().URL.Path}}
			return ctx.Redirect(http.StatusFound, "/login?"+q.Encode())
		}
		return next(ctx)
	}
}

func contextClaims(ctx echo.Context) (*Claims, bool) {
	claims, ok := ctx.Get(contextClaimsKey).(*Claims)
	return claims, ok
}

func contextAccount(ctx echo.Context) (account.Account, bool) {
	if claims, ok := contextClaims(ctx); ok {
		return claims.Account(), true
	}
	return account.Account{}, false
}

// safeRedirect only follows local dashboard paths.
func safeRedirect(target string) string {
	if target == dashboardPath || strings.HasPrefix(target, dashboardPath+"/") {
		return target
	}
	return dashboardPath
}

type loginView struct {
	Email          string
	RedirectedFrom string
	Error          string
	Errors         map[string]string
}

func (s *Server) loginForm(ctx echo.Context) error {
	if _, ok := contextClaims(ctx); ok {
		return ctx.Redirect(http.StatusFound, safeRedirect(ctx.QueryParam(redirectParam)))
	}
	return s.render(ctx, http.StatusOK, "login", "Login", loginView{RedirectedFrom: ctx.QueryParam(redirectParam)})
}

func (s *Server) login(ctx echo.Context) error {
	var creds account.Credentials
	if err := ctx.Bind(&creds); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	data := loginView{Email: creds.Email, RedirectedFrom: ctx.FormValue(redirectParam)}

	if err := creds.Validate(s.deps.Validate); err != nil {
		fldErrs, ok := s.fieldErrors(err)
		if !ok {
			return err
		}
		data.Errors = fldErrs
		return s.render(ctx, http.StatusBadRequest, "login", "Login", data)
	}

	acc, err := s.deps.Auth.Authenticate(ctx.Request().Context(), creds)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			data.Error = "Invalid email or password"
			return s.render(ctx, http.StatusBadRequest, "login", "Login", data)
		}
		return errors.Wrap(err, "authenticating")
	}

	token, err := s.GenerateToken(s.newClaims(acc))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	ctx.SetCookie(s.sessionCookie(token, int(s.deps.Conf.Server.CookieMaxAge.Seconds())))
	s.deps.Logger.Info("signed in: " + acc.Email)
	return ctx.Redirect(http.StatusSeeOther, safeRedirect(data.RedirectedFrom))
}

func (s *Server) logout(ctx echo.Context) error {
	if claims, ok := contextClaims(ctx); ok {
		s.deps.Sessions.Drop(claims.ID)
	}
	ctx.SetCookie(s.sessionCookie("", -1))
	return ctx.Redirect(http.StatusSeeOther, "/login")
}
