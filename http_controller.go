package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/goliatone/go-jobboard-auth/middleware/jwtware"
)

// RegisterAuthRoutes mounts the auth endpoints on app. Profile routes are
// wrapped by gate, which should come from ProtectedRoute.
func RegisterAuthRoutes(app fiber.Router, service *SessionService, gate fiber.Handler, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(service, opts...)

	app.Get(controller.Routes.Health, controller.Health).Name("health.get")

	app.Post(controller.Routes.Register, controller.Register).Name("register.post")
	app.Post(controller.Routes.Login, controller.Login).Name("sign-in.post")
	app.Post(controller.Routes.Refresh, controller.Refresh).Name("refresh.post")
	app.Post(controller.Routes.Logout, controller.Logout).Name("sign-out.post")

	app.Get(controller.Routes.Profile, gate, controller.ProfileShow).Name("profile.get")
	app.Put(controller.Routes.Profile, gate, controller.ProfileUpdate).Name("profile.put")
	app.Delete(controller.Routes.Profile, gate, controller.ProfileDelete).Name("profile.delete")

	return controller
}

type AuthControllerRoutes struct {
	Register string
	Login    string
	Refresh  string
	Logout   string
	Profile  string
	Health   string
}

type AuthController struct {
	Logger       Logger
	Service      *SessionService
	Routes       *AuthControllerRoutes
	ErrorHandler func(*fiber.Ctx, error) error
	// TokenLookup and AuthScheme locate the optional access token on
	// logout. They should match the gate.
	TokenLookup string
	AuthScheme  string
}

type AuthControllerOption func(*AuthController) *AuthController

// WithControllerLogger sets the logger
func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(a *AuthController) *AuthController {
		if logger != nil {
			a.Logger = logger
		}
		return a
	}
}

// WithControllerRoutes overrides the route paths
func WithControllerRoutes(routes AuthControllerRoutes) AuthControllerOption {
	return func(a *AuthController) *AuthController {
		a.Routes = &routes
		return a
	}
}

// WithControllerErrorHandler replaces the JSON error renderer
func WithControllerErrorHandler(handler func(*fiber.Ctx, error) error) AuthControllerOption {
	return func(a *AuthController) *AuthController {
		if handler != nil {
			a.ErrorHandler = handler
		}
		return a
	}
}

// WithControllerConfig reads the access token the same way the gate built from cfg does
func WithControllerConfig(cfg Config) AuthControllerOption {
	return func(a *AuthController) *AuthController {
		if cfg == nil {
			return a
		}
		if lookup := cfg.GetTokenLookup(); lookup != "" {
			a.TokenLookup = lookup
		}
		if scheme := cfg.GetAuthScheme(); scheme != "" {
			a.AuthScheme = scheme
		}
		return a
	}
}

func NewAuthController(service *SessionService, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:  defLogger{},
		Service: service,
		Routes: &AuthControllerRoutes{
			Register: "/register",
			Login:    "/login",
			Refresh:  "/refresh",
			Logout:   "/logout",
			Profile:  "/profile",
			Health:   "/healthz",
		},
		TokenLookup: defaultAccessLookup,
		AuthScheme:  defaultAuthScheme,
	}
	c.ErrorHandler = c.defaultErrHandler

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Service == nil {
		panic("Missing SessionService in auth controller...")
	}

	return c
}

// LoginRequest payload
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// RefreshRequest payload, also used by logout
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" form:"refreshToken"`
}

func (a *AuthController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"status": "ok"})
}

func (a *AuthController) Register(ctx *fiber.Ctx) error {
	payload := new(RegisterInput)
	if err := ctx.BodyParser(payload); err != nil {
		return a.ErrorHandler(ctx, invalidInput(err))
	}

	id, err := a.Service.Register(ctx.UserContext(), *payload)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"userId":  id,
	})
}

func (a *AuthController) Login(ctx *fiber.Ctx) error {
	payload := new(LoginRequest)
	if err := ctx.BodyParser(payload); err != nil {
		return a.ErrorHandler(ctx, invalidInput(err))
	}

	pair, err := a.Service.Login(ctx.UserContext(), payload.Username, payload.Password)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"message":      "Login successful",
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

func (a *AuthController) Refresh(ctx *fiber.Ctx) error {
	payload := new(RefreshRequest)
	if err := ctx.BodyParser(payload); err != nil {
		return a.ErrorHandler(ctx, invalidInput(err))
	}

	access, err := a.Service.Refresh(ctx.UserContext(), payload.RefreshToken)
	if err != nil {
		return a.refreshErr(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"accessToken": access.Token,
	})
}

func (a *AuthController) Logout(ctx *fiber.Ctx) error {
	payload := new(RefreshRequest)
	if err := ctx.BodyParser(payload); err != nil {
		return a.ErrorHandler(ctx, invalidInput(err))
	}

	// the access token is optional, a missing header is not an error
	access, _ := jwtware.ExtractRawTokenFromContext(ctx, jwtware.GetExtractors(a.TokenLookup, a.AuthScheme))

	err := a.Service.Logout(ctx.UserContext(), LogoutInput{
		RefreshToken: payload.RefreshToken,
		AccessToken:  access,
	})
	if err != nil {
		return a.refreshErr(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"message": "Logout successful",
	})
}

func (a *AuthController) ProfileShow(ctx *fiber.Ctx) error {
	identity, ok := IdentityFromContext(ctx.UserContext())
	if !ok {
		return a.ErrorHandler(ctx, ErrUnauthenticated)
	}

	user, err := a.Service.Profile(ctx.UserContext(), identity.SubjectID)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(user.ToProfile())
}

func (a *AuthController) ProfileUpdate(ctx *fiber.Ctx) error {
	identity, ok := IdentityFromContext(ctx.UserContext())
	if !ok {
		return a.ErrorHandler(ctx, ErrUnauthenticated)
	}

	payload := new(ProfileUpdate)
	if err := ctx.BodyParser(payload); err != nil {
		return a.ErrorHandler(ctx, invalidInput(err))
	}

	if err := a.Service.UpdateProfile(ctx.UserContext(), identity.SubjectID, *payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"message": "User updated successfully",
	})
}

func (a *AuthController) ProfileDelete(ctx *fiber.Ctx) error {
	identity, ok := IdentityFromContext(ctx.UserContext())
	if !ok {
		return a.ErrorHandler(ctx, ErrUnauthenticated)
	}

	if err := a.Service.DeleteAccount(ctx.UserContext(), identity.SubjectID); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"message": "User deleted successfully",
	})
}

const (
	defaultAccessLookup = "header:" + fiber.HeaderAuthorization
	defaultAuthScheme   = "Bearer"
)

// refreshErr keeps the login wording out of refresh token failures
func (a *AuthController) refreshErr(ctx *fiber.Ctx, err error) error {
	if HasTextCode(err, TextCodeInvalidCreds) {
		return a.ErrorHandler(ctx, ErrInvalidRefreshToken)
	}
	return a.ErrorHandler(ctx, err)
}

func (a *AuthController) defaultErrHandler(ctx *fiber.Ctx, err error) error {
	logError(a.Logger, ctx, err)
	return writeError(ctx, err)
}
