package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"

	"github.com/goliatone/go-jobboard-auth/middleware/jwtware"
)

const internalErrorMessage = "internal server error"

// ProtectedRoute returns the auth gate for access tokens. Extraction
// follows cfg and every failure is answered with a generic 401.
func ProtectedRoute(cfg Config, validator TokenValidator, logger Logger, listeners ...ValidationListener) fiber.Handler {
	if logger == nil {
		logger = defLogger{}
	}

	gateCfg := jwtware.Config{
		ContextKey:  cfg.GetContextKey(),
		TokenLookup: cfg.GetTokenLookup(),
		AuthScheme:  cfg.GetAuthScheme(),
		TokenValidator: jwtware.TokenValidatorFunc(func(ctx context.Context, token string) (jwtware.AuthClaims, error) {
			claims, err := validator.Validate(ctx, token)
			if err != nil {
				return nil, err
			}
			return claims, nil
		}),
		ContextEnricher: ContextEnricherAdapter,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			logger.Debug("request rejected by auth gate",
				"path", c.Path(),
				"reason", err.Error(),
			)
			return writeError(c, ErrUnauthenticated)
		},
	}
	RegisterValidationListeners(&gateCfg, listeners...)

	return jwtware.New(gateCfg)
}

// HTTPStatus maps err to a response status and a client safe message.
// Anything outside the known categories is reported as a bare 500.
func HTTPStatus(err error) (int, string) {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return fiber.StatusInternalServerError, internalErrorMessage
	}

	switch richErr.Category {
	case errors.CategoryValidation, errors.CategoryBadInput, errors.CategoryConflict:
		return fiber.StatusBadRequest, richErr.Message
	case errors.CategoryAuth, errors.CategoryAuthz:
		return fiber.StatusUnauthorized, richErr.Message
	case errors.CategoryNotFound:
		return fiber.StatusNotFound, richErr.Message
	default:
		return fiber.StatusInternalServerError, internalErrorMessage
	}
}

func writeError(c *fiber.Ctx, err error) error {
	status, message := HTTPStatus(err)
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

func logError(logger Logger, c *fiber.Ctx, err error) {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		logger.Error("unexpected error", "path", c.Path(), "error", err)
		return
	}

	if richErr.Category != errors.CategoryInternal {
		logger.Debug("request failed",
			"path", c.Path(),
			"text_code", richErr.TextCode,
			"error", richErr.Message,
		)
		return
	}

	logger.Error("request failed",
		"path", c.Path(),
		"error", err,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)
}
