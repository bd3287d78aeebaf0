package errors

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/louisbranch/initiative/internal/platform/errors/i18n"
	"github.com/louisbranch/initiative/internal/platform/i18n/catalog"
)

// DefaultLocale is the default locale for error messages.
const DefaultLocale = catalog.BaseLocale

// HandleError converts domain errors to gRPC status for client responses.
// It formats the user-facing message using the i18n catalog for the given locale,
// defaulting to en-US if the locale is empty.
func HandleError(err error, locale string) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok && !isDomainError(err) {
		return err
	}

	if locale == "" {
		locale = DefaultLocale
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		cat := i18n.GetCatalog(locale)
		userMsg := cat.Format(string(appErr.Code), appErr.Metadata)
		return appErr.ToGRPCStatus(cat.Locale(), userMsg)
	}

	return status.Error(codes.Internal, "an unexpected error occurred")
}

// LocaleFromContext resolves the best supported locale from the incoming
// "accept-language" gRPC metadata.
func LocaleFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return DefaultLocale
	}
	values := md.Get("accept-language")
	if len(values) == 0 {
		return DefaultLocale
	}
	return catalog.Default().Match(strings.Join(values, ","))
}

// LocaleFromHeader resolves the best supported locale from an HTTP
// Accept-Language header value.
func LocaleFromHeader(acceptLanguage string) string {
	if strings.TrimSpace(acceptLanguage) == "" {
		return DefaultLocale
	}
	return catalog.Default().Match(acceptLanguage)
}

// LocalizedMessage renders the user-facing message of err for locale.
func LocalizedMessage(err error, locale string) string {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return "an unexpected error occurred"
	}
	return i18n.GetCatalog(locale).Format(string(appErr.Code), appErr.Metadata)
}

// GetCode extracts the error code from any error.
// Returns CodeUnknown if the error is not a domain error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode checks if the error has the specified code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// GetMetadata extracts metadata from an error if present.
// Returns nil if the error is not a domain error or has no metadata.
func GetMetadata(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Metadata
	}
	return nil
}

func isDomainError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
