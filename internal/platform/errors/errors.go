package errors

import (
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/protoadapt"
)

// Domain is the ErrorInfo domain attached to every initiative status.
const Domain = "github.com/louisbranch/initiative"

// Metadata keys with a dedicated status detail besides ErrorInfo.
const (
	MetadataResource = "Resource"
	MetadataField    = "Field"
)

// Error is a coded application error. Message is for logs; the user-facing
// text comes from the locale catalog entry for Code, templated with Metadata.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

// New returns an error with no cause or metadata.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap returns an error carrying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// WithMetadata returns an error with template metadata.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

// WrapWithMetadata returns an error with template metadata and a cause.
func WrapWithMetadata(code Code, message string, metadata map[string]string, cause error) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata, Cause: cause}
}

// ForResource reports a lookup or uniqueness failure on one resource, such
// as a missing encounter.
func ForResource(code Code, resource, id string, cause error) *Error {
	message := resource + " " + id
	switch code {
	case CodeNotFound:
		message += " not found"
	case CodeAlreadyExists:
		message += " already exists"
	}
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: map[string]string{MetadataResource: resource, "ID": id},
		Cause:    cause,
	}
}

// ToGRPCStatus renders the error as a status carrying ErrorInfo, the
// localized userMessage and, when metadata names one, the offending resource
// or field.
func (e *Error) ToGRPCStatus(locale string, userMessage string) error {
	grpcCode := e.Code.GRPCCode()
	details := []protoadapt.MessageV1{
		&errdetails.ErrorInfo{
			Reason:   string(e.Code),
			Domain:   Domain,
			Metadata: e.Metadata,
		},
		&errdetails.LocalizedMessage{
			Locale:  locale,
			Message: userMessage,
		},
	}
	if resource := e.Metadata[MetadataResource]; resource != "" {
		details = append(details, &errdetails.ResourceInfo{
			ResourceType: resource,
			ResourceName: e.Metadata["ID"],
			Description:  e.Message,
		})
	}
	if field := e.Metadata[MetadataField]; field != "" {
		details = append(details, &errdetails.BadRequest{
			FieldViolations: []*errdetails.BadRequest_FieldViolation{{
				Field:       field,
				Description: userMessage,
			}},
		})
	}

	st, err := status.New(grpcCode, e.Message).WithDetails(details...)
	if err != nil {
		return status.New(grpcCode, e.Message).Err()
	}
	return st.Err()
}
