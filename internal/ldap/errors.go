package ldap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

var (
	// ErrSessionClosed is returned when an operation is attempted on a session
	// that was unbound, or on a duplicate whose origin was unbound.
	ErrSessionClosed = errors.New("directory session is closed")

	// ErrUnknownResult is returned when the native client reports success but
	// produces no handle or cursor.
	ErrUnknownResult = errors.New("directory call succeeded without a result")
)

// ErrorCategory groups result codes by what the caller can do about them.
type ErrorCategory string

const (
	ErrorCategoryConnection     ErrorCategory = "connection"
	ErrorCategoryAuthentication ErrorCategory = "authentication"
	ErrorCategoryPermission     ErrorCategory = "permission"
	ErrorCategoryNotFound       ErrorCategory = "not_found"
	ErrorCategoryValidation     ErrorCategory = "validation"
	ErrorCategoryServer         ErrorCategory = "server"
	ErrorCategoryUnknown        ErrorCategory = "unknown"
)

// DirectoryError is a failure reported by the native directory client.
type DirectoryError struct {
	Operation string // open, duplicate, bind, search, close
	Code      uint16 // LDAP result code, 0 when the failure carried none
	Message   string // Human-readable text for Code
	ServerMsg string // Diagnostic message from the server
	DN        string // DN involved in the operation (if applicable)
	Cause     error
}

func (e *DirectoryError) Error() string {
	var parts []string

	if e.Code > 0 {
		parts = append(parts, fmt.Sprintf("LDAP %s failed (code %d)", e.Operation, e.Code))
	} else {
		parts = append(parts, fmt.Sprintf("LDAP %s failed", e.Operation))
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	if e.ServerMsg != "" && e.ServerMsg != e.Message {
		parts = append(parts, fmt.Sprintf("server: %s", e.ServerMsg))
	}

	if e.DN != "" {
		parts = append(parts, fmt.Sprintf("DN: %s", e.DN))
	}

	return strings.Join(parts, " - ")
}

func (e *DirectoryError) Unwrap() error {
	return e.Cause
}

// Category returns the category derived from the result code.
func (e *DirectoryError) Category() ErrorCategory {
	if e.Code == 0 {
		return ErrorCategoryConnection
	}
	return categorizeError(e.Code)
}

// NewDirectoryError translates err into a DirectoryError for operation. A nil
// err yields nil, and an existing DirectoryError is returned unchanged.
func NewDirectoryError(operation, dn string, err error) error {
	if err == nil {
		return nil
	}

	var dirErr *DirectoryError
	if errors.As(err, &dirErr) {
		return err
	}
	if errors.Is(err, ErrUnknownResult) || errors.Is(err, ErrSessionClosed) {
		return err
	}

	dirErr = &DirectoryError{
		Operation: operation,
		DN:        dn,
		Cause:     err,
	}

	var resultErr *ldap.Error
	if errors.As(err, &resultErr) {
		dirErr.Code = resultErr.ResultCode
		dirErr.Message = ResultCodeMessage(resultErr.ResultCode)
		if resultErr.Err != nil {
			dirErr.ServerMsg = resultErr.Err.Error()
		}
	} else {
		dirErr.Message = err.Error()
	}

	return dirErr
}

// DecodeError reports a raw value that cannot be decoded as the requested kind.
type DecodeError struct {
	Key  AttributeKey
	Kind string
	Raw  RawValue
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("cannot decode attribute %q as %s from %s: %v", e.Key, e.Kind, e.Raw, e.Err)
	}
	return fmt.Sprintf("cannot decode %s from %s: %v", e.Kind, e.Raw, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// CastError reports a forced cast to an object class the entry does not carry.
type CastError struct {
	ID     string
	From   string
	Target string
}

func (e *CastError) Error() string {
	return fmt.Sprintf("entry %q (%s) does not carry object class %s", e.ID, e.From, e.Target)
}

// categorizeError categorizes an error based on LDAP result code.
func categorizeError(code uint16) ErrorCategory {
	switch code {
	case ldap.LDAPResultInvalidCredentials,
		ldap.LDAPResultInappropriateAuthentication,
		ldap.LDAPResultStrongAuthRequired,
		ldap.LDAPResultAuthMethodNotSupported,
		ldap.LDAPResultConfidentialityRequired:
		return ErrorCategoryAuthentication

	case ldap.LDAPResultInsufficientAccessRights,
		ldap.LDAPResultUnwillingToPerform:
		return ErrorCategoryPermission

	case ldap.LDAPResultNoSuchObject,
		ldap.LDAPResultNoSuchAttribute,
		ldap.LDAPResultUndefinedAttributeType:
		return ErrorCategoryNotFound

	case ldap.LDAPResultInvalidAttributeSyntax,
		ldap.LDAPResultInvalidDNSyntax,
		ldap.LDAPResultFilterError,
		ldap.LDAPResultInappropriateMatching,
		ldap.LDAPResultProtocolError:
		return ErrorCategoryValidation

	case ldap.LDAPResultServerDown,
		ldap.LDAPResultUnavailable,
		ldap.LDAPResultBusy,
		ldap.LDAPResultTimeLimitExceeded,
		ldap.LDAPResultSizeLimitExceeded,
		ldap.LDAPResultAdminLimitExceeded:
		return ErrorCategoryServer

	case ldap.LDAPResultConnectError,
		ldap.ErrorNetwork,
		ldap.LDAPResultTimeout:
		return ErrorCategoryConnection

	default:
		return ErrorCategoryUnknown
	}
}

// ResultCodeMessage returns a human-readable message for an LDAP result code.
func ResultCodeMessage(code uint16) string {
	switch code {
	case ldap.LDAPResultSuccess:
		return "Operation completed successfully"
	case ldap.LDAPResultOperationsError:
		return "LDAP operations error"
	case ldap.LDAPResultProtocolError:
		return "LDAP protocol error"
	case ldap.LDAPResultTimeLimitExceeded:
		return "LDAP time limit exceeded"
	case ldap.LDAPResultSizeLimitExceeded:
		return "LDAP size limit exceeded"
	case ldap.LDAPResultAuthMethodNotSupported:
		return "Authentication method not supported"
	case ldap.LDAPResultStrongAuthRequired:
		return "Strong authentication required"
	case ldap.LDAPResultReferral:
		return "LDAP referral"
	case ldap.LDAPResultAdminLimitExceeded:
		return "Administrative limit exceeded"
	case ldap.LDAPResultConfidentialityRequired:
		return "Confidentiality required"
	case ldap.LDAPResultNoSuchAttribute:
		return "Requested attribute does not exist"
	case ldap.LDAPResultUndefinedAttributeType:
		return "Attribute type is not defined"
	case ldap.LDAPResultInappropriateMatching:
		return "Inappropriate matching rule"
	case ldap.LDAPResultInvalidAttributeSyntax:
		return "Invalid attribute syntax"
	case ldap.LDAPResultNoSuchObject:
		return "Requested object does not exist"
	case ldap.LDAPResultAliasProblem:
		return "Alias problem"
	case ldap.LDAPResultInvalidDNSyntax:
		return "Invalid DN syntax"
	case ldap.LDAPResultAliasDereferencingProblem:
		return "Alias dereferencing problem"
	case ldap.LDAPResultInappropriateAuthentication:
		return "Inappropriate authentication method"
	case ldap.LDAPResultInvalidCredentials:
		return "Invalid credentials"
	case ldap.LDAPResultInsufficientAccessRights:
		return "Insufficient access rights"
	case ldap.LDAPResultBusy:
		return "Server is busy"
	case ldap.LDAPResultUnavailable:
		return "Server is unavailable"
	case ldap.LDAPResultUnwillingToPerform:
		return "Server is unwilling to perform the operation"
	case ldap.LDAPResultLoopDetect:
		return "Loop detected"
	case ldap.LDAPResultServerDown:
		return "Server is down"
	case ldap.LDAPResultTimeout:
		return "Operation timed out"
	case ldap.LDAPResultFilterError:
		return "Invalid search filter"
	case ldap.LDAPResultConnectError:
		return "Connection error"
	case ldap.LDAPResultNoResultsReturned:
		return "No results returned"
	case ldap.ErrorNetwork:
		return "Network error"
	}

	if text, ok := ldap.LDAPResultCodeMap[code]; ok {
		return text
	}
	return fmt.Sprintf("Unknown LDAP error (code %d)", code)
}

// GetErrorCategory returns the category of an error.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryUnknown
	}

	var dirErr *DirectoryError
	if errors.As(err, &dirErr) {
		return dirErr.Category()
	}

	var resultErr *ldap.Error
	if errors.As(err, &resultErr) {
		return categorizeError(resultErr.ResultCode)
	}

	return ErrorCategoryUnknown
}

// IsNotFoundError checks if an error indicates a "not found" condition.
func IsNotFoundError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryNotFound
}

// IsAuthenticationError checks if an error indicates an authentication problem.
func IsAuthenticationError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryAuthentication
}

// IsPermissionError checks if an error indicates a permission problem.
func IsPermissionError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryPermission
}
