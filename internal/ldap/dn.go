package ldap

import (
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// DN is a distinguished name in its RFC 4514 string form.
type DN string

func (d DN) String() string {
	return string(d)
}

// Parse parses the DN with go-ldap.
func (d DN) Parse() (*ldap.DN, error) {
	parsed, err := ldap.ParseDN(string(d))
	if err != nil {
		return nil, fmt.Errorf("invalid DN syntax: %w", err)
	}
	return parsed, nil
}

// Equal compares two DNs case-insensitively by their parsed components.
// Unparseable DNs fall back to a case-insensitive string comparison.
func (d DN) Equal(other DN) bool {
	a, errA := ldap.ParseDN(string(d))
	b, errB := ldap.ParseDN(string(other))
	if errA != nil || errB != nil {
		return strings.EqualFold(string(d), string(other))
	}
	return a.EqualFold(b)
}

// Parent returns the DN with its first RDN removed.
func (d DN) Parent() (DN, error) {
	parsed, err := d.Parse()
	if err != nil {
		return "", err
	}

	if len(parsed.RDNs) <= 1 {
		return "", fmt.Errorf("DN has no parent: %s", d)
	}

	return DN((&ldap.DN{RDNs: parsed.RDNs[1:]}).String()), nil
}

// RDN returns the attribute type and value of the first RDN component.
func (d DN) RDN() (attrType, value string, err error) {
	parsed, err := d.Parse()
	if err != nil {
		return "", "", err
	}

	if len(parsed.RDNs) == 0 || len(parsed.RDNs[0].Attributes) == 0 {
		return "", "", fmt.Errorf("DN has no RDN: %q", d)
	}

	attr := parsed.RDNs[0].Attributes[0]
	return attr.Type, attr.Value, nil
}

// IsDescendantOf reports whether d lies below ancestor.
func (d DN) IsDescendantOf(ancestor DN) bool {
	child, err := ldap.ParseDN(string(d))
	if err != nil {
		return false
	}
	parent, err := ldap.ParseDN(string(ancestor))
	if err != nil {
		return false
	}
	return parent.AncestorOfFold(child)
}

// NormalizeDNCase rewrites the attribute type descriptors of a DN in upper case,
// keeping values as they are.
//
// Input:  "cn=john,ou=users,dc=example,dc=com"
// Output: "CN=john,OU=users,DC=example,DC=com"
func NormalizeDNCase(dn string) (string, error) {
	dn = strings.TrimSpace(dn)
	if dn == "" {
		return "", nil
	}

	parsedDN, err := ldap.ParseDN(dn)
	if err != nil {
		return "", fmt.Errorf("invalid DN syntax: %w", err)
	}

	var rdnStrings []string
	for _, rdn := range parsedDN.RDNs {
		var attrStrings []string
		for _, attr := range rdn.Attributes {
			attrStrings = append(attrStrings, fmt.Sprintf("%s=%s", strings.ToUpper(attr.Type), ldap.EscapeDN(attr.Value)))
		}
		rdnStrings = append(rdnStrings, strings.Join(attrStrings, "+"))
	}

	return strings.Join(rdnStrings, ","), nil
}

// ValidateDNSyntax validates that a string is a properly formatted Distinguished Name.
func ValidateDNSyntax(dn string) error {
	if dn == "" {
		return fmt.Errorf("DN cannot be empty")
	}

	if _, err := ldap.ParseDN(dn); err != nil {
		return fmt.Errorf("invalid DN syntax: %w", err)
	}

	return nil
}

// DNCodec decodes distinguished names, rejecting values that do not parse.
var DNCodec Codec[DN] = dnCodec{}

type dnCodec struct{}

func (dnCodec) Kind() string { return "dn" }

func (dnCodec) Encode(value DN) RawValue { return Single(string(value)) }

func (c dnCodec) Decode(raw RawValue) (DN, error) {
	v, err := first(raw)
	if err != nil {
		return "", decodeError(c.Kind(), raw, err)
	}
	if _, err := ldap.ParseDN(v); err != nil {
		return "", decodeError(c.Kind(), raw, err)
	}
	return DN(v), nil
}
