package ldap

import (
	"cmp"
	"strings"
)

// AttributeKey names a wire attribute. Keys compare by exact text.
type AttributeKey string

func (k AttributeKey) String() string {
	return string(k)
}

// Compare orders keys lexicographically for display.
func (k AttributeKey) Compare(other AttributeKey) int {
	return cmp.Compare(k, other)
}

// Attribute pairs a key with the codec used to read and write it.
//
// Descriptors hold no entry data. Two descriptors with the same key and
// different codecs may be used on the same entry.
type Attribute[T any] struct {
	key   AttributeKey
	codec Codec[T]
}

// NewAttribute returns a descriptor for key decoded with codec.
func NewAttribute[T any](key AttributeKey, codec Codec[T]) Attribute[T] {
	return Attribute[T]{key: key, codec: codec}
}

func (a Attribute[T]) Key() AttributeKey {
	return a.key
}

func (a Attribute[T]) Codec() Codec[T] {
	return a.codec
}

func (a Attribute[T]) Kind() string {
	return a.codec.Kind()
}

func (a Attribute[T]) String() string {
	return string(a.key) + " (" + a.codec.Kind() + ")"
}

// AttributeInfo is the untyped view of a descriptor, used by schema tables.
type AttributeInfo interface {
	Key() AttributeKey
	Kind() string
}

// FindAttribute returns the descriptor in attrs matching key, ignoring case.
func FindAttribute(attrs []AttributeInfo, key AttributeKey) (AttributeInfo, bool) {
	for _, a := range attrs {
		if strings.EqualFold(string(a.Key()), string(key)) {
			return a, true
		}
	}
	return nil, false
}

// Attributes shared by several object classes.
var (
	AttrObjectClass           = NewAttribute[[]string]("objectClass", ListOf(String))
	AttrEntryDN               = NewAttribute[DN]("entryDN", DNCodec)
	AttrEntryUUID             = NewAttribute("entryUUID", Optional(UUIDCodec))
	AttrCreateTimestamp       = NewAttribute("createTimestamp", Optional(GeneralizedTime))
	AttrModifyTimestamp       = NewAttribute("modifyTimestamp", Optional(GeneralizedTime))
	AttrCreatorsName          = NewAttribute("creatorsName", Optional(DNCodec))
	AttrModifiersName         = NewAttribute("modifiersName", Optional(DNCodec))
	AttrStructuralObjectClass = NewAttribute("structuralObjectClass", Optional(String))
	AttrHasSubordinates       = NewAttribute("hasSubordinates", Optional(Bool))
	AttrSubschemaSubentry     = NewAttribute("subschemaSubentry", Optional(DNCodec))

	AttrCommonName   = NewAttribute("cn", String)
	AttrCommonNames  = NewAttribute("cn", ListOf(String))
	AttrSurname      = NewAttribute("sn", String)
	AttrDescription  = NewAttribute("description", Optional(String))
	AttrUserPassword = NewAttribute("userPassword", Optional(String))
	AttrTelephone    = NewAttribute("telephoneNumber", ListOf(String))
	AttrSeeAlso      = NewAttribute("seeAlso", ListOf(DNCodec))

	AttrTitle          = NewAttribute("title", Optional(String))
	AttrOrgUnit        = NewAttribute("ou", Optional(String))
	AttrOrganization   = NewAttribute("o", Optional(String))
	AttrStreet         = NewAttribute("street", Optional(String))
	AttrPostalAddress  = NewAttribute("postalAddress", Optional(String))
	AttrPostalCode     = NewAttribute("postalCode", Optional(String))
	AttrLocality       = NewAttribute("l", Optional(String))
	AttrStateOrProv    = NewAttribute("st", Optional(String))
	AttrFacsimilePhone = NewAttribute("facsimileTelephoneNumber", Optional(String))

	AttrUID               = NewAttribute("uid", Optional(String))
	AttrMail              = NewAttribute("mail", Optional(String))
	AttrGivenName         = NewAttribute("givenName", Optional(String))
	AttrInitials          = NewAttribute("initials", Optional(String))
	AttrDisplayName       = NewAttribute("displayName", Optional(String))
	AttrEmployeeNumber    = NewAttribute("employeeNumber", Optional(String))
	AttrEmployeeType      = NewAttribute("employeeType", ListOf(String))
	AttrMobile            = NewAttribute("mobile", ListOf(String))
	AttrManager           = NewAttribute("manager", Optional(DNCodec))
	AttrDepartmentNumber  = NewAttribute("departmentNumber", ListOf(String))
	AttrPreferredLanguage = NewAttribute("preferredLanguage", Optional(String))

	AttrMember           = NewAttribute("member", ListOf(DNCodec))
	AttrUniqueMember     = NewAttribute("uniqueMember", ListOf(DNCodec))
	AttrOwner            = NewAttribute("owner", Optional(DNCodec))
	AttrBusinessCategory = NewAttribute("businessCategory", ListOf(String))

	AttrUIDRequired    = NewAttribute("uid", String)
	AttrShadowLastChg  = NewAttribute("shadowLastChange", Optional(Int))
	AttrShadowMin      = NewAttribute("shadowMin", Optional(Int))
	AttrShadowMax      = NewAttribute("shadowMax", Optional(Int))
	AttrShadowWarning  = NewAttribute("shadowWarning", Optional(Int))
	AttrShadowInactive = NewAttribute("shadowInactive", Optional(Int))
	AttrShadowExpire   = NewAttribute("shadowExpire", Optional(Int))
	AttrShadowFlag     = NewAttribute("shadowFlag", Optional(Int))

	AttrUIDNumber     = NewAttribute("uidNumber", Int)
	AttrGIDNumber     = NewAttribute("gidNumber", Int)
	AttrHomeDirectory = NewAttribute("homeDirectory", String)
	AttrLoginShell    = NewAttribute("loginShell", Optional(String))
	AttrGecos         = NewAttribute("gecos", Optional(String))

	AttrOrgUnitName = NewAttribute("ou", String)

	AttrObjectGUID         = NewAttribute("objectGUID", GUIDCodec)
	AttrObjectSid          = NewAttribute("objectSid", Optional(SIDCodec))
	AttrSAMAccountName     = NewAttribute("sAMAccountName", Optional(String))
	AttrUserPrincipalName  = NewAttribute("userPrincipalName", Optional(String))
	AttrUserAccountControl = NewAttribute("userAccountControl", Optional(Uint32))
	AttrGroupType          = NewAttribute("groupType", Optional(Int32))
)
