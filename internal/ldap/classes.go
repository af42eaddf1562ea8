package ldap

import (
	"time"

	"github.com/google/uuid"
)

// Built-in object classes.
var (
	TopClass = DefineClass("2.5.6.0", "top",
		WithAttributes(AttrObjectClass, AttrEntryDN, AttrEntryUUID, AttrCreateTimestamp, AttrModifyTimestamp,
			AttrCreatorsName, AttrModifiersName, AttrStructuralObjectClass, AttrHasSubordinates, AttrSubschemaSubentry))

	PersonClass = DefineClass("2.5.6.6", "person",
		Extends(TopClass),
		WithAttributes(AttrCommonName, AttrSurname, AttrUserPassword, AttrTelephone, AttrSeeAlso, AttrDescription))

	OrganizationalPersonClass = DefineClass("2.5.6.7", "organizationalPerson",
		Extends(PersonClass),
		WithAttributes(AttrTitle, AttrOrgUnit, AttrStreet, AttrPostalAddress, AttrPostalCode,
			AttrLocality, AttrStateOrProv, AttrFacsimilePhone))

	InetOrgPersonClass = DefineClass("2.16.840.1.113730.3.2.2", "inetOrgPerson",
		Extends(OrganizationalPersonClass),
		WithAttributes(AttrUID, AttrMail, AttrGivenName, AttrInitials, AttrDisplayName, AttrEmployeeNumber,
			AttrEmployeeType, AttrMobile, AttrManager, AttrDepartmentNumber, AttrPreferredLanguage))

	GroupOfNamesClass = DefineClass("2.5.6.9", "groupOfNames",
		Extends(TopClass),
		WithAttributes(AttrCommonName, AttrMember, AttrOrganization, AttrOrgUnit, AttrOwner,
			AttrBusinessCategory, AttrDescription))

	GroupOfUniqueNamesClass = DefineClass("2.5.6.17", "groupOfUniqueNames",
		Extends(TopClass),
		WithAttributes(AttrCommonName, AttrUniqueMember, AttrOrganization, AttrOrgUnit, AttrOwner,
			AttrBusinessCategory, AttrDescription))

	ShadowAccountClass = DefineClass("1.3.6.1.1.1.2.1", "shadowAccount",
		Extends(TopClass),
		WithAttributes(AttrUIDRequired, AttrUserPassword, AttrShadowLastChg, AttrShadowMin, AttrShadowMax,
			AttrShadowWarning, AttrShadowInactive, AttrShadowExpire, AttrShadowFlag, AttrDescription))

	PosixAccountClass = DefineClass("1.3.6.1.1.1.2.0", "posixAccount",
		Extends(TopClass),
		WithAttributes(AttrCommonName, AttrUIDRequired, AttrUIDNumber, AttrGIDNumber, AttrHomeDirectory,
			AttrUserPassword, AttrLoginShell, AttrGecos, AttrDescription))

	OrganizationalUnitClass = DefineClass("2.5.6.5", "organizationalUnit",
		Extends(TopClass),
		WithAttributes(AttrOrgUnitName, AttrDescription, AttrTelephone, AttrStreet, AttrPostalCode))

	ADUserClass = DefineClass("1.2.840.113556.1.5.9", "user",
		Extends(OrganizationalPersonClass),
		WithAttributes(AttrObjectGUID, AttrObjectSid, AttrSAMAccountName, AttrUserPrincipalName,
			AttrUserAccountControl, AttrMail, AttrDisplayName, AttrGivenName))

	ADGroupClass = DefineClass("1.2.840.113556.1.5.8", "group",
		Extends(TopClass),
		WithAttributes(AttrCommonName, AttrObjectGUID, AttrObjectSid, AttrSAMAccountName, AttrGroupType,
			AttrMember, AttrDescription, AttrMail))

	// AnyClass matches every entry in a search filter and contributes no
	// attributes beyond top.
	AnyClass = DefineClass("*", "*", Extends(TopClass))
)

var _ = mustRegister(
	TopClass, PersonClass, OrganizationalPersonClass, InetOrgPersonClass,
	GroupOfNamesClass, GroupOfUniqueNamesClass, ShadowAccountClass, PosixAccountClass,
	OrganizationalUnitClass, ADUserClass, ADGroupClass, AnyClass,
)

// Top is the view shared by every entry.
type Top struct{}

func (Top) Class() *ObjectClass { return TopClass }

func (Top) ObjectClass() Attribute[[]string] { return AttrObjectClass }
func (Top) EntryDN() Attribute[DN] { return AttrEntryDN }
func (Top) EntryUUID() Attribute[*uuid.UUID] { return AttrEntryUUID }
func (Top) CreateTimestamp() Attribute[*time.Time] { return AttrCreateTimestamp }
func (Top) ModifyTimestamp() Attribute[*time.Time] { return AttrModifyTimestamp }
func (Top) CreatorsName() Attribute[*DN] { return AttrCreatorsName }
func (Top) ModifiersName() Attribute[*DN] { return AttrModifiersName }
func (Top) StructuralObjectClass() Attribute[*string] { return AttrStructuralObjectClass }
func (Top) HasSubordinates() Attribute[*bool] { return AttrHasSubordinates }
func (Top) SubschemaSubentry() Attribute[*DN] { return AttrSubschemaSubentry }

// Person is the person object class (RFC 4519).
type Person struct{ Top }

func (Person) Class() *ObjectClass { return PersonClass }

func (Person) CommonName() Attribute[string] { return AttrCommonName }
func (Person) Surname() Attribute[string] { return AttrSurname }
func (Person) UserPassword() Attribute[*string] { return AttrUserPassword }
func (Person) TelephoneNumber() Attribute[[]string] { return AttrTelephone }
func (Person) SeeAlso() Attribute[[]DN] { return AttrSeeAlso }
func (Person) Description() Attribute[*string] { return AttrDescription }

type OrganizationalPerson struct{ Person }

func (OrganizationalPerson) Class() *ObjectClass { return OrganizationalPersonClass }

func (OrganizationalPerson) Title() Attribute[*string] { return AttrTitle }
func (OrganizationalPerson) OrganizationalUnit() Attribute[*string] { return AttrOrgUnit }
func (OrganizationalPerson) Street() Attribute[*string] { return AttrStreet }
func (OrganizationalPerson) PostalAddress() Attribute[*string] { return AttrPostalAddress }
func (OrganizationalPerson) PostalCode() Attribute[*string] { return AttrPostalCode }
func (OrganizationalPerson) Locality() Attribute[*string] { return AttrLocality }
func (OrganizationalPerson) State() Attribute[*string] { return AttrStateOrProv }
func (OrganizationalPerson) FacsimileTelephoneNumber() Attribute[*string] { return AttrFacsimilePhone }

// InetOrgPerson is the inetOrgPerson object class (RFC 2798).
type InetOrgPerson struct{ OrganizationalPerson }

func (InetOrgPerson) Class() *ObjectClass { return InetOrgPersonClass }

func (InetOrgPerson) UID() Attribute[*string] { return AttrUID }
func (InetOrgPerson) Mail() Attribute[*string] { return AttrMail }
func (InetOrgPerson) GivenName() Attribute[*string] { return AttrGivenName }
func (InetOrgPerson) Initials() Attribute[*string] { return AttrInitials }
func (InetOrgPerson) DisplayName() Attribute[*string] { return AttrDisplayName }
func (InetOrgPerson) EmployeeNumber() Attribute[*string] { return AttrEmployeeNumber }
func (InetOrgPerson) EmployeeType() Attribute[[]string] { return AttrEmployeeType }
func (InetOrgPerson) Mobile() Attribute[[]string] { return AttrMobile }
func (InetOrgPerson) Manager() Attribute[*DN] { return AttrManager }
func (InetOrgPerson) DepartmentNumber() Attribute[[]string] { return AttrDepartmentNumber }
func (InetOrgPerson) PreferredLanguage() Attribute[*string] { return AttrPreferredLanguage }

type GroupOfNames struct{ Top }

func (GroupOfNames) Class() *ObjectClass { return GroupOfNamesClass }

func (GroupOfNames) CommonName() Attribute[string] { return AttrCommonName }
func (GroupOfNames) Member() Attribute[[]DN] { return AttrMember }
func (GroupOfNames) Organization() Attribute[*string] { return AttrOrganization }
func (GroupOfNames) OrganizationalUnit() Attribute[*string] { return AttrOrgUnit }
func (GroupOfNames) Owner() Attribute[*DN] { return AttrOwner }
func (GroupOfNames) BusinessCategory() Attribute[[]string] { return AttrBusinessCategory }
func (GroupOfNames) Description() Attribute[*string] { return AttrDescription }

type GroupOfUniqueNames struct{ Top }

func (GroupOfUniqueNames) Class() *ObjectClass { return GroupOfUniqueNamesClass }

func (GroupOfUniqueNames) CommonName() Attribute[string] { return AttrCommonName }
func (GroupOfUniqueNames) UniqueMember() Attribute[[]DN] { return AttrUniqueMember }
func (GroupOfUniqueNames) Organization() Attribute[*string] { return AttrOrganization }
func (GroupOfUniqueNames) OrganizationalUnit() Attribute[*string] { return AttrOrgUnit }
func (GroupOfUniqueNames) Owner() Attribute[*DN] { return AttrOwner }
func (GroupOfUniqueNames) BusinessCategory() Attribute[[]string] { return AttrBusinessCategory }
func (GroupOfUniqueNames) Description() Attribute[*string] { return AttrDescription }

// ShadowAccount is the shadowAccount auxiliary class (RFC 2307). Day counts
// are days since the epoch.
type ShadowAccount struct{ Top }

func (ShadowAccount) Class() *ObjectClass { return ShadowAccountClass }

func (ShadowAccount) UID() Attribute[string] { return AttrUIDRequired }
func (ShadowAccount) UserPassword() Attribute[*string] { return AttrUserPassword }
func (ShadowAccount) ShadowLastChange() Attribute[*int] { return AttrShadowLastChg }
func (ShadowAccount) ShadowMin() Attribute[*int] { return AttrShadowMin }
func (ShadowAccount) ShadowMax() Attribute[*int] { return AttrShadowMax }
func (ShadowAccount) ShadowWarning() Attribute[*int] { return AttrShadowWarning }
func (ShadowAccount) ShadowInactive() Attribute[*int] { return AttrShadowInactive }
func (ShadowAccount) ShadowExpire() Attribute[*int] { return AttrShadowExpire }
func (ShadowAccount) ShadowFlag() Attribute[*int] { return AttrShadowFlag }
func (ShadowAccount) Description() Attribute[*string] { return AttrDescription }

type PosixAccount struct{ Top }

func (PosixAccount) Class() *ObjectClass { return PosixAccountClass }

func (PosixAccount) CommonName() Attribute[string] { return AttrCommonName }
func (PosixAccount) UID() Attribute[string] { return AttrUIDRequired }
func (PosixAccount) UIDNumber() Attribute[int] { return AttrUIDNumber }
func (PosixAccount) GIDNumber() Attribute[int] { return AttrGIDNumber }
func (PosixAccount) HomeDirectory() Attribute[string] { return AttrHomeDirectory }
func (PosixAccount) UserPassword() Attribute[*string] { return AttrUserPassword }
func (PosixAccount) LoginShell() Attribute[*string] { return AttrLoginShell }
func (PosixAccount) Gecos() Attribute[*string] { return AttrGecos }
func (PosixAccount) Description() Attribute[*string] { return AttrDescription }

type OrganizationalUnit struct{ Top }

func (OrganizationalUnit) Class() *ObjectClass { return OrganizationalUnitClass }

func (OrganizationalUnit) Name() Attribute[string] { return AttrOrgUnitName }
func (OrganizationalUnit) Description() Attribute[*string] { return AttrDescription }
func (OrganizationalUnit) TelephoneNumber() Attribute[[]string] { return AttrTelephone }
func (OrganizationalUnit) Street() Attribute[*string] { return AttrStreet }
func (OrganizationalUnit) PostalCode() Attribute[*string] { return AttrPostalCode }

// ADUser is the Active Directory user class.
type ADUser struct{ OrganizationalPerson }

func (ADUser) Class() *ObjectClass { return ADUserClass }

func (ADUser) ObjectGUID() Attribute[uuid.UUID] { return AttrObjectGUID }
func (ADUser) ObjectSid() Attribute[*SID] { return AttrObjectSid }
func (ADUser) SAMAccountName() Attribute[*string] { return AttrSAMAccountName }
func (ADUser) UserPrincipalName() Attribute[*string] { return AttrUserPrincipalName }
func (ADUser) UserAccountControl() Attribute[*uint32] { return AttrUserAccountControl }
func (ADUser) Mail() Attribute[*string] { return AttrMail }
func (ADUser) DisplayName() Attribute[*string] { return AttrDisplayName }
func (ADUser) GivenName() Attribute[*string] { return AttrGivenName }

// ADGroup is the Active Directory group class.
type ADGroup struct{ Top }

func (ADGroup) Class() *ObjectClass { return ADGroupClass }

func (ADGroup) CommonName() Attribute[string] { return AttrCommonName }
func (ADGroup) ObjectGUID() Attribute[uuid.UUID] { return AttrObjectGUID }
func (ADGroup) ObjectSid() Attribute[*SID] { return AttrObjectSid }
func (ADGroup) SAMAccountName() Attribute[*string] { return AttrSAMAccountName }
func (ADGroup) GroupType() Attribute[*int32] { return AttrGroupType }
func (ADGroup) Member() Attribute[[]DN] { return AttrMember }
func (ADGroup) Description() Attribute[*string] { return AttrDescription }
func (ADGroup) Mail() Attribute[*string] { return AttrMail }

// Any matches entries of every class.
type Any struct{ Top }

func (Any) Class() *ObjectClass { return AnyClass }

// Dynamic is a view over a class chosen at run time. It exposes only the
// accessors of top; other attributes are read with descriptors built by the
// caller or through Raw.
type Dynamic struct {
	Top
	class *ObjectClass
}

// DynamicSchema returns a view over class. A nil class selects AnyClass.
func DynamicSchema(class *ObjectClass) Dynamic {
	if class == nil {
		class = AnyClass
	}
	return Dynamic{class: class}
}

func (d Dynamic) Class() *ObjectClass {
	if d.class == nil {
		return AnyClass
	}
	return d.class
}
