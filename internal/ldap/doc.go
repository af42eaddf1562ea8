/*
Package ldap provides typed, read-only access to LDAP directories for the
Terraform directory provider and the dirsearch command.

# Architecture Overview

The package is organized into a few layers, leaves first:

  - RawValue: zero, one or many wire values for one attribute
  - Codec: conversion between a RawValue and a Go value
  - Attribute and ObjectClass: typed attribute descriptors grouped into classes
  - Entry: a schema-typed view over shared, copy-on-write storage
  - Session: a primary or duplicate connection to a server
  - Search: runs a children-scope search and wraps results as entries

# Typed Entries

An entry is read and written through attribute descriptors exposed by its
view type:

	var p ldap.InetOrgPerson
	name := ldap.Get(entry, p.CommonName())
	mail, err := ldap.Lookup(entry, p.Mail())

Decoded values are cached per attribute. Casting an entry to another view
shares its storage; the first write through either view copies it:

	person, ok := ldap.Cast(entry, ldap.Person{})

# Sessions

A primary session owns its connection. Duplicates have their own connection
but become unusable as soon as the primary is unbound:

	session, err := ldap.Open(ctx, dialer, ldap.LDAP("localhost"))
	if err != nil {
		return err
	}
	defer session.CloseQuietly(ctx)

	if err := session.Bind(ctx, "cn=admin,dc=example,dc=com", password); err != nil {
		return err
	}

	people, err := ldap.Search(ctx, session, ldap.InetOrgPerson{}, "ou=people,dc=example,dc=com", "")

# Error Handling

Server-reported failures are returned as *DirectoryError carrying the LDAP
result code and a category. A native call that succeeds without producing a
handle or cursor returns ErrUnknownResult. Reading a malformed or missing
required attribute with Get and forcing an invalid cast panic.
*/
package ldap
