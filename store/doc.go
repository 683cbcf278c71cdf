/*
Package store owns the two in-memory tables of a voidmail server: the user table keyed
by address and the email table keyed by content-derived ID. Both stores are safe for
concurrent use by many connection handlers. Expected business-rule violations are
returned as typed error values, never as panics; snapshot and restore expose the full
table contents for the persistence gateway and fully replace prior state on restore.
*/
package store
