/*
Package crypto provides the security primitives of voidmail. Other than making a proper
TLS configuration for the public listening socket available, it implements the salted
password hashing scheme used to keep user credentials at rest as PBKDF2 digests only.
*/
package crypto
